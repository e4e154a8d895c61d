package classfile

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/bytecode"
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
)

// Read parses a class file from r.
func Read(r io.Reader, opts ...Option) (*Class, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(errors.E1001, "reading class file").WithCause(err)
	}
	return Parse(data, opts...)
}

// Parse parses class-file bytes.
func Parse(data []byte, opts ...Option) (*Class, error) {
	return parse(data, newConfig(opts))
}

func parse(data []byte, cfg *config) (*Class, error) {
	r := byteio.NewReader(data)
	if m := r.U32(); r.Err() == nil && m != magic {
		return nil, errors.New(errors.E1002, "bad magic number 0x%08X", m)
	}
	c := &Class{}
	c.Version.Minor = r.U16()
	c.Version.Major = r.U16()
	if r.Err() != nil {
		return nil, r.Err()
	}
	if c.Version.Major < minMajor {
		return nil, errors.New(errors.E1003, "unsupported class file version %d.%d", c.Version.Major, c.Version.Minor)
	}
	pool, err := cpool.Read(r)
	if err != nil {
		return nil, errors.Wrapf(err, "reading constant pool")
	}

	c.Flags = AccessFlags(r.U16())
	if c.Name, err = pool.ClassType(r.U16()); err != nil {
		return nil, errors.Wrapf(readErr(r, err), "this class")
	}
	where := func(err error) error {
		return errors.Wrapf(err, "reading class '%s' version %d.%d", c.Name, c.Version.Major, c.Version.Minor)
	}
	if err := c.readBody(r, pool, cfg.logger); err != nil {
		return nil, where(err)
	}
	if err := c.validateEnum(); err != nil {
		return nil, where(err)
	}
	cfg.logger.Debug().
		Str("class", c.Name.String()).
		Int("fields", len(c.Fields)).
		Int("methods", len(c.Methods)).
		Int("constants", pool.Len()).
		Int("bytes", len(data)).
		Msg("class read")
	return c, nil
}

func (c *Class) readBody(r *byteio.Reader, pool *cpool.Pool, logger zerolog.Logger) error {
	if index := r.U16(); index != 0 {
		super, err := pool.ClassType(index)
		if err != nil {
			return errors.Wrapf(readErr(r, err), "super class")
		}
		c.Super = super
	} else if r.Err() == nil && c.Name != descriptor.TypeObject {
		return errors.New(errors.E2001, "class %s has no super class", c.Name)
	}
	n := int(r.U16())
	for i := 0; i < n && r.Err() == nil; i++ {
		iface, err := pool.ClassType(r.U16())
		if err != nil {
			return errors.Wrapf(readErr(r, err), "interface %d", i)
		}
		c.Interfaces = append(c.Interfaces, iface)
	}
	if r.Err() != nil {
		return r.Err()
	}

	ctx := &attr.Context{Pool: pool, Logger: logger}
	n = int(r.U16())
	for i := 0; i < n && r.Err() == nil; i++ {
		f, err := readField(r, ctx)
		if err != nil {
			return err
		}
		c.Fields = append(c.Fields, f)
	}
	var bodies []*attr.Code
	n = int(r.U16())
	for i := 0; i < n && r.Err() == nil; i++ {
		m, code, err := readMethod(r, ctx, c.Name)
		if err != nil {
			return err
		}
		c.Methods = append(c.Methods, m)
		bodies = append(bodies, code)
	}
	if r.Err() != nil {
		return r.Err()
	}

	set, err := attr.ReadSet(r, ctx)
	if err != nil {
		return err
	}
	for _, a := range set {
		switch a := a.(type) {
		case *attr.SourceFile:
			c.SourceFile = a.File
		case *attr.Signature:
			c.Signature = a.Value
		case *attr.InnerClasses:
			c.stitch(a.Classes)
		case *attr.EnclosingMethod:
			c.Enclosing = a
		case *attr.BootstrapMethods:
			pool.SetBootstrapMethods(a.Methods)
		default:
			c.Attributes = append(c.Attributes, a)
		}
	}
	if c.Nesting == nil {
		c.Nesting = []*attr.InnerClass{nil}
	}

	// Call sites resolve through the bootstrap table, which comes last.
	for i, m := range c.Methods {
		if bodies[i] == nil {
			continue
		}
		code, err := bytecode.Decode(bodies[i], pool, m.InitialFrame())
		if err != nil {
			return errors.Wrapf(errors.Wrapf(err, "method body"), "method '%s'", m.Name)
		}
		m.Code = code
	}
	return nil
}

func readMember(r *byteio.Reader, ctx *attr.Context) (AccessFlags, string, string, attr.Set, error) {
	flags := AccessFlags(r.U16())
	name, err := ctx.Pool.Utf8(r.U16())
	if err != nil {
		return 0, "", "", nil, readErr(r, err)
	}
	desc, err := ctx.Pool.Utf8(r.U16())
	if err != nil {
		return 0, "", "", nil, readErr(r, err)
	}
	set, err := attr.ReadSet(r, ctx)
	return flags, name, desc, set, err
}

func readField(r *byteio.Reader, ctx *attr.Context) (*Field, error) {
	flags, name, desc, set, err := readMember(r, ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "field '%s'", name)
	}
	t, err := descriptor.Parse(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "field '%s'", name)
	}
	f := &Field{Flags: flags, Name: name, Type: t}
	for _, a := range set {
		switch a := a.(type) {
		case *attr.ConstantValue:
			f.Constant = a.Value
		case *attr.Signature:
			f.Signature = a.Value
		default:
			f.Attributes = append(f.Attributes, a)
		}
	}
	return f, nil
}

func readMethod(r *byteio.Reader, ctx *attr.Context, owner descriptor.Type) (*Method, *attr.Code, error) {
	flags, name, desc, set, err := readMember(r, ctx)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "method '%s'", name)
	}
	md, err := descriptor.ParseMethod(desc)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "method '%s'", name)
	}
	m := &Method{Flags: flags, Name: name, Descriptor: md, owner: owner}
	var code *attr.Code
	for _, a := range set {
		switch a := a.(type) {
		case *attr.Code:
			code = a
		case *attr.Exceptions:
			m.Exceptions = a.Classes
		case *attr.MethodParameters:
			m.Parameters = a.Params
		case *attr.Signature:
			m.Signature = a.Value
		default:
			m.Attributes = append(m.Attributes, a)
		}
	}
	return m, code, nil
}

// readErr prefers a truncation error over the lookup failure it caused.
func readErr(r *byteio.Reader, err error) error {
	if r.Err() != nil {
		return r.Err()
	}
	return err
}
