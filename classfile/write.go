package classfile

import (
	"io"

	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/bytecode"
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
)

// Write encodes the class and writes it to w.
func (c *Class) Write(w io.Writer, opts ...Option) error {
	b, err := c.Bytes(opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return errors.New(errors.E1001, "writing class %s", c.Name).WithCause(err)
	}
	return nil
}

// Bytes encodes the class. The body is written first against a fresh
// constant pool, which is then frozen and written ahead of it.
func (c *Class) Bytes(opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	where := func(err error) error {
		return errors.Wrapf(err, "writing class '%s'", c.Name)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	pool := cpool.New()
	body := byteio.NewWriter()
	if err := c.writeBody(body, pool, cfg); err != nil {
		return nil, where(err)
	}

	out := byteio.NewWriter()
	out.U32(magic)
	out.U16(writeMinor)
	out.U16(writeMajor)
	pool.Write(out)
	if err := out.Append(body); err != nil {
		return nil, where(err)
	}
	b, err := out.Bytes()
	if err != nil {
		return nil, where(err)
	}
	cfg.logger.Debug().
		Str("class", c.Name.String()).
		Int("fields", len(c.Fields)).
		Int("methods", len(c.Methods)).
		Int("constants", pool.Len()).
		Int("bytes", len(b)).
		Msg("class written")
	return b, nil
}

func (c *Class) writeBody(w *byteio.Writer, pool *cpool.Pool, cfg *config) error {
	w.U16(uint16(c.Flags))
	this, err := pool.PutClass(c.Name)
	if err != nil {
		return err
	}
	w.U16(this)
	var super uint16
	if !c.Super.IsZero() {
		if super, err = pool.PutClass(c.Super); err != nil {
			return errors.Wrapf(err, "super class")
		}
	}
	w.U16(super)
	if err := countU16(len(c.Interfaces), "interfaces"); err != nil {
		return err
	}
	w.U16(uint16(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		index, err := pool.PutClass(iface)
		if err != nil {
			return errors.Wrapf(err, "interface %s", iface)
		}
		w.U16(index)
	}

	if err := countU16(len(c.Fields), "fields"); err != nil {
		return err
	}
	w.U16(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		if err := writeField(w, pool, f); err != nil {
			return errors.Wrapf(err, "field '%s'", f.Name)
		}
	}
	if err := countU16(len(c.Methods), "methods"); err != nil {
		return err
	}
	w.U16(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		if err := writeMethod(w, pool, m, cfg); err != nil {
			return errors.Wrapf(err, "method '%s'", m.Name)
		}
	}

	var set attr.Set
	if c.SourceFile != "" {
		set = append(set, &attr.SourceFile{File: c.SourceFile})
	}
	if c.Signature != "" {
		set = append(set, &attr.Signature{Value: c.Signature})
	}
	if rows := c.innerClasses(); len(rows) > 0 {
		set = append(set, &attr.InnerClasses{Classes: rows})
	}
	if c.Enclosing != nil {
		set = append(set, c.Enclosing)
	}
	set = append(set, c.Attributes...)
	// Every call site has been added to the pool by now.
	if methods := pool.BootstrapMethods(); len(methods) > 0 {
		set = append(set, &attr.BootstrapMethods{Methods: methods})
	}
	return set.Write(w, pool)
}

func writeMember(w *byteio.Writer, pool *cpool.Pool, flags AccessFlags, name, desc string) error {
	w.U16(uint16(flags))
	index, err := pool.PutUtf8(name)
	if err != nil {
		return err
	}
	w.U16(index)
	if index, err = pool.PutUtf8(desc); err != nil {
		return err
	}
	w.U16(index)
	return nil
}

func writeField(w *byteio.Writer, pool *cpool.Pool, f *Field) error {
	if err := writeMember(w, pool, f.Flags, f.Name, f.Type.Descriptor()); err != nil {
		return err
	}
	var set attr.Set
	if f.Constant != nil {
		set = append(set, &attr.ConstantValue{Value: f.Constant})
	}
	if f.Signature != "" {
		set = append(set, &attr.Signature{Value: f.Signature})
	}
	set = append(set, f.Attributes...)
	return set.Write(w, pool)
}

func writeMethod(w *byteio.Writer, pool *cpool.Pool, m *Method, cfg *config) error {
	if err := writeMember(w, pool, m.Flags, m.Name, m.Descriptor.Descriptor()); err != nil {
		return err
	}
	var set attr.Set
	if m.Code != nil {
		code, err := m.Code.Encode(pool, bytecode.EncodeOptions{Optimize: cfg.optimize, StackMaps: cfg.stackMaps})
		if err != nil {
			return errors.Wrapf(err, "method body")
		}
		set = append(set, code)
	}
	if len(m.Exceptions) > 0 {
		set = append(set, &attr.Exceptions{Classes: m.Exceptions})
	}
	if m.Signature != "" {
		set = append(set, &attr.Signature{Value: m.Signature})
	}
	if len(m.Parameters) > 0 {
		set = append(set, &attr.MethodParameters{Params: m.Parameters})
	}
	set = append(set, m.Attributes...)
	return set.Write(w, pool)
}

func countU16(n int, what string) error {
	if n > 0xFFFF {
		return errors.New(errors.E3008, "too many %s: %d", what, n)
	}
	return nil
}
