package attr

import (
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

// SourceFile names the source file a class was compiled from.
type SourceFile struct {
	File string
}

func (*SourceFile) Name() string { return "SourceFile" }

func (a *SourceFile) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	return putUtf8(w, pool, a.File)
}

func parseSourceFile(r *byteio.Reader, ctx *Context) (Attribute, error) {
	s, err := ctx.Pool.Utf8(r.U16())
	return &SourceFile{File: s}, err
}

// Signature holds a generic signature.
type Signature struct {
	Value string
}

func (*Signature) Name() string { return "Signature" }

func (a *Signature) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	return putUtf8(w, pool, a.Value)
}

func parseSignature(r *byteio.Reader, ctx *Context) (Attribute, error) {
	s, err := ctx.Pool.Utf8(r.U16())
	return &Signature{Value: s}, err
}

// Exceptions lists the checked exceptions a method declares.
type Exceptions struct {
	Classes []descriptor.Type
}

func (*Exceptions) Name() string { return "Exceptions" }

func (a *Exceptions) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	w.U16(uint16(len(a.Classes)))
	for _, c := range a.Classes {
		if err := putClass(w, pool, c); err != nil {
			return err
		}
	}
	return nil
}

func parseExceptions(r *byteio.Reader, ctx *Context) (Attribute, error) {
	n := int(r.U16())
	a := &Exceptions{}
	for i := 0; i < n && r.Err() == nil; i++ {
		c, err := ctx.Pool.ClassType(r.U16())
		if err != nil {
			return nil, err
		}
		a.Classes = append(a.Classes, c)
	}
	return a, nil
}

// InnerClass is one row of the InnerClasses attribute. Outer is zero for
// local and anonymous classes; Name is empty for anonymous classes.
type InnerClass struct {
	Inner descriptor.Type
	Outer descriptor.Type
	Name  string
	Flags uint16
}

// InnerClasses records the nesting of classes referenced by a class.
type InnerClasses struct {
	Classes []InnerClass
}

func (*InnerClasses) Name() string { return "InnerClasses" }

func (a *InnerClasses) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	w.U16(uint16(len(a.Classes)))
	for _, c := range a.Classes {
		if err := putClass(w, pool, c.Inner); err != nil {
			return err
		}
		if err := putOptionalClass(w, pool, c.Outer); err != nil {
			return err
		}
		if err := putOptionalUtf8(w, pool, c.Name); err != nil {
			return err
		}
		w.U16(c.Flags)
	}
	return nil
}

func parseInnerClasses(r *byteio.Reader, ctx *Context) (Attribute, error) {
	n := int(r.U16())
	a := &InnerClasses{}
	for i := 0; i < n && r.Err() == nil; i++ {
		var c InnerClass
		var err error
		if c.Inner, err = ctx.Pool.ClassType(r.U16()); err != nil {
			return nil, err
		}
		if c.Outer, err = optionalClass(ctx.Pool, r.U16()); err != nil {
			return nil, err
		}
		if c.Name, err = optionalUtf8(ctx.Pool, r.U16()); err != nil {
			return nil, err
		}
		c.Flags = r.U16()
		a.Classes = append(a.Classes, c)
	}
	return a, nil
}

// EnclosingMethod names the class, and method if any, enclosing a local or
// anonymous class.
type EnclosingMethod struct {
	Class      descriptor.Type
	Method     string
	Descriptor string
}

func (*EnclosingMethod) Name() string { return "EnclosingMethod" }

func (a *EnclosingMethod) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	if err := putClass(w, pool, a.Class); err != nil {
		return err
	}
	if a.Method == "" {
		w.U16(0)
		return nil
	}
	nt, err := pool.PutNameAndType(a.Method, a.Descriptor)
	if err != nil {
		return err
	}
	w.U16(nt)
	return nil
}

func parseEnclosingMethod(r *byteio.Reader, ctx *Context) (Attribute, error) {
	c, err := ctx.Pool.ClassType(r.U16())
	if err != nil {
		return nil, err
	}
	a := &EnclosingMethod{Class: c}
	if index := r.U16(); index != 0 {
		nt, err := ctx.Pool.NameAndType(index)
		if err != nil {
			return nil, err
		}
		a.Method, a.Descriptor = nt.Name, nt.Descriptor
	}
	return a, nil
}

// ConstantValue is the initial value of a static field: an int32, float32,
// int64, float64 or string.
type ConstantValue struct {
	Value any
}

func (*ConstantValue) Name() string { return "ConstantValue" }

func (a *ConstantValue) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	switch a.Value.(type) {
	case int32, float32, int64, float64, string:
	default:
		return errors.New(errors.E3005, "invalid constant value %T", a.Value)
	}
	index, err := pool.PutLoadable(a.Value)
	if err != nil {
		return err
	}
	w.U16(index)
	return nil
}

func parseConstantValue(r *byteio.Reader, ctx *Context) (Attribute, error) {
	v, err := ctx.Pool.Loadable(r.U16())
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case int32, float32, int64, float64, string:
	default:
		return nil, errors.New(errors.E3005, "invalid constant value %T", v)
	}
	return &ConstantValue{Value: v}, nil
}

// BootstrapMethods is the class's table of invokedynamic bootstrap methods.
type BootstrapMethods struct {
	Methods []cpool.BootstrapMethod
}

func (*BootstrapMethods) Name() string { return "BootstrapMethods" }

func (a *BootstrapMethods) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	w.U16(uint16(len(a.Methods)))
	for _, m := range a.Methods {
		h, err := pool.PutMethodHandle(m.Handle)
		if err != nil {
			return err
		}
		w.U16(h)
		w.U16(uint16(len(m.Args)))
		for _, arg := range m.Args {
			index, err := pool.PutLoadable(arg)
			if err != nil {
				return err
			}
			w.U16(index)
		}
	}
	return nil
}

func parseBootstrapMethods(r *byteio.Reader, ctx *Context) (Attribute, error) {
	n := int(r.U16())
	a := &BootstrapMethods{}
	for i := 0; i < n && r.Err() == nil; i++ {
		h, err := ctx.Pool.MethodHandle(r.U16())
		if err != nil {
			return nil, errors.Wrapf(err, "bootstrap method %d", i)
		}
		m := cpool.BootstrapMethod{Handle: h}
		nargs := int(r.U16())
		for j := 0; j < nargs && r.Err() == nil; j++ {
			v, err := ctx.Pool.Loadable(r.U16())
			if err != nil {
				return nil, errors.Wrapf(err, "bootstrap method %d", i)
			}
			m.Args = append(m.Args, v)
		}
		a.Methods = append(a.Methods, m)
	}
	return a, nil
}

// StackMapTable holds the verifier frames of a Code attribute in wire form.
type StackMapTable struct {
	Entries []stackmap.Entry
}

func (*StackMapTable) Name() string { return "StackMapTable" }

func (a *StackMapTable) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	return stackmap.WriteTable(w, pool, a.Entries)
}

func parseStackMapTable(r *byteio.Reader, ctx *Context) (Attribute, error) {
	entries, err := stackmap.ReadTable(r, ctx.Pool)
	if err != nil {
		return nil, err
	}
	return &StackMapTable{Entries: entries}, nil
}

// LineNumber maps the instruction at offset Start to a source line.
type LineNumber struct {
	Start uint16
	Line  uint16
}

// LineNumberTable maps bytecode offsets to source lines.
type LineNumberTable struct {
	Lines []LineNumber
}

func (*LineNumberTable) Name() string { return "LineNumberTable" }

func (a *LineNumberTable) Encode(w *byteio.Writer, _ *cpool.Pool) error {
	w.U16(uint16(len(a.Lines)))
	for _, l := range a.Lines {
		w.U16(l.Start)
		w.U16(l.Line)
	}
	return nil
}

func parseLineNumberTable(r *byteio.Reader, _ *Context) (Attribute, error) {
	n := int(r.U16())
	a := &LineNumberTable{Lines: make([]LineNumber, 0, n)}
	for i := 0; i < n && r.Err() == nil; i++ {
		a.Lines = append(a.Lines, LineNumber{Start: r.U16(), Line: r.U16()})
	}
	return a, nil
}

// LocalVariable describes a local variable live over [Start, Start+Length).
// Descriptor holds a field descriptor, or a signature in a type table.
type LocalVariable struct {
	Start      uint16
	Length     uint16
	Name       string
	Descriptor string
	Slot       uint16
}

// LocalVariableTable describes local variables for debuggers. With Types
// set it is a LocalVariableTypeTable carrying generic signatures.
type LocalVariableTable struct {
	Types bool
	Vars  []LocalVariable
}

func (a *LocalVariableTable) Name() string {
	if a.Types {
		return "LocalVariableTypeTable"
	}
	return "LocalVariableTable"
}

func (a *LocalVariableTable) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	w.U16(uint16(len(a.Vars)))
	for _, v := range a.Vars {
		w.U16(v.Start)
		w.U16(v.Length)
		if err := putUtf8(w, pool, v.Name); err != nil {
			return err
		}
		if err := putUtf8(w, pool, v.Descriptor); err != nil {
			return err
		}
		w.U16(v.Slot)
	}
	return nil
}

func parseLocalVariableTable(r *byteio.Reader, ctx *Context) (Attribute, error) {
	return readLocals(r, ctx, false)
}

func parseLocalVariableTypeTable(r *byteio.Reader, ctx *Context) (Attribute, error) {
	return readLocals(r, ctx, true)
}

func readLocals(r *byteio.Reader, ctx *Context, types bool) (Attribute, error) {
	n := int(r.U16())
	a := &LocalVariableTable{Types: types}
	for i := 0; i < n && r.Err() == nil; i++ {
		v := LocalVariable{Start: r.U16(), Length: r.U16()}
		var err error
		if v.Name, err = ctx.Pool.Utf8(r.U16()); err != nil {
			return nil, err
		}
		if v.Descriptor, err = ctx.Pool.Utf8(r.U16()); err != nil {
			return nil, err
		}
		v.Slot = r.U16()
		a.Vars = append(a.Vars, v)
	}
	return a, nil
}

// Parameter is one entry of MethodParameters. Name is empty for a
// parameter without a recorded name.
type Parameter struct {
	Name  string
	Flags uint16
}

// MethodParameters records parameter names and flags.
type MethodParameters struct {
	Params []Parameter
}

func (*MethodParameters) Name() string { return "MethodParameters" }

func (a *MethodParameters) Encode(w *byteio.Writer, pool *cpool.Pool) error {
	if len(a.Params) > 0xFF {
		return errors.New(errors.E3008, "too many method parameters (%d)", len(a.Params))
	}
	w.U8(uint8(len(a.Params)))
	for _, p := range a.Params {
		if err := putOptionalUtf8(w, pool, p.Name); err != nil {
			return err
		}
		w.U16(p.Flags)
	}
	return nil
}

func parseMethodParameters(r *byteio.Reader, ctx *Context) (Attribute, error) {
	n := int(r.U8())
	a := &MethodParameters{}
	for i := 0; i < n && r.Err() == nil; i++ {
		name, err := optionalUtf8(ctx.Pool, r.U16())
		if err != nil {
			return nil, err
		}
		a.Params = append(a.Params, Parameter{Name: name, Flags: r.U16()})
	}
	return a, nil
}

// Deprecated marks a deprecated class or member.
type Deprecated struct{}

func (*Deprecated) Name() string { return "Deprecated" }

func (*Deprecated) Encode(*byteio.Writer, *cpool.Pool) error { return nil }

func parseDeprecated(*byteio.Reader, *Context) (Attribute, error) {
	return &Deprecated{}, nil
}

// Synthetic marks a compiler-generated class or member.
type Synthetic struct{}

func (*Synthetic) Name() string { return "Synthetic" }

func (*Synthetic) Encode(*byteio.Writer, *cpool.Pool) error { return nil }

func parseSynthetic(*byteio.Reader, *Context) (Attribute, error) {
	return &Synthetic{}, nil
}

// Raw is an attribute this package does not interpret.
type Raw struct {
	AttrName string
	Data     []byte
}

func (a *Raw) Name() string { return a.AttrName }

func (a *Raw) Encode(w *byteio.Writer, _ *cpool.Pool) error {
	w.Write(a.Data)
	return nil
}

func putUtf8(w *byteio.Writer, pool *cpool.Pool, s string) error {
	index, err := pool.PutUtf8(s)
	if err != nil {
		return err
	}
	w.U16(index)
	return nil
}

func putOptionalUtf8(w *byteio.Writer, pool *cpool.Pool, s string) error {
	if s == "" {
		w.U16(0)
		return nil
	}
	return putUtf8(w, pool, s)
}

func putClass(w *byteio.Writer, pool *cpool.Pool, t descriptor.Type) error {
	index, err := pool.PutClass(t)
	if err != nil {
		return err
	}
	w.U16(index)
	return nil
}

func putOptionalClass(w *byteio.Writer, pool *cpool.Pool, t descriptor.Type) error {
	if t.IsZero() {
		w.U16(0)
		return nil
	}
	return putClass(w, pool, t)
}

func optionalUtf8(pool *cpool.Pool, index uint16) (string, error) {
	if index == 0 {
		return "", nil
	}
	return pool.Utf8(index)
}

func optionalClass(pool *cpool.Pool, index uint16) (descriptor.Type, error) {
	if index == 0 {
		return descriptor.Type{}, nil
	}
	return pool.ClassType(index)
}
