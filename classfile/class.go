// Package classfile reads and writes JVM class files.
//
// A Class is built either by parsing class-file bytes or programmatically
// with New, AddField and AddMethod. Writing a class always produces version
// 52.0 with a freshly built constant pool.
package classfile

import (
	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/bytecode"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

const (
	magic = 0xCAFEBABE

	// Versions this package accepts and writes.
	minMajor   = 45
	writeMajor = 52
	writeMinor = 0
)

// Version is a class-file version.
type Version struct {
	Major uint16
	Minor uint16
}

// Field is a field_info record.
type Field struct {
	Flags     AccessFlags
	Name      string
	Type      descriptor.Type
	Signature string
	// Constant is the ConstantValue of a static final field: an int32,
	// int64, float32, float64 or string. Nil when absent.
	Constant any
	// Attributes holds the attributes not modeled above.
	Attributes attr.Set
}

// Method is a method_info record.
type Method struct {
	Flags      AccessFlags
	Name       string
	Descriptor descriptor.Method
	Signature  string
	Exceptions []descriptor.Type
	Parameters []attr.Parameter
	// Code is nil for abstract and native methods.
	Code *bytecode.Code
	// Attributes holds the attributes not modeled above.
	Attributes attr.Set

	owner descriptor.Type
}

// Static reports whether the method has no receiver.
func (m *Method) Static() bool {
	return m.Flags.Has(AccStatic)
}

// InitialFrame returns the verifier frame on entry to the method.
func (m *Method) InitialFrame() stackmap.Frame {
	return stackmap.InitialFrame(m.owner, m.Name, m.Descriptor, m.Static())
}

// NewCode gives the method an empty body whose stack-map state starts at the
// method's entry frame.
func (m *Method) NewCode() *bytecode.Code {
	c := bytecode.NewCode()
	c.Frames = stackmap.New(m.InitialFrame())
	m.Code = c
	return c
}

// Class is a parsed or constructed class file.
type Class struct {
	// Version is the version the class was read with. Writing always
	// produces 52.0.
	Version    Version
	Flags      AccessFlags
	Name       descriptor.Type
	Super      descriptor.Type
	Interfaces []descriptor.Type
	Fields     []*Field
	Methods    []*Method
	SourceFile string
	Signature  string
	// Nesting holds this class's own InnerClasses record at index 0, or nil
	// when the class is top level, followed by the records of its direct
	// nested classes.
	Nesting []*attr.InnerClass
	// InnerRefs holds the remaining InnerClasses records, which describe
	// nested classes this class merely refers to.
	InnerRefs []attr.InnerClass
	Enclosing *attr.EnclosingMethod
	// Attributes holds the class attributes not modeled above.
	Attributes attr.Set
}

// New returns an empty class. A zero super is only valid for
// java.lang.Object.
func New(name, super descriptor.Type, flags AccessFlags) *Class {
	return &Class{
		Version: Version{Major: writeMajor, Minor: writeMinor},
		Flags:   flags,
		Name:    name,
		Super:   super,
		Nesting: []*attr.InnerClass{nil},
	}
}

// AddField appends a field.
func (c *Class) AddField(flags AccessFlags, name string, t descriptor.Type) *Field {
	f := &Field{Flags: flags, Name: name, Type: t}
	c.Fields = append(c.Fields, f)
	return f
}

// AddMethod appends a method without a body.
func (c *Class) AddMethod(flags AccessFlags, name string, m descriptor.Method) *Method {
	method := &Method{Flags: flags, Name: name, Descriptor: m, owner: c.Name}
	c.Methods = append(c.Methods, method)
	return method
}

// Field returns the first field with the given name.
func (c *Class) Field(name string) (*Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Method returns the first method with the given name.
func (c *Class) Method(name string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Outer returns the class this class is nested in, if any.
func (c *Class) Outer() (descriptor.Type, bool) {
	if len(c.Nesting) > 0 && c.Nesting[0] != nil && !c.Nesting[0].Outer.IsZero() {
		return c.Nesting[0].Outer, true
	}
	if c.Enclosing != nil {
		return c.Enclosing.Class, true
	}
	return descriptor.Type{}, false
}

// AddNested records a class nested directly in this one.
func (c *Class) AddNested(inner attr.InnerClass) {
	if len(c.Nesting) == 0 {
		c.Nesting = []*attr.InnerClass{nil}
	}
	inner.Outer = c.Name
	c.Nesting = append(c.Nesting, &inner)
}

// innerClasses flattens the nesting records back into InnerClasses rows.
func (c *Class) innerClasses() []attr.InnerClass {
	var rows []attr.InnerClass
	for _, n := range c.Nesting {
		if n != nil {
			rows = append(rows, *n)
		}
	}
	return append(rows, c.InnerRefs...)
}

// stitch splits InnerClasses rows into the class's own record, its direct
// children and the remaining references.
func (c *Class) stitch(rows []attr.InnerClass) {
	c.Nesting = []*attr.InnerClass{nil}
	for i := range rows {
		row := rows[i]
		switch {
		case row.Inner == c.Name && c.Nesting[0] == nil:
			c.Nesting[0] = &row
		case row.Outer == c.Name:
			c.Nesting = append(c.Nesting, &row)
		default:
			c.InnerRefs = append(c.InnerRefs, row)
		}
	}
}
