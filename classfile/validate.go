package classfile

import (
	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
)

// validateEnum checks that an enum extends java.lang.Enum, or its enclosing
// class in the case of an enum constant with a body.
func (c *Class) validateEnum() error {
	if !c.Flags.Has(AccEnum) || c.Super == descriptor.TypeEnum {
		return nil
	}
	if outer, ok := c.Outer(); ok && c.Super == outer {
		return nil
	}
	return errors.New(errors.E3006, "bad super class for enum %s: %s", c.Name, c.Super)
}

// Validate checks the class for problems that would make it unwritable or
// unloadable. Every problem found is reported.
func (c *Class) Validate() error {
	var result *multierror.Error
	if c.Name.IsZero() || c.Name.IsArray() || !c.Name.IsReference() {
		result = multierror.Append(result, errors.New(errors.E3005, "class name %q is not a class type", c.Name.Descriptor()))
	}
	if c.Super.IsZero() && c.Name != descriptor.TypeObject {
		result = multierror.Append(result, errors.New(errors.E2001, "class %s has no super class", c.Name))
	}
	if err := c.validateEnum(); err != nil {
		result = multierror.Append(result, err)
	}

	fields := map[string]bool{}
	for _, f := range c.Fields {
		key := f.Name + ":" + f.Type.Descriptor()
		if fields[key] {
			result = multierror.Append(result, errors.New(errors.E3005, "duplicate field %s", f.Name))
		}
		fields[key] = true
		if err := checkConstant(f); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "field '%s'", f.Name))
		}
	}

	methods := map[string]bool{}
	for _, m := range c.Methods {
		key := m.Name + m.Descriptor.Descriptor()
		if methods[key] {
			result = multierror.Append(result, errors.New(errors.E3005, "duplicate method %s%s", m.Name, m.Descriptor.Descriptor()))
		}
		methods[key] = true
		bodyless := m.Flags.Has(AccAbstract) || m.Flags.Has(AccNative)
		switch {
		case bodyless && m.Code != nil:
			result = multierror.Append(result, errors.New(errors.E3001, "method '%s' is abstract or native but has code", m.Name))
		case !bodyless && m.Code == nil:
			result = multierror.Append(result, errors.New(errors.E3001, "method '%s' has no code", m.Name))
		}
	}
	return result.ErrorOrNil()
}

// checkConstant verifies that a field's ConstantValue matches its type.
func checkConstant(f *Field) error {
	if f.Constant == nil {
		return nil
	}
	ok := false
	t := f.Type
	switch f.Constant.(type) {
	case int32:
		ok = t.IsIntLike()
	case int64:
		ok = t == descriptor.TypeLong
	case float32:
		ok = t == descriptor.TypeFloat
	case float64:
		ok = t == descriptor.TypeDouble
	case string:
		ok = t == descriptor.TypeString
	}
	if !ok {
		return errors.New(errors.E3005, "invalid constant value %v (%T) for field of type %s", f.Constant, f.Constant, t)
	}
	return nil
}
