// Package attr reads and writes class-file attributes. Known attribute names
// are decoded into structured values through a registry; any other
// attribute is kept as an opaque Raw blob so it survives a round trip.
package attr

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
)

// Attribute is one named attribute.
type Attribute interface {
	// Name returns the attribute name written to the constant pool.
	Name() string
	// Encode writes the attribute payload, without name or length.
	Encode(w *byteio.Writer, pool *cpool.Pool) error
}

// Context carries what attribute parsers need.
type Context struct {
	Pool   *cpool.Pool
	Logger zerolog.Logger
}

type parser func(r *byteio.Reader, ctx *Context) (Attribute, error)

var registry map[string]parser

func init() {
	registry = map[string]parser{
		"SourceFile":             parseSourceFile,
		"Signature":              parseSignature,
		"Exceptions":             parseExceptions,
		"InnerClasses":           parseInnerClasses,
		"EnclosingMethod":        parseEnclosingMethod,
		"ConstantValue":          parseConstantValue,
		"Code":                   parseCode,
		"BootstrapMethods":       parseBootstrapMethods,
		"StackMapTable":          parseStackMapTable,
		"LineNumberTable":        parseLineNumberTable,
		"LocalVariableTable":     parseLocalVariableTable,
		"LocalVariableTypeTable": parseLocalVariableTypeTable,
		"MethodParameters":       parseMethodParameters,
		"Deprecated":             parseDeprecated,
		"Synthetic":              parseSynthetic,
	}
}

// Known reports whether name is decoded into a structured attribute.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// Set is an ordered list of attributes.
type Set []Attribute

// ReadSet reads a u2 count followed by that many attributes.
func ReadSet(r *byteio.Reader, ctx *Context) (Set, error) {
	count := int(r.U16())
	if r.Err() != nil {
		return nil, r.Err()
	}
	set := make(Set, 0, count)
	for i := 0; i < count; i++ {
		name, err := ctx.Pool.Utf8(r.U16())
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %d name", i)
		}
		length := int(r.U32())
		sub := r.Sub(length)
		if r.Err() != nil {
			return nil, r.Err()
		}
		parse, ok := registry[name]
		if !ok {
			ctx.Logger.Warn().
				Str("attribute", name).
				Int("length", length).
				Msg("unknown attribute kept as raw bytes")
			set = append(set, &Raw{AttrName: name, Data: append([]byte(nil), sub.Bytes(length)...)})
			continue
		}
		a, err := parse(sub, ctx)
		if sub.Err() != nil {
			return nil, errors.New(errors.E1006, "malformed attribute '%s': content overruns its length %d", name, length).
				WithCause(sub.Err())
		}
		if err != nil {
			return nil, errors.Wrapf(err, "attribute '%s'", name)
		}
		if !sub.Done() {
			return nil, errors.New(errors.E1006, "malformed attribute '%s': %d of %d bytes unread", name, sub.Remaining(), length)
		}
		set = append(set, a)
	}
	return set, nil
}

// Write writes the u2 count and every attribute, each length-prefixed.
func (s Set) Write(w *byteio.Writer, pool *cpool.Pool) error {
	w.U16(uint16(len(s)))
	for _, a := range s {
		name, err := pool.PutUtf8(a.Name())
		if err != nil {
			return err
		}
		w.U16(name)
		w.Fork()
		if err := a.Encode(w, pool); err != nil {
			return errors.Wrapf(err, "attribute '%s'", a.Name())
		}
		w.Join()
	}
	return nil
}

// Without returns the attributes whose name is not one of names.
func (s Set) Without(names ...string) Set {
	var out Set
outer:
	for _, a := range s {
		for _, n := range names {
			if a.Name() == n {
				continue outer
			}
		}
		out = append(out, a)
	}
	return out
}

// Get returns the first attribute of type T.
func Get[T Attribute](s Set) (T, bool) {
	for _, a := range s {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// GetAll returns every attribute of type T in order.
func GetAll[T Attribute](s Set) []T {
	var out []T
	for _, a := range s {
		if t, ok := a.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
