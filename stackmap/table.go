package stackmap

import (
	"sort"

	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
)

// Frame types of the StackMapTable encoding.
const (
	sameMax        = 63
	sameLocals1Min = 64
	sameLocals1Max = 127
	sameLocals1Ext = 247
	chopMin        = 248
	sameExt        = 251
	appendMax      = 254
	fullFrame      = 255
)

// Entry is one StackMapTable frame in wire form. Locals holds the appended
// locals of an append frame or all locals of a full frame, one entry per
// value. Uninitialized types carry a byte offset in Label.
type Entry struct {
	Type   uint8
	Delta  int
	Locals []Type
	Stack  []Type
}

// KindName returns the name of the frame encoding.
func (e Entry) KindName() string {
	switch {
	case e.Type <= sameMax:
		return "same"
	case e.Type <= sameLocals1Max:
		return "same_locals_1_stack_item"
	case e.Type == sameLocals1Ext:
		return "same_locals_1_stack_item_extended"
	case e.Type >= chopMin && e.Type < sameExt:
		return "chop"
	case e.Type == sameExt:
		return "same_extended"
	case e.Type > sameExt && e.Type <= appendMax:
		return "append"
	case e.Type == fullFrame:
		return "full"
	}
	return "reserved"
}

// Encode converts the branch-target frames to StackMapTable entries ordered
// by byte offset. resolve maps a label to its final offset. A frame must be
// recorded for offset 0; it is the implicit frame the first entry is
// relative to.
func (s *State) Encode(resolve func(label int) (int, bool)) ([]Entry, error) {
	type placed struct {
		offset int
		frame  *Frame
	}
	var initial *Frame
	var targets []placed
	for _, f := range s.frames {
		offset, ok := resolve(f.Label)
		if !ok {
			return nil, errors.New(errors.E3002, "stack frame at undefined label %d", f.Label)
		}
		if offset == 0 && (initial == nil || f.Label < initial.Label) {
			initial = f
		}
		if f.Branch {
			targets = append(targets, placed{offset: offset, frame: f})
		}
	}
	if initial == nil {
		return nil, errors.New(errors.E4003, "missing stack frame for offset 0")
	}
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].offset != targets[j].offset {
			return targets[i].offset < targets[j].offset
		}
		return targets[i].frame.Label < targets[j].frame.Label
	})

	wire := func(types []Type) ([]Type, error) {
		out := make([]Type, len(types))
		for i, t := range types {
			if t.Kind == Uninitialized {
				offset, ok := resolve(t.Label)
				if !ok {
					return nil, errors.New(errors.E3002, "uninitialized type refers to undefined label %d", t.Label)
				}
				t.Label = offset
			}
			out[i] = t
		}
		return out, nil
	}

	prev, err := wire(compress(initial.Locals))
	if err != nil {
		return nil, err
	}
	var entries []Entry
	last := -1
	for _, p := range targets {
		if p.offset == last {
			continue
		}
		delta := p.offset
		if last >= 0 {
			delta = p.offset - last - 1
		}
		if delta > 0xFFFF {
			return nil, errors.New(errors.E3008, "stack frame offset delta %d too large", delta)
		}
		last = p.offset

		locals, err := wire(compress(p.frame.Locals))
		if err != nil {
			return nil, err
		}
		stack, err := wire(p.frame.Stack)
		if err != nil {
			return nil, err
		}
		entries = append(entries, choose(delta, prev, locals, stack))
		prev = locals
	}
	return entries, nil
}

// choose picks the most compact encoding of a frame given the previous
// frame's locals.
func choose(delta int, prev, locals, stack []Type) Entry {
	e := Entry{Delta: delta}
	sameLocals := equal(prev, locals)
	switch {
	case len(stack) == 0 && sameLocals:
		if delta <= sameMax {
			e.Type = uint8(delta)
		} else {
			e.Type = sameExt
		}
	case len(stack) == 1 && sameLocals:
		e.Stack = stack
		if delta <= sameLocals1Max-sameLocals1Min {
			e.Type = uint8(sameLocals1Min + delta)
		} else {
			e.Type = sameLocals1Ext
		}
	case len(stack) == 0 && len(locals) < len(prev) && len(prev)-len(locals) <= 3 && equal(prev[:len(locals)], locals):
		e.Type = uint8(sameExt - (len(prev) - len(locals)))
	case len(stack) == 0 && len(locals) > len(prev) && len(locals)-len(prev) <= 3 && equal(locals[:len(prev)], prev):
		e.Type = uint8(sameExt + (len(locals) - len(prev)))
		e.Locals = locals[len(prev):]
	default:
		e.Type = fullFrame
		e.Locals = locals
		e.Stack = stack
	}
	return e
}

// Expand replays StackMapTable entries against the method's initial frame
// and returns a state holding one branch-flagged frame per entry, labeled by
// byte offset. The result is not live.
func Expand(initial Frame, entries []Entry) (*State, error) {
	s := &State{frames: map[int]*Frame{}}
	first := initial.Clone()
	first.Label = 0
	s.frames[0] = first
	s.locals = clone(first.Locals)
	s.maxLocals = len(s.locals)

	prev := compress(first.Locals)
	offset := -1
	for i, e := range entries {
		offset += e.Delta + 1
		var locals, stack []Type
		switch {
		case e.Type <= sameMax || e.Type == sameExt:
			locals = prev
		case e.Type <= sameLocals1Max || e.Type == sameLocals1Ext:
			if len(e.Stack) != 1 {
				return nil, errors.New(errors.E1009, "stack map frame %d: expected one stack item", i)
			}
			locals, stack = prev, e.Stack
		case e.Type >= chopMin && e.Type < sameExt:
			k := sameExt - int(e.Type)
			if k > len(prev) {
				return nil, errors.New(errors.E1009, "stack map frame %d: cannot chop %d of %d locals", i, k, len(prev))
			}
			locals = prev[:len(prev)-k]
		case e.Type > sameExt && e.Type <= appendMax:
			if len(e.Locals) != int(e.Type)-sameExt {
				return nil, errors.New(errors.E1009, "stack map frame %d: append frame has %d locals", i, len(e.Locals))
			}
			locals = append(clone(prev), e.Locals...)
		case e.Type == fullFrame:
			locals, stack = e.Locals, e.Stack
		default:
			return nil, errors.New(errors.E1009, "stack map frame %d: reserved frame type %d", i, e.Type)
		}
		f := &Frame{Label: offset, Locals: expand(locals), Stack: clone(stack), Branch: true}
		s.frames[offset] = f
		if n := len(f.Locals); n > s.maxLocals {
			s.maxLocals = n
		}
		if d := depthOf(f.Stack); d > s.maxDepth {
			s.maxDepth = d
		}
		prev = clone(locals)
	}
	return s, nil
}

// ReadTable decodes the body of a StackMapTable attribute.
func ReadTable(r *byteio.Reader, pool *cpool.Pool) ([]Entry, error) {
	n := int(r.U16())
	entries := make([]Entry, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		e := Entry{Type: r.U8()}
		var err error
		switch {
		case e.Type <= sameMax:
			e.Delta = int(e.Type)
		case e.Type <= sameLocals1Max:
			e.Delta = int(e.Type) - sameLocals1Min
			e.Stack, err = readTypes(r, pool, 1)
		case e.Type == sameLocals1Ext:
			e.Delta = int(r.U16())
			e.Stack, err = readTypes(r, pool, 1)
		case e.Type >= chopMin && e.Type <= sameExt:
			e.Delta = int(r.U16())
		case e.Type > sameExt && e.Type <= appendMax:
			e.Delta = int(r.U16())
			e.Locals, err = readTypes(r, pool, int(e.Type)-sameExt)
		case e.Type == fullFrame:
			e.Delta = int(r.U16())
			e.Locals, err = readTypes(r, pool, int(r.U16()))
			if err == nil {
				e.Stack, err = readTypes(r, pool, int(r.U16()))
			}
		default:
			return nil, errors.New(errors.E1009, "stack map frame %d: reserved frame type %d", i, e.Type)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "stack map frame %d", i)
		}
		entries = append(entries, e)
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return entries, nil
}

func readTypes(r *byteio.Reader, pool *cpool.Pool, n int) ([]Type, error) {
	types := make([]Type, 0, n)
	for i := 0; i < n; i++ {
		t := Type{Kind: Kind(r.U8())}
		switch t.Kind {
		case Top, Int, Float, Double, Long, Null, UninitializedThis:
		case Object:
			ref, err := pool.ClassType(r.U16())
			if err != nil {
				if r.Err() != nil {
					return nil, r.Err()
				}
				return nil, err
			}
			t.Ref = ref
		case Uninitialized:
			t.Label = int(r.U16())
		default:
			if r.Err() != nil {
				return nil, r.Err()
			}
			return nil, errors.New(errors.E1009, "invalid verification type tag %d", uint8(t.Kind))
		}
		types = append(types, t)
	}
	return types, r.Err()
}

// WriteTable encodes the body of a StackMapTable attribute.
func WriteTable(w *byteio.Writer, pool *cpool.Pool, entries []Entry) error {
	w.U16(uint16(len(entries)))
	for _, e := range entries {
		w.U8(e.Type)
		switch {
		case e.Type <= sameMax:
		case e.Type <= sameLocals1Max:
			if err := writeTypes(w, pool, e.Stack); err != nil {
				return err
			}
		case e.Type == sameLocals1Ext:
			w.U16(uint16(e.Delta))
			if err := writeTypes(w, pool, e.Stack); err != nil {
				return err
			}
		case e.Type >= chopMin && e.Type <= sameExt:
			w.U16(uint16(e.Delta))
		case e.Type > sameExt && e.Type <= appendMax:
			w.U16(uint16(e.Delta))
			if err := writeTypes(w, pool, e.Locals); err != nil {
				return err
			}
		case e.Type == fullFrame:
			w.U16(uint16(e.Delta))
			w.U16(uint16(len(e.Locals)))
			if err := writeTypes(w, pool, e.Locals); err != nil {
				return err
			}
			w.U16(uint16(len(e.Stack)))
			if err := writeTypes(w, pool, e.Stack); err != nil {
				return err
			}
		default:
			return errors.New(errors.E1009, "reserved frame type %d", e.Type)
		}
	}
	return nil
}

func writeTypes(w *byteio.Writer, pool *cpool.Pool, types []Type) error {
	for _, t := range types {
		w.U8(uint8(t.Kind))
		switch t.Kind {
		case Object:
			index, err := pool.PutClass(t.Ref)
			if err != nil {
				return err
			}
			w.U16(index)
		case Uninitialized:
			w.U16(uint16(t.Label))
		}
	}
	return nil
}
