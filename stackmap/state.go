package stackmap

import (
	"sort"

	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
)

// Frame is the verifier state at one label. Locals are in slot form: a long
// or double is followed by a top slot. Stack holds one entry per value.
type Frame struct {
	Label  int
	Locals []Type
	Stack  []Type
	// Branch marks frames at branch or merge targets. Only those are
	// written to the StackMapTable.
	Branch bool
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	return &Frame{Label: f.Label, Locals: clone(f.Locals), Stack: clone(f.Stack), Branch: f.Branch}
}

// InitialFrame returns the frame on entry to a method. Constructors other
// than Object's start with an uninitialized receiver.
func InitialFrame(this descriptor.Type, name string, m descriptor.Method, static bool) Frame {
	var locals []Type
	if !static {
		if name == "<init>" && this != descriptor.TypeObject {
			locals = append(locals, ThisType)
		} else {
			locals = append(locals, ObjectOf(this))
		}
	}
	for _, p := range m.Params {
		t := Of(p)
		locals = append(locals, t)
		if t.Category() == 2 {
			locals = append(locals, TopType)
		}
	}
	return Frame{Label: 0, Locals: locals}
}

// State is the stack-map engine for one method body: the current frame
// being computed, the running stack depth, and every frame recorded so far
// keyed by label.
type State struct {
	locals    []Type
	stack     []Type
	depth     int
	maxDepth  int
	maxLocals int
	frames    map[int]*Frame
	live      bool
}

// New starts tracking a method body whose entry frame is initial. The entry
// frame is recorded at its label.
func New(initial Frame) *State {
	s := &State{
		locals: clone(initial.Locals),
		stack:  clone(initial.Stack),
		frames: map[int]*Frame{},
		live:   true,
	}
	s.depth = depthOf(s.stack)
	s.maxDepth = s.depth
	s.maxLocals = len(s.locals)
	s.frames[initial.Label] = initial.Clone()
	return s
}

// Live reports whether the state tracks instructions as they are built.
// States reconstructed from a StackMapTable are not live.
func (s *State) Live() bool {
	return s.live
}

// Locals returns a copy of the current locals in slot form.
func (s *State) Locals() []Type {
	return clone(s.locals)
}

// Stack returns a copy of the current operand stack.
func (s *State) Stack() []Type {
	return clone(s.stack)
}

// Depth returns the current stack depth in slots.
func (s *State) Depth() int {
	return s.depth
}

// MaxDepth returns the largest stack depth seen so far.
func (s *State) MaxDepth() int {
	return s.maxDepth
}

// MaxLocals returns the number of local slots used so far.
func (s *State) MaxLocals() int {
	return s.maxLocals
}

// Frame returns the frame recorded at label.
func (s *State) Frame(label int) (*Frame, bool) {
	f, ok := s.frames[label]
	return f, ok
}

// Frames returns the recorded frames ordered by label.
func (s *State) Frames() []*Frame {
	out := make([]*Frame, 0, len(s.frames))
	for _, f := range s.frames {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// SaveFrame records the current frame at label. If a frame already exists
// there the two are merged, the current frame takes the merged state, and
// the local slots that had to be reset to top are returned. Callers
// propagate those resets with ResetLocalsInFrame or SetLocalInAllFrames.
func (s *State) SaveFrame(label int, branch bool) ([]int, error) {
	if f, ok := s.frames[label]; ok {
		resets, err := s.MergeFrame(f, branch)
		if err != nil {
			return nil, err
		}
		s.locals = clone(f.Locals)
		s.stack = clone(f.Stack)
		s.depth = depthOf(s.stack)
		return resets, nil
	}
	s.frames[label] = &Frame{
		Label:  label,
		Locals: clone(trim(s.locals)),
		Stack:  clone(s.stack),
		Branch: branch,
	}
	return nil, nil
}

// MergeFrame merges the current frame into f. Slots holding top on one path
// and a value on the other become top and are reported. Object types are
// reconciled, widening unrelated references to java.lang.Object only when f
// is a branch target. Any other difference is a conflict.
func (s *State) MergeFrame(f *Frame, branch bool) ([]int, error) {
	f.Branch = f.Branch || branch
	if len(f.Stack) != len(s.stack) {
		return nil, errors.New(errors.E4001, "conflicting stack frames at label %d: stack has %d values on one path and %d on another",
			f.Label, len(f.Stack), len(s.stack))
	}
	stack := make([]Type, len(f.Stack))
	for i := range f.Stack {
		t, ok := merge(f.Stack[i], s.stack[i], f.Branch)
		if !ok {
			return nil, errors.New(errors.E4001, "conflicting stack frames at label %d: stack slot %d is %s on one path and %s on another",
				f.Label, i, f.Stack[i], s.stack[i])
		}
		stack[i] = t
	}

	n := len(f.Locals)
	if len(s.locals) > n {
		n = len(s.locals)
	}
	locals := make([]Type, n)
	var resets []int
	for i := 0; i < n; i++ {
		a, b := at(f.Locals, i), at(s.locals, i)
		if a == b {
			locals[i] = a
			continue
		}
		if a.Kind == Top || b.Kind == Top {
			locals[i] = TopType
			resets = append(resets, i)
			continue
		}
		t, ok := merge(a, b, f.Branch)
		if !ok {
			return nil, errors.New(errors.E4001, "conflicting stack frames at label %d: local %d is %s on one path and %s on another",
				f.Label, i, a, b)
		}
		locals[i] = t
	}
	// A reset first half leaves a dangling second half that is top already.
	f.Locals = trim(locals)
	f.Stack = stack
	return resets, nil
}

func at(types []Type, i int) Type {
	if i < len(types) {
		return types[i]
	}
	return TopType
}

// ResetLocalsInFrame sets the given slots of the frame at label to top.
func (s *State) ResetLocalsInFrame(label int, slots []int) {
	f, ok := s.frames[label]
	if !ok {
		return
	}
	for _, slot := range slots {
		if slot < len(f.Locals) {
			f.Locals[slot] = TopType
		}
	}
	f.Locals = trim(f.Locals)
}

// SetLocalInAllFrames sets a slot in the current frame and in every
// recorded frame.
func (s *State) SetLocalInAllFrames(slot int, t Type) {
	s.locals = setLocal(s.locals, slot, t)
	for _, f := range s.frames {
		if t.Kind == Top && slot >= len(f.Locals) {
			continue
		}
		f.Locals = trim(setLocal(f.Locals, slot, t))
	}
}

// LoadFrame makes the frame at label current. The operand stack is
// restored only when withStack is set; otherwise it is emptied.
func (s *State) LoadFrame(label int, withStack bool) error {
	f, ok := s.frames[label]
	if !ok {
		return errors.New(errors.E4003, "no stack frame recorded at label %d", label)
	}
	s.locals = clone(f.Locals)
	if withStack {
		s.stack = clone(f.Stack)
	} else {
		s.stack = nil
	}
	s.depth = depthOf(s.stack)
	return nil
}

// GetLocal returns the type held in a local slot.
func (s *State) GetLocal(slot int) (Type, error) {
	if slot < 0 || slot >= len(s.locals) || s.locals[slot].Kind == Top {
		return Type{}, errors.New(errors.E4005, "local %d is not initialized", slot)
	}
	return s.locals[slot], nil
}

// SetLocal stores a value of type t in a local slot.
func (s *State) SetLocal(slot int, t Type) error {
	if slot < 0 || slot+t.Category() > 0xFFFF {
		return errors.New(errors.E4005, "local %d is out of range", slot)
	}
	s.locals = setLocal(s.locals, slot, t)
	if len(s.locals) > s.maxLocals {
		s.maxLocals = len(s.locals)
	}
	return nil
}

func setLocal(locals []Type, slot int, t Type) []Type {
	for len(locals) < slot+t.Category() {
		locals = append(locals, TopType)
	}
	// Overwriting the second half of a long or double invalidates it.
	if slot > 0 && locals[slot-1].Category() == 2 {
		locals[slot-1] = TopType
	}
	locals[slot] = t
	if t.Category() == 2 {
		locals[slot+1] = TopType
	}
	return locals
}

// PushStack pushes a value.
func (s *State) PushStack(t Type) {
	s.stack = append(s.stack, t)
	s.depth += t.Category()
	if s.depth > s.maxDepth {
		s.maxDepth = s.depth
	}
}

// PopStack pops a value.
func (s *State) PopStack() (Type, error) {
	if len(s.stack) == 0 {
		return Type{}, errors.New(errors.E4002, "operand stack underflow")
	}
	t := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.depth -= t.Category()
	return t, nil
}

// PopStackN pops n values.
func (s *State) PopStackN(n int) error {
	for i := 0; i < n; i++ {
		if _, err := s.PopStack(); err != nil {
			return err
		}
	}
	return nil
}

// Finish returns the method's max stack. The operand stack must be empty.
func (s *State) Finish() (int, error) {
	if len(s.stack) != 0 {
		return 0, errors.New(errors.E4004, "operand stack not empty at end of method (%d values)", len(s.stack))
	}
	return s.maxDepth, nil
}
