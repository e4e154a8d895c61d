package bytecode

import (
	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/op"
	"github.com/deepnoodle-ai/javabinary/stackmap"
)

// ExceptionEntry is one exception-table row. Start is inclusive, End
// exclusive. CatchType is zero for a handler that catches everything.
type ExceptionEntry struct {
	Start     int
	End       int
	Handler   int
	CatchType descriptor.Type
}

// LocalVariable is one row of the LocalVariableTable, or of the
// LocalVariableTypeTable when Generic is set.
type LocalVariable struct {
	Start      int
	End        int
	Name       string
	Descriptor string
	Slot       int
	Generic    bool
}

// Code is an editable method body.
type Code struct {
	MaxStack     int
	MaxLocals    int
	Instructions []*Instruction
	Exceptions   []ExceptionEntry
	Locals       []LocalVariable
	// Frames records stack-map frames by label. It may be nil, in which
	// case no StackMapTable is written.
	Frames *stackmap.State
	// Attributes holds nested attributes other than the line, local
	// variable and stack map tables, which are rebuilt on encode.
	Attributes attr.Set

	nextLabel int
	line      int
	pending   []int
	ends      []int
	aliases   map[int]int
}

// NewCode returns an empty body. The first appended instruction is label 0.
func NewCode() *Code {
	return &Code{nextLabel: 1, pending: []int{0}, aliases: map[int]int{}}
}

// NewLabel allocates a label that is not yet attached to an instruction.
func (c *Code) NewLabel() int {
	l := c.nextLabel
	c.nextLabel++
	return l
}

// Mark attaches label to the next appended instruction. Labels still
// pending when the body is encoded mark the end of the code.
func (c *Code) Mark(label int) {
	c.pending = append(c.pending, label)
}

// SetLine sets the source line recorded on subsequently appended
// instructions.
func (c *Code) SetLine(line int) {
	c.line = line
}

// Append adds ins at the end of the body and assigns its label.
func (c *Code) Append(ins *Instruction) *Instruction {
	if len(c.pending) > 0 {
		ins.Label = c.pending[0]
		for _, l := range c.pending[1:] {
			c.aliases[l] = ins.Label
		}
		c.pending = c.pending[:0]
	} else {
		ins.Label = c.NewLabel()
	}
	if ins.Line == 0 {
		ins.Line = c.line
	}
	c.Instructions = append(c.Instructions, ins)
	return ins
}

// Op appends an instruction with no operand.
func (c *Code) Op(code op.Code) *Instruction {
	return c.Append(&Instruction{Op: code})
}

// Load appends the load of a local of type t.
func (c *Code) Load(t descriptor.Type, slot int) *Instruction {
	return c.Append(&Instruction{Op: t.LoadOp(), Local: slot})
}

// Store appends the store of a local of type t.
func (c *Code) Store(t descriptor.Type, slot int) *Instruction {
	return c.Append(&Instruction{Op: t.StoreOp(), Local: slot})
}

// Iinc appends an increment of an int local.
func (c *Code) Iinc(slot, inc int) *Instruction {
	return c.Append(&Instruction{Op: op.Iinc, Local: slot, Inc: inc})
}

// Const appends the load of a constant. The shortest encoding for the
// value is chosen on lowering.
func (c *Code) Const(v any) *Instruction {
	return c.Append(&Instruction{Op: op.Ldc, Value: v})
}

// Jump appends a branch to label.
func (c *Code) Jump(code op.Code, label int) *Instruction {
	return c.Append(&Instruction{Op: code, Jump: &Jump{Label: label}})
}

// TableSwitch appends a tableswitch matching low, low+1, ... in order.
func (c *Code) TableSwitch(def int, low int32, targets ...int) *Instruction {
	return c.Append(&Instruction{Op: op.Tableswitch, Switch: &Switch{Default: def, Low: low, Targets: targets}})
}

// Member appends a field access or invocation.
func (c *Code) Member(code op.Code, ref cpool.MemberRef) *Instruction {
	return c.Append(&Instruction{Op: code, Value: ref})
}

// Type appends new, checkcast, instanceof or anewarray of t.
func (c *Code) Type(code op.Code, t descriptor.Type) *Instruction {
	return c.Append(&Instruction{Op: code, Value: t})
}

// NewArray appends the allocation of an array of type t, taking one length
// per dimension from the stack.
func (c *Code) NewArray(t descriptor.Type) *Instruction {
	code, imm := t.NewArray()
	ins := &Instruction{Op: code, Imm: int(imm)}
	switch code {
	case op.Anewarray:
		ins.Value = t.Elem()
	case op.Multianewarray:
		ins.Value = t
	}
	return c.Append(ins)
}

// InvokeDynamic appends an invokedynamic of site.
func (c *Code) InvokeDynamic(site cpool.CallSite) *Instruction {
	return c.Append(&Instruction{Op: op.Invokedynamic, Value: site})
}

// Handler adds an exception-table row.
func (c *Code) Handler(start, end, handler int, catch descriptor.Type) {
	c.Exceptions = append(c.Exceptions, ExceptionEntry{Start: start, End: end, Handler: handler, CatchType: catch})
}

// Find returns the instruction with the given label.
func (c *Code) Find(label int) (*Instruction, bool) {
	label = c.canonical(label)
	for _, ins := range c.Instructions {
		if ins.Label == label {
			return ins, true
		}
	}
	return nil, false
}

func (c *Code) canonical(label int) int {
	for i := 0; i <= len(c.aliases); i++ {
		next, ok := c.aliases[label]
		if !ok {
			break
		}
		label = next
	}
	return label
}

func (c *Code) isEnd(label int) bool {
	for _, l := range c.ends {
		if l == label {
			return true
		}
	}
	for _, l := range c.pending {
		if l == label {
			return true
		}
	}
	return false
}

// branchTargets returns the canonical labels control may reach other than
// by falling through.
func (c *Code) branchTargets() map[int]bool {
	out := map[int]bool{}
	for _, ins := range c.Instructions {
		for _, t := range ins.targets() {
			out[c.canonical(t)] = true
		}
	}
	for _, e := range c.Exceptions {
		out[c.canonical(e.Handler)] = true
	}
	if c.Frames != nil {
		for _, f := range c.Frames.Frames() {
			if f.Branch {
				out[c.canonical(f.Label)] = true
			}
		}
	}
	return out
}

func (c *Code) hasRelativeJumps() bool {
	for _, ins := range c.Instructions {
		if ins.Jump != nil && ins.Jump.Relative {
			return true
		}
	}
	return false
}
