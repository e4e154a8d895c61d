package bytecode

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/op"
)

// Jump is the target of a branch instruction. Label names the target
// instruction. When Relative is set, Delta is written as the branch offset
// verbatim and Label is ignored.
type Jump struct {
	Label    int
	Relative bool
	Delta    int
}

// Switch holds the targets of a tableswitch or lookupswitch. A tableswitch
// has one target per value starting at Low. A lookupswitch pairs Keys with
// Targets.
type Switch struct {
	Default int
	Low     int32
	Keys    []int32
	Targets []int
}

// High returns the largest value matched by a tableswitch.
func (s *Switch) High() int32 {
	return s.Low + int32(len(s.Targets)) - 1
}

// Instruction is one opcode with its operand.
//
// Which operand field is meaningful depends on the opcode:
//
//   - Value: the constant-pool operand. It is an int32, float32, int64,
//     float64, string, descriptor.Type or cpool.MethodType/MethodHandle for
//     ldc, a cpool.MemberRef for field access and invocation, a
//     cpool.CallSite for invokedynamic and a descriptor.Type for new,
//     checkcast, instanceof, anewarray and multianewarray
//   - Local and Inc: the slot of a load, store, ret or iinc and the iinc
//     increment
//   - Imm: the bipush/sipush value, the newarray element code, the
//     multianewarray dimension count or the invokeinterface count
//   - Jump and Switch: branch targets
//
// Raw is the concrete encoding. It is set on decoded instructions and by
// lowering.
type Instruction struct {
	Op     op.Code
	Label  int
	Line   int
	Value  any
	Local  int
	Inc    int
	Imm    int
	Jump   *Jump
	Switch *Switch
	Raw    []byte
}

// Size returns the length of the concrete encoding, or 0 before lowering.
func (ins *Instruction) Size() int {
	return len(ins.Raw)
}

func (ins *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(ins.Op.String())
	info := op.GetInfo(ins.Op)
	switch {
	case ins.Op == op.Iinc:
		fmt.Fprintf(&sb, " %d %d", ins.Local, ins.Inc)
	case info.Kind == op.Local:
		fmt.Fprintf(&sb, " %d", ins.Local)
	case info.Kind == op.ConstU1 || ins.Op == op.LdcW || ins.Op == op.Ldc2W:
		sb.WriteString(" " + cpool.FormatLoadable(ins.Value))
	case info.Kind == op.ConstDims:
		fmt.Fprintf(&sb, " %v %d", ins.Value, ins.Imm)
	case info.ReferencesPool():
		fmt.Fprintf(&sb, " %v", ins.Value)
	case info.Kind == op.Byte || info.Kind == op.Short:
		fmt.Fprintf(&sb, " %d", ins.Imm)
	case ins.Jump != nil:
		if ins.Jump.Relative {
			fmt.Fprintf(&sb, " %+d", ins.Jump.Delta)
		} else {
			fmt.Fprintf(&sb, " L%d", ins.Jump.Label)
		}
	case ins.Switch != nil && ins.Op == op.Tableswitch:
		fmt.Fprintf(&sb, " %d..%d", ins.Switch.Low, ins.Switch.High())
		for _, t := range ins.Switch.Targets {
			fmt.Fprintf(&sb, " L%d", t)
		}
		fmt.Fprintf(&sb, " default L%d", ins.Switch.Default)
	case ins.Switch != nil:
		for i, t := range ins.Switch.Targets {
			fmt.Fprintf(&sb, " %d:L%d", ins.Switch.Keys[i], t)
		}
		fmt.Fprintf(&sb, " default L%d", ins.Switch.Default)
	}
	return sb.String()
}

// targets returns every label the instruction may transfer control to.
func (ins *Instruction) targets() []int {
	if ins.Jump != nil && !ins.Jump.Relative {
		return []int{ins.Jump.Label}
	}
	if ins.Switch != nil {
		return append([]int{ins.Switch.Default}, ins.Switch.Targets...)
	}
	return nil
}
