package bytecode

import (
	"math"

	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/op"
)

// FillInstructions gives every instruction a concrete encoding. Built
// instructions get the shortest form for their operand. Decoded
// instructions keep their bytes unless they reference the constant pool,
// in which case the index is recomputed against pool and ldc is promoted to
// ldc_w when it no longer fits a byte. Jump offsets and switch tables are
// left as placeholders for FillJumpTargets.
func (c *Code) FillInstructions(pool *cpool.Pool) error {
	for _, ins := range c.Instructions {
		if err := lower(ins, pool); err != nil {
			return errors.Wrapf(err, "opcode 0x%02x label 0x%04x", byte(ins.Op), ins.Label)
		}
	}
	return nil
}

func unsupported(ins *Instruction, format string, args ...any) error {
	return errors.New(errors.E3001, "unsupported instruction %s (label %d, line %d): "+format,
		append([]any{ins.Op, ins.Label, ins.Line}, args...)...)
}

func lower(ins *Instruction, pool *cpool.Pool) error {
	info := op.GetInfo(ins.Op)
	decoded := ins.Raw != nil
	if decoded && !info.ReferencesPool() && !op.IsBranch(ins.Op) {
		return nil
	}
	switch info.Kind {
	case op.Invalid, op.WidePrefix:
		return unsupported(ins, "no encoding for opcode")
	case op.None:
		return lowerNone(ins)
	case op.Local:
		return lowerLocal(ins)
	case op.LocalInc:
		return lowerIinc(ins)
	case op.ConstU1, op.ConstU2:
		if ins.Op == op.Ldc || ins.Op == op.LdcW || ins.Op == op.Ldc2W {
			return lowerLdc(ins, pool, decoded)
		}
		index, err := putOperand(ins, pool)
		if err != nil {
			return err
		}
		ins.Raw = []byte{byte(ins.Op), byte(index >> 8), byte(index)}
	case op.ConstInterface:
		ref, ok := ins.Value.(cpool.MemberRef)
		if !ok {
			return unsupported(ins, "operand %T is not a member reference", ins.Value)
		}
		index, err := pool.PutMember(ref)
		if err != nil {
			return err
		}
		count := ins.Imm
		if count == 0 {
			m, err := ref.Method()
			if err != nil {
				return err
			}
			count = m.ArgSlots() + 1
		}
		ins.Raw = []byte{byte(ins.Op), byte(index >> 8), byte(index), byte(count), 0}
	case op.ConstDynamic:
		site, ok := ins.Value.(cpool.CallSite)
		if !ok {
			return unsupported(ins, "operand %T is not a call site", ins.Value)
		}
		index, err := pool.PutCallSite(site)
		if err != nil {
			return err
		}
		ins.Raw = []byte{byte(ins.Op), byte(index >> 8), byte(index), 0, 0}
	case op.ConstDims:
		t, ok := ins.Value.(descriptor.Type)
		if !ok {
			return unsupported(ins, "operand %T is not a type", ins.Value)
		}
		dims := ins.Imm
		if dims == 0 {
			dims = t.Dims
		}
		if dims < 1 || dims > 255 {
			return unsupported(ins, "dimension count %d", dims)
		}
		index, err := pool.PutClass(t)
		if err != nil {
			return err
		}
		ins.Raw = []byte{byte(ins.Op), byte(index >> 8), byte(index), byte(dims)}
	case op.Branch, op.BranchWide:
		if ins.Jump == nil {
			return unsupported(ins, "branch without a target")
		}
		ins.Raw = make([]byte, info.Size)
		ins.Raw[0] = byte(ins.Op)
	case op.Byte:
		lo, hi := math.MinInt8, math.MaxInt8
		if ins.Op == op.Newarray {
			lo, hi = 0, math.MaxUint8
		}
		if ins.Imm < lo || ins.Imm > hi {
			return unsupported(ins, "immediate %d out of range", ins.Imm)
		}
		ins.Raw = []byte{byte(ins.Op), byte(ins.Imm)}
	case op.Short:
		if ins.Imm < math.MinInt16 || ins.Imm > math.MaxInt16 {
			return unsupported(ins, "immediate %d out of range", ins.Imm)
		}
		ins.Raw = []byte{byte(ins.Op), byte(ins.Imm >> 8), byte(ins.Imm)}
	case op.TableSwitch, op.LookupSwitch:
		if ins.Switch == nil {
			return unsupported(ins, "switch without targets")
		}
	}
	return nil
}

func lowerNone(ins *Instruction) error {
	ins.Raw = []byte{byte(ins.Op)}
	return nil
}

func lowerLocal(ins *Instruction) error {
	slot := ins.Local
	if slot < 0 || slot > math.MaxUint16 {
		return unsupported(ins, "local slot %d out of range", slot)
	}
	if compact, ok := op.CompactLocal(ins.Op, slot); ok {
		ins.Op = compact
		ins.Raw = []byte{byte(compact)}
		return nil
	}
	if slot <= math.MaxUint8 {
		ins.Raw = []byte{byte(ins.Op), byte(slot)}
		return nil
	}
	ins.Raw = []byte{byte(op.Wide), byte(ins.Op), byte(slot >> 8), byte(slot)}
	return nil
}

func lowerIinc(ins *Instruction) error {
	slot, inc := ins.Local, ins.Inc
	switch {
	case slot < 0 || slot > math.MaxUint16 || inc < math.MinInt16 || inc > math.MaxInt16:
		return unsupported(ins, "iinc %d by %d out of range", slot, inc)
	case slot <= math.MaxUint8 && inc >= math.MinInt8 && inc <= math.MaxInt8:
		ins.Raw = []byte{byte(op.Iinc), byte(slot), byte(inc)}
	default:
		ins.Raw = []byte{byte(op.Wide), byte(op.Iinc), byte(slot >> 8), byte(slot), byte(inc >> 8), byte(inc)}
	}
	return nil
}

// putOperand adds the constant-pool entry of a field, method or class
// operand.
func putOperand(ins *Instruction, pool *cpool.Pool) (uint16, error) {
	switch v := ins.Value.(type) {
	case cpool.MemberRef:
		switch ins.Op {
		case op.New, op.Anewarray, op.Checkcast, op.Instanceof:
			return 0, unsupported(ins, "operand %s is not a type", v)
		}
		return pool.PutMember(v)
	case descriptor.Type:
		switch ins.Op {
		case op.New, op.Anewarray, op.Checkcast, op.Instanceof:
			return pool.PutClass(v)
		}
	}
	return 0, unsupported(ins, "operand %T does not fit the opcode", ins.Value)
}

func lowerLdc(ins *Instruction, pool *cpool.Pool, decoded bool) error {
	if !decoded {
		if short, ok := shortConst(ins); ok {
			*ins = *short
			return nil
		}
	}
	index, err := pool.PutLoadable(ins.Value)
	if err != nil {
		return err
	}
	code := ins.Op
	if !decoded {
		switch ins.Value.(type) {
		case int64, float64:
			code = op.Ldc2W
		default:
			code = op.Ldc
		}
	}
	if code == op.Ldc && index > math.MaxUint8 {
		code = op.LdcW
	}
	ins.Op = code
	if code == op.Ldc {
		ins.Raw = []byte{byte(code), byte(index)}
	} else {
		ins.Raw = []byte{byte(code), byte(index >> 8), byte(index)}
	}
	return nil
}

// shortConst returns the operand-free, bipush or sipush form of a built
// constant load, if the value has one.
func shortConst(ins *Instruction) (*Instruction, bool) {
	out := *ins
	set := func(code op.Code, raw ...byte) (*Instruction, bool) {
		out.Op = code
		out.Raw = append([]byte{byte(code)}, raw...)
		return &out, true
	}
	switch v := ins.Value.(type) {
	case nil:
		return set(op.AconstNull)
	case int:
		if int(int32(v)) != v {
			return nil, false
		}
		out.Value = int32(v)
		return shortConst(&out)
	case int32:
		switch {
		case v >= -1 && v <= 5:
			return set(op.Code(int32(op.Iconst0) + v))
		case v >= math.MinInt8 && v <= math.MaxInt8:
			out.Imm = int(v)
			return set(op.Bipush, byte(v))
		case v >= math.MinInt16 && v <= math.MaxInt16:
			out.Imm = int(v)
			return set(op.Sipush, byte(v>>8), byte(v))
		}
	case int64:
		if v == 0 || v == 1 {
			return set(op.Lconst0 + op.Code(v))
		}
	case float32:
		if (v == 0 && !math.Signbit(float64(v))) || v == 1 || v == 2 {
			return set(op.Fconst0 + op.Code(v))
		}
	case float64:
		if (v == 0 && !math.Signbit(v)) || v == 1 {
			return set(op.Dconst0 + op.Code(v))
		}
	}
	return nil, false
}
