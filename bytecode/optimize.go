package bytecode

import "github.com/deepnoodle-ai/javabinary/op"

// Peephole rewrites an int constant 0 or 1 followed by i2l into the
// matching lconst, leaving a nop in place of the i2l. Neither instruction
// may be a branch target, and decoded instructions are left alone.
func (c *Code) Peephole() {
	targets := c.branchTargets()
	for i := 0; i+1 < len(c.Instructions); i++ {
		load, conv := c.Instructions[i], c.Instructions[i+1]
		if load.Raw != nil || conv.Raw != nil || conv.Op != op.I2l {
			continue
		}
		if targets[load.Label] || targets[conv.Label] {
			continue
		}
		v, ok := intConstant(load)
		if !ok || (v != 0 && v != 1) {
			continue
		}
		*load = Instruction{Op: op.Lconst0 + op.Code(v), Label: load.Label, Line: load.Line, Value: int64(v)}
		conv.Op = op.Nop
	}
}

// intConstant returns the int value pushed by a built constant load.
func intConstant(ins *Instruction) (int32, bool) {
	switch ins.Op {
	case op.Bipush, op.Sipush:
		return int32(ins.Imm), true
	case op.Ldc, op.LdcW:
		switch v := ins.Value.(type) {
		case int32:
			return v, true
		case int:
			if int(int32(v)) == v {
				return int32(v), true
			}
		}
		return 0, false
	}
	v, ok := op.ImpliedConstant(ins.Op)
	if !ok {
		return 0, false
	}
	i, ok := v.(int32)
	return i, ok
}

// EliminateNops removes built nops that are not branch targets. Labels of
// removed nops move to the following instruction. Bodies with exception
// handlers or explicit jump offsets are left untouched.
func (c *Code) EliminateNops() {
	if len(c.Exceptions) > 0 || c.hasRelativeJumps() {
		return
	}
	if c.aliases == nil {
		c.aliases = map[int]int{}
	}
	targets := c.branchTargets()
	var kept []*Instruction
	var dropped []int
	for _, ins := range c.Instructions {
		if ins.Op == op.Nop && ins.Raw == nil && !targets[ins.Label] {
			dropped = append(dropped, ins.Label)
			continue
		}
		for _, l := range dropped {
			c.aliases[l] = ins.Label
		}
		dropped = dropped[:0]
		kept = append(kept, ins)
	}
	c.ends = append(c.ends, dropped...)
	c.Instructions = kept
}
