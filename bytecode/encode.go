package bytecode

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/deepnoodle-ai/javabinary/attr"
	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/op"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// Optimize runs Peephole and EliminateNops first.
	Optimize bool
	// StackMaps writes a StackMapTable from Frames.
	StackMaps bool
}

// FillJumpTargets lays out the lowered instructions, fills in jump offsets
// and switch tables, and returns the label to offset map.
func (c *Code) FillJumpTargets() (map[int]int, error) {
	offsets := make(map[int]int, len(c.Instructions))
	offset := 0
	for _, ins := range c.Instructions {
		if _, dup := offsets[ins.Label]; dup || c.isEnd(ins.Label) {
			return nil, errors.New(errors.E3007, "duplicate label %d", ins.Label)
		}
		offsets[ins.Label] = offset
		size, err := c.layoutSwitch(ins, offset)
		if err != nil {
			return nil, err
		}
		offset += size
	}
	resolve := c.resolver(offsets, offset)

	for _, ins := range c.Instructions {
		var err error
		switch {
		case ins.Jump != nil:
			err = fillJump(ins, offsets[ins.Label], resolve)
		case ins.Op == op.Tableswitch:
			err = fillTableSwitch(ins, offsets[ins.Label], resolve)
		case ins.Op == op.Lookupswitch:
			err = checkLookupSwitch(ins, offsets[ins.Label], resolve)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "opcode 0x%02x label 0x%04x", byte(ins.Op), ins.Label)
		}
	}
	return offsets, nil
}

// layoutSwitch sizes a switch placed at offset. Other instructions keep
// their lowered size.
func (c *Code) layoutSwitch(ins *Instruction, offset int) (int, error) {
	switch ins.Op {
	case op.Tableswitch:
		if ins.Switch == nil || len(ins.Switch.Targets) == 0 {
			return 0, errors.New(errors.E3004, "tableswitch at label %d has no cases", ins.Label)
		}
		return 1 + padding(offset) + 12 + 4*len(ins.Switch.Targets), nil
	case op.Lookupswitch:
		if ins.Raw == nil {
			return 0, errors.New(errors.E3004, "lookupswitch at label %d cannot be encoded", ins.Label)
		}
		return len(ins.Raw), nil
	}
	if ins.Raw == nil {
		return 0, errors.New(errors.E3001, "instruction at label %d was not lowered", ins.Label)
	}
	return len(ins.Raw), nil
}

func (c *Code) resolver(offsets map[int]int, end int) func(int) (int, bool) {
	return func(label int) (int, bool) {
		label = c.canonical(label)
		if off, ok := offsets[label]; ok {
			return off, true
		}
		if c.isEnd(label) {
			return end, true
		}
		return 0, false
	}
}

func fillJump(ins *Instruction, offset int, resolve func(int) (int, bool)) error {
	delta := ins.Jump.Delta
	if !ins.Jump.Relative {
		target, ok := resolve(ins.Jump.Label)
		if !ok {
			return errors.New(errors.E3002, "jump to undefined label %d", ins.Jump.Label)
		}
		delta = target - offset
	}
	if op.GetInfo(ins.Op).Kind == op.BranchWide {
		if delta < math.MinInt32 || delta > math.MaxInt32 {
			return errors.New(errors.E3003, "jump offset too far: %d", delta)
		}
		ins.Raw = binary.BigEndian.AppendUint32([]byte{byte(ins.Op)}, uint32(int32(delta)))
		return nil
	}
	if delta < math.MinInt16 || delta > math.MaxInt16 {
		return errors.New(errors.E3003, "jump offset too far: %d", delta)
	}
	ins.Raw = binary.BigEndian.AppendUint16([]byte{byte(ins.Op)}, uint16(int16(delta)))
	return nil
}

func fillTableSwitch(ins *Instruction, offset int, resolve func(int) (int, bool)) error {
	sw := ins.Switch
	if int64(sw.Low)+int64(len(sw.Targets))-1 > math.MaxInt32 {
		return errors.New(errors.E3004, "tableswitch range overflows")
	}
	rel := func(label int) (uint32, error) {
		target, ok := resolve(label)
		if !ok {
			return 0, errors.New(errors.E3002, "jump to undefined label %d", label)
		}
		return uint32(int32(target - offset)), nil
	}
	raw := make([]byte, 1+padding(offset), 1+padding(offset)+12+4*len(sw.Targets))
	raw[0] = byte(op.Tableswitch)
	def, err := rel(sw.Default)
	if err != nil {
		return err
	}
	raw = binary.BigEndian.AppendUint32(raw, def)
	raw = binary.BigEndian.AppendUint32(raw, uint32(sw.Low))
	raw = binary.BigEndian.AppendUint32(raw, uint32(sw.High()))
	for _, t := range sw.Targets {
		d, err := rel(t)
		if err != nil {
			return err
		}
		raw = binary.BigEndian.AppendUint32(raw, d)
	}
	ins.Raw = raw
	return nil
}

// checkLookupSwitch accepts a decoded lookupswitch only where its bytes are
// still valid: neither it nor any of its targets has moved.
func checkLookupSwitch(ins *Instruction, offset int, resolve func(int) (int, bool)) error {
	moved := offset != ins.Label
	for _, t := range append([]int{ins.Switch.Default}, ins.Switch.Targets...) {
		if target, ok := resolve(t); !ok || target != t {
			moved = true
		}
	}
	if moved {
		return errors.New(errors.E3004, "lookupswitch cannot be re-encoded after its code moved")
	}
	return nil
}

// Encode lowers the body into a Code attribute. pool receives every
// constant the instructions reference.
func (c *Code) Encode(pool *cpool.Pool, opts EncodeOptions) (*attr.Code, error) {
	if opts.Optimize {
		c.Peephole()
		c.EliminateNops()
	}
	if err := c.FillInstructions(pool); err != nil {
		return nil, err
	}
	offsets, err := c.FillJumpTargets()
	if err != nil {
		return nil, err
	}
	var body []byte
	for _, ins := range c.Instructions {
		body = append(body, ins.Raw...)
	}
	resolve := c.resolver(offsets, len(body))
	at := func(label int, what string) (uint16, error) {
		off, ok := resolve(label)
		if !ok {
			return 0, errors.New(errors.E3002, "%s refers to undefined label %d", what, label)
		}
		return uint16(off), nil
	}

	out := &attr.Code{Bytecode: body}
	for i, e := range c.Exceptions {
		var h attr.Handler
		if h.Start, err = at(e.Start, "exception handler start"); err != nil {
			return nil, errors.Wrapf(err, "exception handler %d", i)
		}
		if h.End, err = at(e.End, "exception handler end"); err != nil {
			return nil, errors.Wrapf(err, "exception handler %d", i)
		}
		if h.Handler, err = at(e.Handler, "exception handler"); err != nil {
			return nil, errors.Wrapf(err, "exception handler %d", i)
		}
		h.CatchType = e.CatchType
		out.Handlers = append(out.Handlers, h)
	}

	var lines attr.LineNumberTable
	prev := 0
	for _, ins := range c.Instructions {
		if ins.Line != 0 && ins.Line != prev {
			lines.Lines = append(lines.Lines, attr.LineNumber{Start: uint16(offsets[ins.Label]), Line: uint16(ins.Line)})
		}
		prev = ins.Line
	}
	if len(lines.Lines) > 0 {
		out.Attributes = append(out.Attributes, &lines)
	}

	vars, types := &attr.LocalVariableTable{}, &attr.LocalVariableTable{Types: true}
	for _, v := range c.Locals {
		start, err := at(v.Start, "local variable "+v.Name)
		if err != nil {
			return nil, err
		}
		end, err := at(v.End, "local variable "+v.Name)
		if err != nil {
			return nil, err
		}
		lv := attr.LocalVariable{Start: start, Length: end - start, Name: v.Name, Descriptor: v.Descriptor, Slot: uint16(v.Slot)}
		if v.Generic {
			types.Vars = append(types.Vars, lv)
		} else {
			vars.Vars = append(vars.Vars, lv)
		}
	}
	if len(vars.Vars) > 0 {
		out.Attributes = append(out.Attributes, vars)
	}
	if len(types.Vars) > 0 {
		out.Attributes = append(out.Attributes, types)
	}

	maxStack, maxLocals := c.MaxStack, c.MaxLocals
	if n := c.localsUsed(); n > maxLocals {
		maxLocals = n
	}
	if c.Frames != nil {
		if c.Frames.Live() {
			depth, err := c.Frames.Finish()
			if err != nil {
				return nil, err
			}
			maxStack = depth
			c.MaxStack = depth
		}
		if n := c.Frames.MaxLocals(); n > maxLocals {
			maxLocals = n
		}
		if opts.StackMaps {
			if err := c.checkTargetFrames(); err != nil {
				return nil, err
			}
			entries, err := c.Frames.Encode(resolve)
			if err != nil {
				return nil, err
			}
			if len(entries) > 0 {
				out.Attributes = append(out.Attributes, &attr.StackMapTable{Entries: entries})
			}
		}
	}
	if maxStack > math.MaxUint16 || maxLocals > math.MaxUint16 {
		return nil, errors.New(errors.E3008, "max stack %d or max locals %d exceeds 65535", maxStack, maxLocals)
	}
	out.MaxStack, out.MaxLocals = uint16(maxStack), uint16(maxLocals)
	out.Attributes = append(out.Attributes, c.Attributes...)
	return out, nil
}

// checkTargetFrames requires a recorded branch frame at every jump, switch
// and exception handler target.
func (c *Code) checkTargetFrames() error {
	recorded := map[int]bool{}
	for _, f := range c.Frames.Frames() {
		if f.Branch {
			recorded[c.canonical(f.Label)] = true
		}
	}
	var missing []int
	for label := range c.branchTargets() {
		if !recorded[label] {
			missing = append(missing, label)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Ints(missing)
	return errors.New(errors.E4003, "no stack frame recorded at branch target L%d", missing[0])
}

// localsUsed returns the number of local slots the instructions touch.
func (c *Code) localsUsed() int {
	n := 0
	for _, ins := range c.Instructions {
		code, slot := ins.Op, ins.Local
		if base, implied, ok := op.ImpliedLocal(code); ok {
			code, slot = base, implied
		}
		kind := op.GetInfo(code).Kind
		if kind != op.Local && kind != op.LocalInc {
			continue
		}
		width := 1
		switch code {
		case op.Lload, op.Dload, op.Lstore, op.Dstore:
			width = 2
		}
		if end := slot + width; end > n {
			n = end
		}
	}
	return n
}
