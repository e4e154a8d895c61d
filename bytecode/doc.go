// Package bytecode provides an editable representation of a JVM method body.
//
// A [Code] holds a list of [Instruction] values. Each instruction carries a
// label and, once lowered, its concrete byte encoding. Labels stand in for
// byte offsets until the body is encoded, so instructions can be inserted or
// rewritten without fixing up jump offsets by hand.
//
// # Key Types
//
//   - [Code]: instructions plus exception table, debug tables and stack map
//   - [Instruction]: one opcode with its typed operand
//   - [Jump]: a branch target, by label or by explicit relative offset
//   - [Switch]: the targets of a tableswitch or lookupswitch
//
// # Labels
//
// Decoded instructions are labelled with their original byte offset, and
// the offset one past the last instruction labels the end of the code.
// Built code starts with label 0 pending, so the first appended instruction
// is always label 0, the label the method's implicit stack frame is
// recorded at. Further labels come from [Code.NewLabel] and are attached to
// the next appended instruction with [Code.Mark].
//
// # Lowering
//
// [Code.Encode] turns the instructions back into a Code attribute:
//
//	// optional: fold int-to-long of 0 and 1, then drop dead nops
//	code.Peephole()
//	code.EliminateNops()
//
//	// concrete bytes for every instruction, then jump offsets
//	code.FillInstructions(pool)
//	code.FillJumpTargets()
//
// Instructions built without bytes get the shortest encoding for their
// operand. Instructions decoded from a class file keep their bytes except
// where a constant-pool index or a jump offset has to be recomputed.
package bytecode
