package errors

// ErrorCode represents a unique identifier for error conditions.
// Codes are organized by kind:
//   - J1xxx: Malformed input
//   - J2xxx: Reference errors
//   - J3xxx: Unsupported constructs
//   - J4xxx: Verifier conflicts
type ErrorCode string

const (
	// Malformed input (J1xxx)
	E1001 ErrorCode = "J1001" // Truncated input
	E1002 ErrorCode = "J1002" // Bad magic number
	E1003 ErrorCode = "J1003" // Unsupported class file version
	E1004 ErrorCode = "J1004" // Invalid modified UTF-8
	E1005 ErrorCode = "J1005" // Invalid constant pool tag
	E1006 ErrorCode = "J1006" // Malformed attribute
	E1007 ErrorCode = "J1007" // Malformed descriptor
	E1008 ErrorCode = "J1008" // Unknown opcode
	E1009 ErrorCode = "J1009" // Malformed stack map frame

	// Reference errors (J2xxx)
	E2001 ErrorCode = "J2001" // Malformed constant
	E2002 ErrorCode = "J2002" // Constant pool not editable

	// Unsupported constructs (J3xxx)
	E3001 ErrorCode = "J3001" // Unsupported instruction
	E3002 ErrorCode = "J3002" // Jump to undefined label
	E3003 ErrorCode = "J3003" // Jump offset too far
	E3004 ErrorCode = "J3004" // Switch cannot be encoded
	E3005 ErrorCode = "J3005" // Invalid constant value
	E3006 ErrorCode = "J3006" // Bad super class for enum
	E3007 ErrorCode = "J3007" // Duplicate label
	E3008 ErrorCode = "J3008" // Class file limit exceeded
	E3009 ErrorCode = "J3009" // Invalid method handle

	// Verifier conflicts (J4xxx)
	E4001 ErrorCode = "J4001" // Conflicting stack frames
	E4002 ErrorCode = "J4002" // Operand stack underflow
	E4003 ErrorCode = "J4003" // Missing stack frame
	E4004 ErrorCode = "J4004" // Operand stack not empty
	E4005 ErrorCode = "J4005" // Invalid local variable access
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "truncated input",
	E1002: "bad magic number",
	E1003: "unsupported class file version",
	E1004: "invalid modified UTF-8",
	E1005: "invalid constant pool tag",
	E1006: "malformed attribute",
	E1007: "malformed descriptor",
	E1008: "unknown opcode",
	E1009: "malformed stack map frame",

	E2001: "malformed constant",
	E2002: "constant pool not editable",

	E3001: "unsupported instruction",
	E3002: "jump to undefined label",
	E3003: "jump offset too far",
	E3004: "switch cannot be encoded",
	E3005: "invalid constant value",
	E3006: "bad super class for enum",
	E3007: "duplicate label",
	E3008: "class file limit exceeded",
	E3009: "invalid method handle",

	E4001: "conflicting stack frames",
	E4002: "operand stack underflow",
	E4003: "missing stack frame",
	E4004: "operand stack not empty",
	E4005: "invalid local variable access",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Kind returns the error kind based on the code prefix.
func (c ErrorCode) Kind() Kind {
	if len(c) < 2 {
		return MalformedInput
	}
	switch c[1] {
	case '2':
		return ReferenceError
	case '3':
		return UnsupportedConstruct
	case '4':
		return VerifierConflict
	default:
		return MalformedInput
	}
}
