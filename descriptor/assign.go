package descriptor

// AssignableTo reports whether a value of type t may be stored where other
// is expected. Only the relations needed to merge stack-map frames are
// modeled: identity, every reference to java.lang.Object, arrays to
// Cloneable and Serializable, and covariant reference arrays.
func (t Type) AssignableTo(other Type) bool {
	if t == other {
		return true
	}
	if !t.IsReference() || !other.IsReference() {
		return false
	}
	if other == TypeObject {
		return true
	}
	if t.Dims == 0 {
		return false
	}
	if other == TypeCloneable || other == TypeSerializable {
		return true
	}
	if other.Dims == 0 {
		return false
	}
	te, oe := t.Elem(), other.Elem()
	if !te.IsReference() || !oe.IsReference() {
		return false
	}
	return te.AssignableTo(oe)
}

// ResolveConflict returns the common type of two references meeting at a
// control-flow join. When neither is assignable to the other, both widen to
// java.lang.Object, but only if the join is a recorded branch target. This
// approximates the verifier for conditional-expression code and is not a
// general least-upper-bound.
func (t Type) ResolveConflict(other Type, atBranchTarget bool) (Type, bool) {
	if t.AssignableTo(other) {
		return other, true
	}
	if other.AssignableTo(t) {
		return t, true
	}
	if atBranchTarget && t.IsReference() && other.IsReference() {
		return TypeObject, true
	}
	return Type{}, false
}
