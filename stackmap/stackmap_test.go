package stackmap

import (
	"testing"

	"github.com/deepnoodle-ai/javabinary/cpool"
	"github.com/deepnoodle-ai/javabinary/descriptor"
	"github.com/deepnoodle-ai/javabinary/errors"
	"github.com/deepnoodle-ai/javabinary/internal/byteio"
	"github.com/stretchr/testify/require"
)

var (
	owner     = descriptor.Object("a.B")
	this      = ObjectOf(owner)
	stringT   = ObjectOf(descriptor.TypeString)
	listT     = ObjectOf(descriptor.Object("java.util.List"))
	objectT   = ObjectOf(descriptor.TypeObject)
	identity  = func(label int) (int, bool) { return label, true }
	instanceM = descriptor.Method{Return: descriptor.TypeVoid}
)

func newState() *State {
	return New(InitialFrame(owner, "run", instanceM, false))
}

func TestInitialFrame(t *testing.T) {
	ctor := InitialFrame(owner, "<init>", instanceM, false)
	require.Equal(t, []Type{ThisType}, ctor.Locals)

	objCtor := InitialFrame(descriptor.TypeObject, "<init>", instanceM, false)
	require.Equal(t, []Type{objectT}, objCtor.Locals)

	m, err := descriptor.ParseMethod("(JLjava/lang/String;[I)V")
	require.NoError(t, err)
	static := InitialFrame(owner, "f", m, true)
	require.Equal(t, []Type{LongType, TopType, stringT, ObjectOf(descriptor.TypeInt.ArrayOf())}, static.Locals)
}

func TestMergeIdenticalFrames(t *testing.T) {
	s := newState()
	require.NoError(t, s.SetLocal(1, IntType))
	s.PushStack(stringT)

	resets, err := s.SaveFrame(10, true)
	require.NoError(t, err)
	require.Empty(t, resets)

	resets, err = s.SaveFrame(10, false)
	require.NoError(t, err)
	require.Empty(t, resets)

	f, ok := s.Frame(10)
	require.True(t, ok)
	require.True(t, f.Branch)
	require.Equal(t, []Type{this, IntType}, f.Locals)
	require.Equal(t, []Type{stringT}, f.Stack)
}

func TestMergeResetsUninitializedLocals(t *testing.T) {
	s := newState()
	_, err := s.SaveFrame(10, true)
	require.NoError(t, err)

	require.NoError(t, s.SetLocal(2, IntType))
	resets, err := s.SaveFrame(10, false)
	require.NoError(t, err)
	require.Equal(t, []int{2}, resets)

	// The current frame continues with the merged state.
	_, err = s.GetLocal(2)
	require.True(t, errors.HasCode(err, errors.E4005))

	// A slot defined on the recorded path but not the current one resets too.
	s2 := newState()
	require.NoError(t, s2.SetLocal(1, FloatType))
	_, err = s2.SaveFrame(4, true)
	require.NoError(t, err)
	require.NoError(t, s2.LoadFrame(0, false))
	resets, err = s2.SaveFrame(4, true)
	require.NoError(t, err)
	require.Equal(t, []int{1}, resets)
	f, _ := s2.Frame(4)
	require.Equal(t, []Type{this}, f.Locals)
}

func TestMergeConflicts(t *testing.T) {
	t.Run("local kinds", func(t *testing.T) {
		s := newState()
		require.NoError(t, s.SetLocal(1, IntType))
		_, err := s.SaveFrame(8, true)
		require.NoError(t, err)
		require.NoError(t, s.SetLocal(1, FloatType))
		_, err = s.SaveFrame(8, true)
		require.True(t, errors.HasCode(err, errors.E4001))
		require.Contains(t, err.Error(), "conflicting stack frames")
	})
	t.Run("stack depth", func(t *testing.T) {
		s := newState()
		_, err := s.SaveFrame(8, true)
		require.NoError(t, err)
		s.PushStack(IntType)
		_, err = s.SaveFrame(8, true)
		require.True(t, errors.HasCode(err, errors.E4001))
	})
	t.Run("unrelated references away from a branch target", func(t *testing.T) {
		s := newState()
		s.PushStack(stringT)
		_, err := s.SaveFrame(8, false)
		require.NoError(t, err)
		_, err = s.PopStack()
		require.NoError(t, err)
		s.PushStack(listT)
		_, err = s.SaveFrame(8, false)
		require.True(t, errors.HasCode(err, errors.E4001))
	})
}

func TestMergeWidensReferences(t *testing.T) {
	s := newState()
	s.PushStack(stringT)
	_, err := s.SaveFrame(8, true)
	require.NoError(t, err)
	require.NoError(t, s.LoadFrame(0, false))
	s.PushStack(listT)
	_, err = s.SaveFrame(8, false)
	require.NoError(t, err)
	f, _ := s.Frame(8)
	require.Equal(t, []Type{objectT}, f.Stack)
	require.Equal(t, []Type{objectT}, s.Stack())

	s = newState()
	s.PushStack(NullType)
	_, err = s.SaveFrame(8, false)
	require.NoError(t, err)
	require.NoError(t, s.LoadFrame(0, false))
	s.PushStack(stringT)
	_, err = s.SaveFrame(8, false)
	require.NoError(t, err)
	f, _ = s.Frame(8)
	require.Equal(t, []Type{stringT}, f.Stack)
}

func TestLocalsAndStack(t *testing.T) {
	s := newState()
	require.NoError(t, s.SetLocal(1, LongType))
	require.Equal(t, []Type{this, LongType, TopType}, s.Locals())
	require.Equal(t, 3, s.MaxLocals())

	// Writing the second half of the long invalidates it.
	require.NoError(t, s.SetLocal(2, IntType))
	require.Equal(t, []Type{this, TopType, IntType}, s.Locals())
	_, err := s.GetLocal(1)
	require.True(t, errors.HasCode(err, errors.E4005))
	got, err := s.GetLocal(2)
	require.NoError(t, err)
	require.Equal(t, IntType, got)

	s.PushStack(DoubleType)
	s.PushStack(IntType)
	require.Equal(t, 3, s.Depth())
	require.NoError(t, s.PopStackN(1))
	require.Equal(t, 2, s.Depth())
	_, err = s.Finish()
	require.True(t, errors.HasCode(err, errors.E4004))

	_, err = s.PopStack()
	require.NoError(t, err)
	_, err = s.PopStack()
	require.True(t, errors.HasCode(err, errors.E4002))

	maxStack, err := s.Finish()
	require.NoError(t, err)
	require.Equal(t, 3, maxStack)

	require.True(t, errors.HasCode(s.LoadFrame(99, true), errors.E4003))
}

func TestResetPropagation(t *testing.T) {
	s := newState()
	require.NoError(t, s.SetLocal(1, IntType))
	_, err := s.SaveFrame(4, true)
	require.NoError(t, err)
	_, err = s.SaveFrame(8, true)
	require.NoError(t, err)

	s.ResetLocalsInFrame(4, []int{1})
	f4, _ := s.Frame(4)
	require.Equal(t, []Type{this}, f4.Locals)

	s.SetLocalInAllFrames(1, TopType)
	f8, _ := s.Frame(8)
	require.Equal(t, []Type{this}, f8.Locals)
	_, err = s.GetLocal(1)
	require.Error(t, err)
}

func buildFrames(t *testing.T) *State {
	t.Helper()
	s := newState()
	save := func(label int) {
		_, err := s.SaveFrame(label, true)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetLocal(1, IntType))
	save(5)
	s.PushStack(IntType)
	save(9)
	require.NoError(t, s.LoadFrame(0, false))
	save(100)
	require.NoError(t, s.SetLocal(1, LongType))
	require.NoError(t, s.SetLocal(3, stringT))
	save(200)
	s.PushStack(IntType)
	s.PushStack(FloatType)
	save(300)
	s.PushStack(UninitializedAt(300))
	save(400)
	return s
}

func TestEncodeFrameKinds(t *testing.T) {
	s := buildFrames(t)
	entries, err := s.Encode(identity)
	require.NoError(t, err)

	var kinds []string
	var types []uint8
	var deltas []int
	for _, e := range entries {
		kinds = append(kinds, e.KindName())
		types = append(types, e.Type)
		deltas = append(deltas, e.Delta)
	}
	require.Equal(t, []string{"append", "same_locals_1_stack_item", "chop", "append", "full", "full"}, kinds)
	require.Equal(t, []uint8{252, 67, 250, 253, 255, 255}, types)
	require.Equal(t, []int{5, 3, 90, 99, 99, 99}, deltas)
	require.Equal(t, []Type{LongType, stringT}, entries[3].Locals)
}

func TestTableRoundTrip(t *testing.T) {
	s := buildFrames(t)
	entries, err := s.Encode(identity)
	require.NoError(t, err)

	pool := cpool.New()
	w := byteio.NewWriter()
	require.NoError(t, WriteTable(w, pool, entries))
	b, err := w.Bytes()
	require.NoError(t, err)

	decoded, err := ReadTable(byteio.NewReader(b), pool)
	require.NoError(t, err)
	require.Equal(t, entries, decoded)

	expanded, err := Expand(InitialFrame(owner, "run", instanceM, false), decoded)
	require.NoError(t, err)
	require.False(t, expanded.Live())
	for _, f := range s.Frames() {
		got, ok := expanded.Frame(f.Label)
		require.True(t, ok, "label %d", f.Label)
		require.Equal(t, f.Locals, got.Locals, "label %d", f.Label)
		require.Equal(t, f.Stack, got.Stack, "label %d", f.Label)
	}
	require.Equal(t, 4, expanded.MaxLocals())
	require.Equal(t, 3, expanded.MaxDepth())

	again, err := expanded.Encode(identity)
	require.NoError(t, err)
	require.Equal(t, entries, again)
}

func TestEncodeRequiresOffsetZero(t *testing.T) {
	s := newState()
	_, err := s.Encode(func(label int) (int, bool) { return label + 4, true })
	require.True(t, errors.HasCode(err, errors.E4003))
}

func TestExpandErrors(t *testing.T) {
	initial := InitialFrame(owner, "run", instanceM, false)
	_, err := Expand(initial, []Entry{{Type: 249, Delta: 0}})
	require.True(t, errors.HasCode(err, errors.E1009))
	_, err = Expand(initial, []Entry{{Type: 200}})
	require.True(t, errors.HasCode(err, errors.E1009))
	_, err = ReadTable(byteio.NewReader([]byte{0, 1, 200}), cpool.New())
	require.True(t, errors.HasCode(err, errors.E1009))
}
