package jvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corevm/classfile"
	"corevm/classloader"
	"corevm/frames"
	"corevm/object"
	"corevm/opcodes"
	"corevm/types"
	"corevm/vmerrors"
)

// pushTestFrame builds a thread with a single frame over code and returns
// both, so Step can be exercised opcode-by-opcode without a real .class file.
func pushTestFrame(code []byte, maxLocals, maxStack int) (*Thread, *frames.Frame) {
	method := &classloader.Method{
		Name:    "test",
		RawDesc: "()V",
		Code: classloader.Code{
			Kind:      classloader.CodeJava,
			MaxLocals: maxLocals,
			MaxStack:  maxStack,
			Bytes:     code,
		},
	}
	f := frames.New(nil, method)
	th := NewThread(object.NewHeap())
	th.PushFrame(f)
	return th, f
}

func TestStepIconstPushesOperand(t *testing.T) {
	th, f := pushTestFrame([]byte{opcodes.ICONST_1}, 0, 1)
	require.NoError(t, Step(th, nil))
	v, err := f.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int)
}

func TestStepIaddAddsOperands(t *testing.T) {
	th, f := pushTestFrame([]byte{opcodes.IADD}, 0, 2)
	f.PushOperand(types.NewInt(2))
	f.PushOperand(types.NewInt(3))
	require.NoError(t, Step(th, nil))
	v, err := f.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(5), v.Int)
}

func TestStepIdivByZeroIsFatal(t *testing.T) {
	th, f := pushTestFrame([]byte{opcodes.IDIV}, 0, 2)
	f.PushOperand(types.NewInt(1))
	f.PushOperand(types.NewInt(0))
	err := Step(th, nil)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.DivisionByZero))
}

func TestStepIincIncrementsLocal(t *testing.T) {
	// iinc local#0 by +5
	th, f := pushTestFrame([]byte{opcodes.IINC, 0x00, 0x05}, 1, 0)
	f.SetLocal(0, types.NewInt(10))
	require.NoError(t, Step(th, nil))
	assert.Equal(t, int32(15), f.GetLocal(0).Int)
}

func TestStepGotoJumps(t *testing.T) {
	// goto +4 (skip the ICONST_1 at offset 3, land on ICONST_2 at offset 4)
	code := []byte{
		opcodes.GOTO, 0x00, 0x04, // 0: goto -> pc 4
		opcodes.ICONST_1, // 3: skipped
		opcodes.ICONST_2, // 4: target
	}
	// GOTO's branch target is relative to the opcode's own pc (0), so +4 lands
	// at byte index 4, which is ICONST_2.
	th, f := pushTestFrame(code, 0, 1)
	require.NoError(t, Step(th, nil)) // goto
	require.NoError(t, Step(th, nil)) // iconst_2 at index 4
	v, err := f.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(2), v.Int)
}

func TestStepIfIcmpltBranches(t *testing.T) {
	// if_icmplt +6 ; iconst_1 (not taken path) ; iconst_2 (taken path, at offset 6)
	code := []byte{
		opcodes.IF_ICMPLT, 0x00, 0x06,
		opcodes.ICONST_1,
		opcodes.NOP,
		opcodes.NOP,
		opcodes.ICONST_2,
	}
	th, f := pushTestFrame(code, 0, 2)
	f.PushOperand(types.NewInt(1))
	f.PushOperand(types.NewInt(5)) // 1 < 5, branch taken
	require.NoError(t, Step(th, nil))
	require.NoError(t, Step(th, nil))
	v, err := f.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(2), v.Int)
}

func TestStepReturnVoidPopsFrame(t *testing.T) {
	th, _ := pushTestFrame([]byte{opcodes.RETURN}, 0, 0)
	require.NoError(t, Step(th, nil))
	assert.Equal(t, 0, th.Depth())
}

func TestStepIreturnPushesToCaller(t *testing.T) {
	calleeMethod := &classloader.Method{
		Name: "callee", RawDesc: "()I",
		Code: classloader.Code{MaxLocals: 0, MaxStack: 1, Bytes: []byte{opcodes.IRETURN}},
	}
	callee := frames.New(nil, calleeMethod)
	callee.PushOperand(types.NewInt(42))

	callerMethod := &classloader.Method{
		Name: "caller", RawDesc: "()V",
		Code: classloader.Code{MaxLocals: 0, MaxStack: 1, Bytes: []byte{opcodes.RETURN}},
	}
	caller := frames.New(nil, callerMethod)

	th := NewThread(object.NewHeap())
	th.PushFrame(caller)
	th.PushFrame(callee)

	require.NoError(t, Step(th, nil)) // ireturn
	assert.Equal(t, 1, th.Depth())
	v, err := caller.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v.Int)
}

func TestStepNewarrayAllocatesIntArray(t *testing.T) {
	th, f := pushTestFrame([]byte{opcodes.NEWARRAY, opcodes.ATypeInt}, 0, 1)
	f.PushOperand(types.NewInt(3))
	require.NoError(t, Step(th, nil))
	ref, err := f.PopOperand()
	require.NoError(t, err)
	require.Equal(t, types.KindReference, ref.Kind)
	slot, err := th.heap.Get(ref.Ref)
	require.NoError(t, err)
	arr, ok := slot.Array.(*object.IntArray)
	require.True(t, ok)
	assert.Equal(t, int32(3), arr.Length())
}

func TestStepArraylengthReadsLength(t *testing.T) {
	heap := object.NewHeap()
	ref, err := heap.AllocArray(4, "I")
	require.NoError(t, err)

	method := &classloader.Method{
		Name: "m", RawDesc: "()V",
		Code: classloader.Code{MaxLocals: 0, MaxStack: 1, Bytes: []byte{opcodes.ARRAYLENGTH}},
	}
	f := frames.New(nil, method)
	th := NewThread(heap)
	th.PushFrame(f)
	f.PushOperand(ref)

	require.NoError(t, Step(th, nil))
	v, err := f.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(4), v.Int)
}

func TestStepMonitorOnNullIsFatal(t *testing.T) {
	th, f := pushTestFrame([]byte{opcodes.MONITORENTER}, 0, 1)
	f.PushOperand(types.Null)
	err := Step(th, nil)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.NullReference))
}

func TestStepCheckcastNullAlwaysPasses(t *testing.T) {
	cf := &classfile.ClassFile{
		ThisClass: "Test",
		ConstantPool: []classfile.CpEntry{
			{},
			{Tag: classfile.TagClass, NameIndex: 2},
			{Tag: classfile.TagUtf8, Utf8Value: "java/lang/Object"},
		},
	}
	class, err := classloader.NewClassFromClassFile(cf)
	require.NoError(t, err)

	method := &classloader.Method{
		Name: "m", RawDesc: "()V",
		Code: classloader.Code{MaxLocals: 0, MaxStack: 1, Bytes: []byte{opcodes.CHECKCAST, 0x00, 0x01}},
	}
	f := frames.New(class, method)
	th := NewThread(object.NewHeap())
	th.PushFrame(f)
	f.PushOperand(types.Null)

	require.NoError(t, Step(th, nil))
	v, err := f.PopOperand()
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestStepUnmappedOpcodeIsFatal(t *testing.T) {
	// 0xba is INVOKEDYNAMIC, intentionally left unmapped (out of scope).
	th, _ := pushTestFrame([]byte{0xba}, 0, 0)
	err := Step(th, nil)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.UnimplementedOpcode))
}
