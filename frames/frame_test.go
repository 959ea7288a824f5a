package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corevm/classloader"
	"corevm/types"
	"corevm/vmerrors"
)

func newTestFrame(maxLocals, maxStack int, code []byte) *Frame {
	m := &classloader.Method{
		Name:    "test",
		RawDesc: "()V",
		Code: classloader.Code{
			Kind:      classloader.CodeJava,
			MaxLocals: maxLocals,
			MaxStack:  maxStack,
			Bytes:     code,
		},
	}
	return New(nil, m)
}

func TestLocalsRoundTrip(t *testing.T) {
	f := newTestFrame(2, 2, nil)
	f.SetLocal(0, types.NewInt(7))
	assert.Equal(t, int32(7), f.GetLocal(0).Int)
}

func TestDeadCategoryTwoSlotPanics(t *testing.T) {
	f := newTestFrame(3, 2, nil)
	f.SetLocals(0, []types.Value{types.NewLong(1)})
	// local 0 holds the Long; local 1 is the dead second slot.
	assert.Panics(t, func() { f.GetLocal(1) })
}

func TestNextInstructionAdvancesCursorAndPC(t *testing.T) {
	f := newTestFrame(0, 0, []byte{0x01, 0x02, 0x03})
	b, err := f.NextInstruction()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)
	assert.Equal(t, 0, f.PC())
	assert.Equal(t, 1, f.Cursor())

	b, err = f.NextInstruction()
	require.NoError(t, err)
	assert.Equal(t, byte(0x02), b)
	assert.Equal(t, 1, f.PC())
}

func TestNextInstructionPastEndIsFatal(t *testing.T) {
	f := newTestFrame(0, 0, nil)
	_, err := f.NextInstruction()
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.UnimplementedOpcode))
}

func TestNextParamU16TruncatedIsFatal(t *testing.T) {
	f := newTestFrame(0, 0, []byte{0x01})
	_, err := f.NextParamU16()
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.UnimplementedOpcode))
}

func TestNextParamU16ReadsBigEndian(t *testing.T) {
	f := newTestFrame(0, 0, []byte{0x01, 0x02})
	v, err := f.NextParamU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v)
}

func TestSkipCodePaddingAlignsToFour(t *testing.T) {
	f := newTestFrame(0, 0, make([]byte, 16))
	f.cursor = 5
	f.SkipCodePadding(4)
	assert.Equal(t, 8, f.cursor)
}

func TestOperandStackPushPopOrder(t *testing.T) {
	f := newTestFrame(0, 2, nil)
	f.PushOperand(types.NewInt(1))
	f.PushOperand(types.NewInt(2))
	v, err := f.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(2), v.Int)
	v, err = f.PopOperand()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int)
}

func TestPopOperandUnderflow(t *testing.T) {
	f := newTestFrame(0, 0, nil)
	_, err := f.PopOperand()
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.StackUnderflow))
}

func TestDupOperand(t *testing.T) {
	f := newTestFrame(0, 2, nil)
	f.PushOperand(types.NewInt(9))
	require.NoError(t, f.DupOperand())
	assert.Equal(t, 2, f.OperandStackDepth())
	top, _ := f.PopOperand()
	second, _ := f.PopOperand()
	assert.Equal(t, top, second)
}

func TestInsertOperandShiftsUp(t *testing.T) {
	f := newTestFrame(0, 3, nil)
	f.PushOperand(types.NewInt(1))
	f.PushOperand(types.NewInt(2))
	require.NoError(t, f.InsertOperand(2, types.NewInt(3)))
	// stack bottom-to-top should now read: 3, 1, 2
	v0, _ := f.OperandAt(2)
	v1, _ := f.OperandAt(1)
	v2, _ := f.OperandAt(0)
	assert.Equal(t, int32(3), v0.Int)
	assert.Equal(t, int32(1), v1.Int)
	assert.Equal(t, int32(2), v2.Int)
}

func TestTransferArgsConsumesCategoryTwoAsTwoSlots(t *testing.T) {
	caller := newTestFrame(0, 2, nil)
	caller.PushOperand(types.NewLong(42))
	caller.PushOperand(types.NewInt(5))

	callee := newTestFrame(3, 0, nil)
	md := types.ParseMethodDescriptor("(JI)V")
	require.NoError(t, TransferArgs(caller, callee, md, 2))

	assert.Equal(t, int64(42), callee.GetLocal(0).Long)
	assert.Equal(t, int32(5), callee.GetLocal(2).Int)
	assert.Panics(t, func() { callee.GetLocal(1) })
}

func TestTransferReceiverAndArgsPlacesReceiverAtZero(t *testing.T) {
	caller := newTestFrame(0, 1, nil)
	caller.PushOperand(types.NewInt(99))

	callee := newTestFrame(2, 0, nil)
	require.NoError(t, TransferReceiverAndArgs(caller, callee, types.NewReference(7), 1))

	assert.Equal(t, int32(7), callee.GetLocal(0).Ref)
	assert.Equal(t, int32(99), callee.GetLocal(1).Int)
}

func TestTransferReceiverRejectsNonReference(t *testing.T) {
	caller := newTestFrame(0, 0, nil)
	callee := newTestFrame(1, 0, nil)
	err := TransferReceiverAndArgs(caller, callee, types.NewInt(1), 0)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.TypeMismatch))
}
