package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corevm/types"
	"corevm/vmerrors"
)

func TestIntArrayGetPutRoundTrip(t *testing.T) {
	arr := NewIntArray(4)
	require.NoError(t, arr.Put(2, types.NewInt(42)))
	v, err := arr.Get(2)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v.Int)
	assert.Equal(t, "[I", arr.Descriptor())
}

func TestArrayOutOfBoundsIsFatal(t *testing.T) {
	arr := NewIntArray(2)
	_, err := arr.Get(2)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.OutOfBoundsIndex))

	err = arr.Put(-1, types.NewInt(1))
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.OutOfBoundsIndex))
}

func TestArrayStoreTypeMismatch(t *testing.T) {
	arr := NewIntArray(1)
	err := arr.Put(0, types.NewFloat(1.0))
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.TypeMismatch))
}

func TestBoolArrayPackedBits(t *testing.T) {
	arr := NewBoolArray(10)
	require.NoError(t, arr.Put(0, types.NewInt(1)))
	require.NoError(t, arr.Put(9, types.NewInt(1)))
	require.NoError(t, arr.Put(5, types.NewInt(0)))

	v, err := arr.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int)

	v, err = arr.Get(9)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.Int)

	v, err = arr.Get(1)
	require.NoError(t, err)
	assert.Equal(t, int32(0), v.Int)

	assert.Equal(t, int32(10), arr.Length())
	assert.Equal(t, "[Z", arr.Descriptor())
}

func TestRefArrayDescriptorWrapsObjectClass(t *testing.T) {
	arr := NewRefArray(3, "java/lang/Object")
	assert.Equal(t, "[Ljava/lang/Object;", arr.Descriptor())

	arrOfArr := NewRefArray(2, "[I")
	assert.Equal(t, "[[I", arrOfArr.Descriptor())
}

func TestRefArrayStoreRequiresReference(t *testing.T) {
	arr := NewRefArray(1, "java/lang/Object")
	err := arr.Put(0, types.NewInt(1))
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.TypeMismatch))
}

func TestNewTypedArrayDispatchesOnLeadingChar(t *testing.T) {
	arr, err := NewTypedArray(5, "J")
	require.NoError(t, err)
	_, ok := arr.(*LongArray)
	assert.True(t, ok)

	arr, err = NewTypedArray(5, "Ljava/lang/String;")
	require.NoError(t, err)
	_, ok = arr.(*RefArray)
	assert.True(t, ok)
}

func TestNewTypedArrayFromAtype(t *testing.T) {
	arr, err := NewTypedArrayFromAtype(3, 10) // int
	require.NoError(t, err)
	_, ok := arr.(*IntArray)
	assert.True(t, ok)

	_, err = NewTypedArrayFromAtype(3, 99)
	require.Error(t, err)
}
