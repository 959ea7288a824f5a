package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryOneForMostKinds(t *testing.T) {
	assert.Equal(t, CategoryOne, NewInt(1).Category())
	assert.Equal(t, CategoryOne, NewByte(1).Category())
	assert.Equal(t, CategoryOne, NewFloat(1).Category())
	assert.Equal(t, CategoryOne, NewReference(1).Category())
}

func TestCategoryTwoForLongAndDouble(t *testing.T) {
	assert.Equal(t, CategoryTwo, NewLong(1).Category())
	assert.Equal(t, CategoryTwo, NewDouble(1).Category())
}

func TestNullIsReferenceZero(t *testing.T) {
	require.True(t, Null.IsNull())
	assert.Equal(t, KindReference, Null.Kind)
	assert.False(t, NewReference(1).IsNull())
}

func TestDefaultForDescriptor(t *testing.T) {
	cases := map[string]Kind{
		"I": KindInt, "Z": KindInt, "J": KindLong, "B": KindByte,
		"S": KindShort, "C": KindChar, "F": KindFloat, "D": KindDouble,
		"Ljava/lang/Object;": KindReference, "[I": KindReference,
	}
	for desc, wantKind := range cases {
		v := DefaultForDescriptor(desc)
		assert.Equal(t, wantKind, v.Kind, "descriptor %q", desc)
	}
}

func TestParseMethodDescriptorArgCount(t *testing.T) {
	md := ParseMethodDescriptor("(ILjava/lang/String;[JD)I")
	assert.Equal(t, 4, md.ArgCount)
	assert.False(t, md.IsVoidReturn())
	assert.Equal(t, byte('I'), md.ReturnKind)
}

func TestParseMethodDescriptorVoidNoArgs(t *testing.T) {
	md := ParseMethodDescriptor("()V")
	assert.Equal(t, 0, md.ArgCount)
	assert.True(t, md.IsVoidReturn())
}

func TestClassNameFromReferenceDescriptor(t *testing.T) {
	assert.Equal(t, "java/lang/Object", ClassNameFromReferenceDescriptor("Ljava/lang/Object;"))
	assert.Equal(t, "java/lang/Object", ClassNameFromReferenceDescriptor("java/lang/Object"))
}

func TestArrayComponentDescriptor(t *testing.T) {
	comp, ok := ArrayComponentDescriptor("[[I")
	require.True(t, ok)
	assert.Equal(t, "[I", comp)

	_, ok = ArrayComponentDescriptor("I")
	assert.False(t, ok)
}
