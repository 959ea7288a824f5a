package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetSplitsThreeParts(t *testing.T) {
	class, method, descriptor, err := parseTarget("com/example/Calc#add#(II)I")
	require.NoError(t, err)
	assert.Equal(t, "com/example/Calc", class)
	assert.Equal(t, "add", method)
	assert.Equal(t, "(II)I", descriptor)
}

func TestParseTargetRejectsTooFewParts(t *testing.T) {
	_, _, _, err := parseTarget("com/example/Calc#add")
	assert.Error(t, err)
}

func TestParseTargetRejectsNoSeparators(t *testing.T) {
	_, _, _, err := parseTarget("just-a-string")
	assert.Error(t, err)
}
