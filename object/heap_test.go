package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corevm/classfile"
	"corevm/classloader"
	"corevm/types"
)

// stubLoader resolves classes from an in-memory map, for tests that need
// a MethodArea without reading real .class files.
type stubLoader struct {
	classes map[string]*classfile.ClassFile
}

func (s *stubLoader) Load(name string) (*classfile.ClassFile, error) {
	if cf, ok := s.classes[name]; ok {
		return cf, nil
	}
	return nil, assertNotFound(name)
}

func assertNotFound(name string) error {
	return &notFoundErr{name}
}

type notFoundErr struct{ name string }

func (e *notFoundErr) Error() string { return "not found: " + e.name }

func newTestMethodArea(classes ...*classfile.ClassFile) *classloader.MethodArea {
	m := make(map[string]*classfile.ClassFile)
	for _, cf := range classes {
		m[cf.ThisClass] = cf
	}
	return classloader.NewMethodArea(&stubLoader{classes: m})
}

func baseObjectClassFile() *classfile.ClassFile {
	return &classfile.ClassFile{ThisClass: "java/lang/Object"}
}

func simpleClassFile(name, super string, fields []classfile.FieldInfo) *classfile.ClassFile {
	return &classfile.ClassFile{ThisClass: name, SuperClass: super, Fields: fields}
}

func TestAllocObjectInstallsOwnAndInheritedFields(t *testing.T) {
	base := baseObjectClassFile()
	parent := simpleClassFile("Parent", "java/lang/Object", []classfile.FieldInfo{
		{Name: "x", Descriptor: "J"},
	})
	child := simpleClassFile("Child", "Parent", []classfile.FieldInfo{
		{Name: "x", Descriptor: "I"},
	})
	ma := newTestMethodArea(base, parent, child)
	class, err := ma.ResolveClass("Child")
	require.NoError(t, err)

	heap := NewHeap()
	ref, err := heap.AllocObject(class, ma)
	require.NoError(t, err)

	slot, err := heap.Get(ref.Ref)
	require.NoError(t, err)
	require.Equal(t, RefObject, slot.Kind)

	cell, err := slot.Object.GetField("Child", "x")
	require.NoError(t, err)
	assert.Equal(t, int32(0), cell.Get().Int)

	inherited, err := slot.Object.GetField("Parent", "x")
	require.NoError(t, err)
	assert.Equal(t, types.KindLong, inherited.Get().Kind)
}

func TestGetFieldMissingIsNoSuchField(t *testing.T) {
	base := baseObjectClassFile()
	child := simpleClassFile("Child", "java/lang/Object", nil)
	ma := newTestMethodArea(base, child)
	class, err := ma.ResolveClass("Child")
	require.NoError(t, err)

	heap := NewHeap()
	ref, err := heap.AllocObject(class, ma)
	require.NoError(t, err)
	slot, _ := heap.Get(ref.Ref)

	_, err = slot.Object.GetField("Child", "missing")
	assert.Error(t, err)
}

func TestIsInstanceOfObjectSubclass(t *testing.T) {
	base := baseObjectClassFile()
	parent := simpleClassFile("Parent", "java/lang/Object", nil)
	child := simpleClassFile("Child", "Parent", nil)
	ma := newTestMethodArea(base, parent, child)
	class, err := ma.ResolveClass("Child")
	require.NoError(t, err)

	heap := NewHeap()
	ref, err := heap.AllocObject(class, ma)
	require.NoError(t, err)

	ok, err := heap.IsInstanceOf(ref, "Parent", ma)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = heap.IsInstanceOf(ref, "Unrelated", ma)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsInstanceOfNullIsAlwaysFalse(t *testing.T) {
	heap := NewHeap()
	ma := newTestMethodArea(baseObjectClassFile())
	ok, err := heap.IsInstanceOf(types.Null, "java/lang/Object", ma)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllocArrayAndArrayLength(t *testing.T) {
	heap := NewHeap()
	ref, err := heap.AllocArray(5, "I")
	require.NoError(t, err)
	slot, err := heap.Get(ref.Ref)
	require.NoError(t, err)
	require.Equal(t, RefArrayKind, slot.Kind)
	assert.Equal(t, int32(5), slot.Array.Length())
}
