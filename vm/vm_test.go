package vm

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corevm/types"
	"corevm/vmerrors"
)

// writeMinimalStaticIntMethodClass hand-assembles a .class file declaring
// one public static method "main()I" whose body is `bipush 42; ireturn`,
// and writes it to <dir>/<className>.class for classpath.DirLoader to pick
// up. The class declares no superclass, so the classpath needs no
// java/lang/Object.
func writeMinimalStaticIntMethodClass(t *testing.T, dir, className string) {
	t.Helper()
	var buf bytes.Buffer
	w := func(v any) { require.NoError(t, binary.Write(&buf, binary.BigEndian, v)) }
	utf8 := func(s string) {
		w(uint8(1)) // TagUtf8
		w(uint16(len(s)))
		buf.WriteString(s)
	}

	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(uint16(61))

	w(uint16(8)) // constant_pool_count
	utf8(className)                 // 1
	w(uint8(7)); w(uint16(1))       // 2: Class -> className
	utf8("java/lang/Object")        // 3
	w(uint8(7)); w(uint16(3))       // 4: Class -> Object
	utf8("main")                    // 5
	utf8("()I")                     // 6
	utf8("Code")                    // 7

	w(uint16(0x0021)) // access_flags
	w(uint16(2))       // this_class
	w(uint16(0))       // super_class (none)
	w(uint16(0))       // interfaces_count
	w(uint16(0))       // fields_count

	w(uint16(1))       // methods_count
	w(uint16(0x0009))  // public static
	w(uint16(5))       // name -> "main"
	w(uint16(6))       // descriptor -> "()I"
	w(uint16(1))       // attributes_count
	w(uint16(7))       // "Code"
	code := []byte{0x10, 0x2a, 0xac} // bipush 42; ireturn
	attrLen := 2 + 2 + 4 + len(code) + 2 + 2
	w(uint32(attrLen))
	w(uint16(2)) // max_stack
	w(uint16(0)) // max_locals
	w(uint32(len(code)))
	buf.Write(code)
	w(uint16(0)) // exception_table_length
	w(uint16(0)) // nested attributes_count

	w(uint16(0)) // class attributes_count

	path := filepath.Join(dir, className+".class")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestVMExecuteRunsBootstrapMethodToCompletion(t *testing.T) {
	dir := t.TempDir()
	writeMinimalStaticIntMethodClass(t, dir, "Calc")

	v, err := New(dir)
	require.NoError(t, err)

	result, err := v.Execute("Calc", "main", "()I", nil)
	require.NoError(t, err)
	assert.Equal(t, types.KindInt, result.Kind)
	assert.Equal(t, int32(42), result.Int)
}

func TestNewRejectsMissingClasspathEntry(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestNewAcceptsEmptyClasspath(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)
	assert.NotNil(t, v.Heap)
	assert.NotNil(t, v.MethodArea)
	assert.NotNil(t, v.Thread)
}

func TestExecuteOnMissingClassIsClassNotFound(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)
	_, err = v.Execute("DoesNotExist", "main", "()V", nil)
	require.Error(t, err)
	assert.True(t, vmerrors.Is(err, vmerrors.ClassNotFound))
}
