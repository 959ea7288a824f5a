package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalClassFile hand-assembles a minimal but well-formed .class
// byte stream: one class extending java/lang/Object, one static int field
// "x" with a ConstantValue of 42, and one method "main()V" whose body is a
// single RETURN instruction (0xb1).
func buildMinimalClassFile(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer

	w := func(v any) {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, v))
	}
	utf8 := func(s string) {
		w(uint8(TagUtf8))
		w(uint16(len(s)))
		buf.WriteString(s)
	}

	w(uint32(0xCAFEBABE))
	w(uint16(0)) // minor
	w(uint16(61)) // major

	// Constant pool: 11 real entries, so count = 12.
	w(uint16(12))
	utf8("Test")                 // 1
	w(uint8(TagClass)); w(uint16(1)) // 2 -> Class "Test"
	utf8("java/lang/Object")     // 3
	w(uint8(TagClass)); w(uint16(3)) // 4 -> Class "java/lang/Object"
	utf8("x")                    // 5
	utf8("I")                    // 6
	utf8("ConstantValue")        // 7
	w(uint8(TagInteger)); w(uint32(42)) // 8
	utf8("main")                 // 9
	utf8("()V")                  // 10
	utf8("Code")                 // 11

	w(uint16(0x0021)) // access_flags: public super
	w(uint16(2))       // this_class -> "Test"
	w(uint16(4))       // super_class -> "java/lang/Object"
	w(uint16(0))       // interfaces_count

	// fields_count = 1
	w(uint16(1))
	w(uint16(0x0008)) // access_flags: static
	w(uint16(5))      // name_index -> "x"
	w(uint16(6))      // descriptor_index -> "I"
	w(uint16(1))      // attributes_count
	w(uint16(7))      // attribute_name_index -> "ConstantValue"
	w(uint32(2))      // attribute_length
	w(uint16(8))      // constantvalue_index -> Integer 42

	// methods_count = 1
	w(uint16(1))
	w(uint16(0x0009)) // access_flags: public static
	w(uint16(9))      // name_index -> "main"
	w(uint16(10))     // descriptor_index -> "()V"
	w(uint16(1))      // attributes_count
	w(uint16(11))     // attribute_name_index -> "Code"
	code := []byte{0xb1} // RETURN
	codeAttrLen := 2 + 2 + 4 + len(code) + 2 + 2 // max_stack+max_locals+code_length+code+exc_count+attr_count
	w(uint32(codeAttrLen))
	w(uint16(1)) // max_stack
	w(uint16(1)) // max_locals
	w(uint32(len(code)))
	buf.Write(code)
	w(uint16(0)) // exception_table_length
	w(uint16(0)) // attributes_count (nested)

	w(uint16(0)) // class attributes_count

	return buf.Bytes()
}

func TestParseMinimalClassFile(t *testing.T) {
	raw := buildMinimalClassFile(t)
	cf, err := Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Test", cf.ThisClass)
	assert.Equal(t, "java/lang/Object", cf.SuperClass)
	assert.Empty(t, cf.Interfaces)

	require.Len(t, cf.Fields, 1)
	assert.Equal(t, "x", cf.Fields[0].Name)
	assert.Equal(t, "I", cf.Fields[0].Descriptor)
	assert.NotZero(t, cf.Fields[0].ConstantValueIndex)
	assert.Equal(t, int32(42), cf.ConstantPool[cf.Fields[0].ConstantValueIndex].IntValue)

	require.Len(t, cf.Methods, 1)
	assert.Equal(t, "main", cf.Methods[0].Name)
	assert.Equal(t, "()V", cf.Methods[0].Descriptor)
	require.NotNil(t, cf.Methods[0].Code)
	assert.Equal(t, []byte{0xb1}, cf.Methods[0].Code.Code)
	assert.Equal(t, uint16(1), cf.Methods[0].Code.MaxStack)
	assert.Equal(t, uint16(1), cf.Methods[0].Code.MaxLocals)
}

func TestParseRejectsBadMagic(t *testing.T) {
	raw := buildMinimalClassFile(t)
	raw[0] = 0x00
	_, err := Parse(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestParseAbstractMethodNeedsNoCode(t *testing.T) {
	var buf bytes.Buffer
	w := func(v any) { require.NoError(t, binary.Write(&buf, binary.BigEndian, v)) }
	utf8 := func(s string) {
		w(uint8(TagUtf8))
		w(uint16(len(s)))
		buf.WriteString(s)
	}

	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(uint16(61))

	w(uint16(6))
	utf8("Iface")             // 1
	w(uint8(TagClass)); w(uint16(1)) // 2
	utf8("foo")                // 3
	utf8("()V")                 // 4
	utf8("java/lang/Object")    // 5 (unused by super, kept simple: super=0)

	w(uint16(0x0601)) // interface | abstract | public
	w(uint16(2))       // this_class
	w(uint16(0))       // super_class (none)
	w(uint16(0))       // interfaces_count
	w(uint16(0))       // fields_count

	w(uint16(1)) // methods_count
	w(uint16(0x0401)) // public abstract
	w(uint16(3))       // name -> "foo"
	w(uint16(4))       // descriptor -> "()V"
	w(uint16(0))       // attributes_count (no Code, it's abstract)

	w(uint16(0)) // class attributes_count

	cf, err := Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, cf.Methods, 1)
	assert.Nil(t, cf.Methods[0].Code)
}
