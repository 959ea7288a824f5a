// Package types defines the runtime slot representation shared by every
// other package in the interpreter: the tagged Value union, its category
// (one-slot vs two-slot), and the method-descriptor scanner.
package types

import "fmt"

// Kind tags the nine cases a Value can hold.
type Kind uint8

const (
	KindByte Kind = iota
	KindShort
	KindInt
	KindLong
	KindChar
	KindFloat
	KindDouble
	KindReference
	KindReturnAddress
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindChar:
		return "char"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindReference:
		return "reference"
	case KindReturnAddress:
		return "returnAddress"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Category distinguishes slot width: Two occupies two local/operand slots.
type Category uint8

const (
	CategoryOne Category = 1
	CategoryTwo Category = 2
)

// Value is the tagged variant carried on the operand stack and in locals,
// static fields, instance fields and array elements. It is always copied
// by value; shared mutable storage goes through cell.Cell instead.
type Value struct {
	Kind   Kind
	Byte   int8
	Short  int16
	Int    int32
	Long   int64
	Char   uint16
	Float  float32
	Double float64
	Ref    int32 // heap index; 0 is the null sentinel
	RetPC  int   // ReturnAddress target
}

// Null is the canonical null reference value (heap index 0).
var Null = Value{Kind: KindReference, Ref: 0}

func NewByte(v int8) Value          { return Value{Kind: KindByte, Byte: v} }
func NewShort(v int16) Value        { return Value{Kind: KindShort, Short: v} }
func NewInt(v int32) Value          { return Value{Kind: KindInt, Int: v} }
func NewLong(v int64) Value         { return Value{Kind: KindLong, Long: v} }
func NewChar(v uint16) Value        { return Value{Kind: KindChar, Char: v} }
func NewFloat(v float32) Value      { return Value{Kind: KindFloat, Float: v} }
func NewDouble(v float64) Value     { return Value{Kind: KindDouble, Double: v} }
func NewReference(idx int32) Value  { return Value{Kind: KindReference, Ref: idx} }
func NewReturnAddress(pc int) Value { return Value{Kind: KindReturnAddress, RetPC: pc} }

// Category returns CategoryTwo for Long/Double, CategoryOne otherwise.
func (v Value) Category() Category {
	if v.Kind == KindLong || v.Kind == KindDouble {
		return CategoryTwo
	}
	return CategoryOne
}

// IsNull reports whether v is the null reference.
func (v Value) IsNull() bool {
	return v.Kind == KindReference && v.Ref == 0
}

func (v Value) String() string {
	switch v.Kind {
	case KindByte:
		return fmt.Sprintf("Byte(%d)", v.Byte)
	case KindShort:
		return fmt.Sprintf("Short(%d)", v.Short)
	case KindInt:
		return fmt.Sprintf("Int(%d)", v.Int)
	case KindLong:
		return fmt.Sprintf("Long(%d)", v.Long)
	case KindChar:
		return fmt.Sprintf("Char(%d)", v.Char)
	case KindFloat:
		return fmt.Sprintf("Float(%g)", v.Float)
	case KindDouble:
		return fmt.Sprintf("Double(%g)", v.Double)
	case KindReference:
		return fmt.Sprintf("Reference(%d)", v.Ref)
	case KindReturnAddress:
		return fmt.Sprintf("ReturnAddress(%d)", v.RetPC)
	default:
		return "Value(?)"
	}
}

// DefaultForDescriptor returns the default Value for a field's type
// descriptor, keyed off its leading character, per spec.md's heap
// allocation rules: numeric primitives default to zero, booleans are
// represented as Int(0), references (object or array descriptors)
// default to the null reference.
func DefaultForDescriptor(desc string) Value {
	if desc == "" {
		return NewInt(0)
	}
	switch desc[0] {
	case 'B':
		return NewByte(0)
	case 'S':
		return NewShort(0)
	case 'I', 'Z':
		return NewInt(0)
	case 'J':
		return NewLong(0)
	case 'C':
		return NewChar(0)
	case 'F':
		return NewFloat(0)
	case 'D':
		return NewDouble(0)
	case 'L', '[':
		return NewReference(0)
	default:
		return NewInt(0)
	}
}
