package object

import (
	"corevm/cell"
	"corevm/types"
	"corevm/vmerrors"
)

// Array is implemented by every typed array kind the heap can allocate.
// Every kind exposes length, indexed get/put, and a self-describing
// descriptor string (e.g. "[I", "[Ljava/lang/Object;"), per spec.md §3.
type Array interface {
	Length() int32
	Get(index int32) (types.Value, error)
	Put(index int32, v types.Value) error
	Descriptor() string
}

func checkBounds(index, length int32) error {
	if index < 0 || index >= length {
		return vmerrors.New(vmerrors.OutOfBoundsIndex, "array index %d out of bounds for length %d", index, length)
	}
	return nil
}

// RefArray holds reference-typed elements behind shared cells, so array
// elements participate in the same interior-mutability story as fields.
type RefArray struct {
	elemDesc string
	elems    []*cell.Cell
}

func NewRefArray(length int32, elemDesc string) *RefArray {
	elems := make([]*cell.Cell, length)
	for i := range elems {
		elems[i] = cell.New(types.NewReference(0))
	}
	return &RefArray{elemDesc: elemDesc, elems: elems}
}

func (a *RefArray) Length() int32 { return int32(len(a.elems)) }
func (a *RefArray) Descriptor() string {
	if len(a.elemDesc) > 0 && (a.elemDesc[0] == 'L' || a.elemDesc[0] == '[') {
		return "[" + a.elemDesc
	}
	return "[L" + a.elemDesc + ";"
}
func (a *RefArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return a.elems[i].Get(), nil
}
func (a *RefArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	if v.Kind != types.KindReference {
		return vmerrors.New(vmerrors.TypeMismatch, "reference array store requires a reference value, got %s", v.Kind)
	}
	a.elems[i].Put(v)
	return nil
}

// primitive array kinds: compact native storage, no per-element cell.

type IntArray struct{ data []int32 }

func NewIntArray(length int32) *IntArray { return &IntArray{data: make([]int32, length)} }
func (a *IntArray) Length() int32        { return int32(len(a.data)) }
func (a *IntArray) Descriptor() string   { return "[I" }
func (a *IntArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return types.NewInt(a.data[i]), nil
}
func (a *IntArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	if v.Kind != types.KindInt {
		return vmerrors.New(vmerrors.TypeMismatch, "int array store requires Int, got %s", v.Kind)
	}
	a.data[i] = v.Int
	return nil
}

type LongArray struct{ data []int64 }

func NewLongArray(length int32) *LongArray { return &LongArray{data: make([]int64, length)} }
func (a *LongArray) Length() int32         { return int32(len(a.data)) }
func (a *LongArray) Descriptor() string    { return "[J" }
func (a *LongArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return types.NewLong(a.data[i]), nil
}
func (a *LongArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	if v.Kind != types.KindLong {
		return vmerrors.New(vmerrors.TypeMismatch, "long array store requires Long, got %s", v.Kind)
	}
	a.data[i] = v.Long
	return nil
}

type ByteArray struct{ data []int8 }

func NewByteArray(length int32) *ByteArray { return &ByteArray{data: make([]int8, length)} }
func (a *ByteArray) Length() int32         { return int32(len(a.data)) }
func (a *ByteArray) Descriptor() string    { return "[B" }
func (a *ByteArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return types.NewByte(a.data[i]), nil
}
func (a *ByteArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	switch v.Kind {
	case types.KindByte:
		a.data[i] = v.Byte
	case types.KindInt:
		a.data[i] = int8(v.Int)
	default:
		return vmerrors.New(vmerrors.TypeMismatch, "byte array store requires Byte/Int, got %s", v.Kind)
	}
	return nil
}

type ShortArray struct{ data []int16 }

func NewShortArray(length int32) *ShortArray { return &ShortArray{data: make([]int16, length)} }
func (a *ShortArray) Length() int32          { return int32(len(a.data)) }
func (a *ShortArray) Descriptor() string     { return "[S" }
func (a *ShortArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return types.NewShort(a.data[i]), nil
}
func (a *ShortArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	if v.Kind != types.KindShort && v.Kind != types.KindInt {
		return vmerrors.New(vmerrors.TypeMismatch, "short array store requires Short/Int, got %s", v.Kind)
	}
	if v.Kind == types.KindShort {
		a.data[i] = v.Short
	} else {
		a.data[i] = int16(v.Int)
	}
	return nil
}

type CharArray struct{ data []uint16 }

func NewCharArray(length int32) *CharArray { return &CharArray{data: make([]uint16, length)} }
func (a *CharArray) Length() int32         { return int32(len(a.data)) }
func (a *CharArray) Descriptor() string    { return "[C" }
func (a *CharArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return types.NewChar(a.data[i]), nil
}
func (a *CharArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	switch v.Kind {
	case types.KindChar:
		a.data[i] = v.Char
	case types.KindInt:
		a.data[i] = uint16(v.Int)
	default:
		return vmerrors.New(vmerrors.TypeMismatch, "char array store requires Char/Int, got %s", v.Kind)
	}
	return nil
}

type FloatArray struct{ data []float32 }

func NewFloatArray(length int32) *FloatArray { return &FloatArray{data: make([]float32, length)} }
func (a *FloatArray) Length() int32          { return int32(len(a.data)) }
func (a *FloatArray) Descriptor() string     { return "[F" }
func (a *FloatArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return types.NewFloat(a.data[i]), nil
}
func (a *FloatArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	if v.Kind != types.KindFloat {
		return vmerrors.New(vmerrors.TypeMismatch, "float array store requires Float, got %s", v.Kind)
	}
	a.data[i] = v.Float
	return nil
}

type DoubleArray struct{ data []float64 }

func NewDoubleArray(length int32) *DoubleArray { return &DoubleArray{data: make([]float64, length)} }
func (a *DoubleArray) Length() int32           { return int32(len(a.data)) }
func (a *DoubleArray) Descriptor() string      { return "[D" }
func (a *DoubleArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.Length()); err != nil {
		return types.Value{}, err
	}
	return types.NewDouble(a.data[i]), nil
}
func (a *DoubleArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.Length()); err != nil {
		return err
	}
	if v.Kind != types.KindDouble {
		return vmerrors.New(vmerrors.TypeMismatch, "double array store requires Double, got %s", v.Kind)
	}
	a.data[i] = v.Double
	return nil
}

// BoolArray uses a packed bit representation, one bit per element,
// MSB-first within each byte, per spec.md §3.
type BoolArray struct {
	length int32
	bits   []byte
}

func NewBoolArray(length int32) *BoolArray {
	return &BoolArray{length: length, bits: make([]byte, (length+7)/8)}
}
func (a *BoolArray) Length() int32     { return a.length }
func (a *BoolArray) Descriptor() string { return "[Z" }
func (a *BoolArray) Get(i int32) (types.Value, error) {
	if err := checkBounds(i, a.length); err != nil {
		return types.Value{}, err
	}
	byteIdx := i / 8
	bitIdx := uint(7 - (i % 8))
	if a.bits[byteIdx]&(1<<bitIdx) != 0 {
		return types.NewInt(1), nil
	}
	return types.NewInt(0), nil
}
func (a *BoolArray) Put(i int32, v types.Value) error {
	if err := checkBounds(i, a.length); err != nil {
		return err
	}
	if v.Kind != types.KindInt {
		return vmerrors.New(vmerrors.TypeMismatch, "boolean array store requires Int(0/1), got %s", v.Kind)
	}
	byteIdx := i / 8
	bitIdx := uint(7 - (i % 8))
	if v.Int != 0 {
		a.bits[byteIdx] |= 1 << bitIdx
	} else {
		a.bits[byteIdx] &^= 1 << bitIdx
	}
	return nil
}

// NewTypedArray dispatches on a descriptor's leading character to the
// appropriate typed array constructor, per spec.md §4.1's alloc_array.
// atype is used only for the newarray bytecode's numeric primitive
// selector (4..11); elemDesc covers anewarray's reference element case.
func NewTypedArray(length int32, elemDesc string) (Array, error) {
	if len(elemDesc) == 0 {
		return nil, vmerrors.New(vmerrors.TypeMismatch, "empty array element descriptor")
	}
	switch elemDesc[0] {
	case 'I':
		return NewIntArray(length), nil
	case 'J':
		return NewLongArray(length), nil
	case 'B':
		return NewByteArray(length), nil
	case 'S':
		return NewShortArray(length), nil
	case 'C':
		return NewCharArray(length), nil
	case 'F':
		return NewFloatArray(length), nil
	case 'D':
		return NewDoubleArray(length), nil
	case 'Z':
		return NewBoolArray(length), nil
	case 'L', '[':
		return NewRefArray(length, elemDesc), nil
	default:
		return nil, vmerrors.New(vmerrors.TypeMismatch, "unknown array element descriptor %q", elemDesc)
	}
}

// NewTypedArrayFromAtype dispatches on the newarray bytecode's atype byte
// (4..11), per the JVM specification's fixed mapping.
func NewTypedArrayFromAtype(length int32, atype byte) (Array, error) {
	switch atype {
	case 4:
		return NewBoolArray(length), nil
	case 5:
		return NewCharArray(length), nil
	case 6:
		return NewFloatArray(length), nil
	case 7:
		return NewDoubleArray(length), nil
	case 8:
		return NewByteArray(length), nil
	case 9:
		return NewShortArray(length), nil
	case 10:
		return NewIntArray(length), nil
	case 11:
		return NewLongArray(length), nil
	default:
		return nil, vmerrors.New(vmerrors.TypeMismatch, "unknown newarray atype %d", atype)
	}
}
