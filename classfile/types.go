// Package classfile parses the standard class-file binary layout into an
// immutable ClassFile record: magic, version, constant pool, access flags,
// super/interfaces, fields, methods, and the Code/ConstantValue attributes.
// Per spec.md §1 this is a pluggable external collaborator to the core
// engine, but a runnable repository needs a concrete default, built here
// in the teacher's hand-rolled-binary-decode style (no parser generator),
// grounded on daimatz-gojvm's pkg/classfile, the one complete class-file
// reader in the retrieved corpus.
package classfile

// Constant pool tags, per spec.md §6.
const (
	TagUtf8               = 1
	TagInteger             = 3
	TagFloat               = 4
	TagLong                = 5
	TagDouble              = 6
	TagClass               = 7
	TagString              = 8
	TagFieldref            = 9
	TagMethodref           = 10
	TagInterfaceMethodref  = 11
	TagNameAndType         = 12
	TagMethodHandle        = 15
	TagMethodType          = 16
	TagDynamic             = 17
	TagInvokeDynamic       = 18
	TagModule              = 19
	TagPackage             = 20
)

// Access flag bits shared by classes, fields and methods (the subset this
// interpreter inspects).
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccNative     = 0x0100
)

// CpEntry is one raw, unresolved constant-pool slot. Only the fields
// relevant to Entry's Tag are populated; two-slot entries (Long, Double)
// occupy their own index and leave the following index unused, per the
// class-file format.
type CpEntry struct {
	Tag uint8

	Utf8Value string // TagUtf8

	IntValue    int32   // TagInteger
	FloatValue  float32 // TagFloat
	LongValue   int64   // TagLong
	DoubleValue float64 // TagDouble

	NameIndex uint16 // TagClass, TagString (-> utf8), TagNameAndType (name part)

	ClassIndex       uint16 // TagFieldref/Methodref/InterfaceMethodref
	NameAndTypeIndex uint16 // TagFieldref/Methodref/InterfaceMethodref

	DescriptorIndex uint16 // TagNameAndType (descriptor part)
}

// FieldInfo is one declared field, with its ConstantValue attribute (if
// any) resolved to a raw constant-pool index.
type FieldInfo struct {
	AccessFlags        uint16
	Name               string
	Descriptor         string
	ConstantValueIndex uint16 // 0 if absent
}

// CodeAttribute is the method body: max stack/locals and raw bytecode.
// Exception tables are parsed-and-discarded (no exception-handler tables,
// per non-goals).
type CodeAttribute struct {
	MaxStack  uint16
	MaxLocals uint16
	Code      []byte
}

// MethodInfo is one declared method.
type MethodInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Code        *CodeAttribute // nil for native/abstract methods
}

// ClassFile is the fully parsed, immutable record spec.md treats as the
// class loader's output.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool []CpEntry // 1-indexed; index 0 is an unused placeholder
	AccessFlags  uint16
	ThisClass    string
	SuperClass   string // "" for java/lang/Object
	Interfaces   []string
	Fields       []FieldInfo
	Methods      []MethodInfo
}
