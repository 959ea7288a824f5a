// Package classloader implements the resolved Class record, its
// run-time constant pool, and the method area: the class registry that
// resolves symbolic references and mediates field/method lookup
// (spec.md §4.3, §4.4). It mirrors the teacher's own classloader
// package, which plays the same dual role (class representation +
// method-area registry) in a single package.
package classloader

import (
	"corevm/classfile"
	"corevm/vmerrors"
)

// CPTag identifies the resolved kind of one RunTimeConstantPool entry.
type CPTag uint8

const (
	CPUtf8 CPTag = iota
	CPInteger
	CPFloat
	CPLong
	CPDouble
	CPClass
	CPString
	CPFieldref
	CPMethodref
	CPInterfaceMethodref
	CPNameAndType
	CPUnsupported
)

// MemberRef is the resolved shape shared by Fieldref, Methodref and
// InterfaceMethodref entries: owning class name, member name, descriptor.
type MemberRef struct {
	Owner string
	Name  string
	Desc  string
}

// RTCPEntry is one fully resolved constant-pool entry (spec.md's
// RunTimeCPInfo): indirection through name/class/name-and-type indices is
// chased once, at class-construction time, so interpreter hot paths never
// walk the raw, unresolved pool.
type RTCPEntry struct {
	Tag CPTag

	Utf8    string
	Integer int32
	Float   float32
	Long    int64
	Double  float64

	ClassName string // CPClass
	StringVal string // CPString (underlying Utf8 value; no string object is materialized, see DESIGN.md)

	Ref MemberRef // CPFieldref / CPMethodref / CPInterfaceMethodref

	NameAndType struct {
		Name string
		Desc string
	}
}

// RunTimeConstantPool is the 1-indexed vector of resolved entries.
type RunTimeConstantPool struct {
	entries []RTCPEntry
}

// Get returns the entry at a 1-based index, asserting it is in bounds.
func (cp *RunTimeConstantPool) Get(index int) (RTCPEntry, error) {
	if index < 1 || index >= len(cp.entries) {
		return RTCPEntry{}, vmerrors.New(vmerrors.OutOfBoundsIndex, "constant pool index %d out of range", index)
	}
	return cp.entries[index], nil
}

// resolveConstantPool walks the raw, unresolved classfile pool and
// produces a RunTimeConstantPool with every indirection chased eagerly,
// per spec.md §4.3 step 1. Entries with recognized-but-skipped tags
// (MethodHandle, MethodType, Dynamic, InvokeDynamic, Module, Package)
// become CPUnsupported — dereferencing one is a MalformedConstantPool
// error, since invokedynamic and method handles are out of scope.
func resolveConstantPool(raw []classfile.CpEntry) (*RunTimeConstantPool, error) {
	out := make([]RTCPEntry, len(raw))
	for i, e := range raw {
		if i == 0 {
			continue
		}
		switch e.Tag {
		case classfile.TagUtf8:
			out[i] = RTCPEntry{Tag: CPUtf8, Utf8: e.Utf8Value}
		case classfile.TagInteger:
			out[i] = RTCPEntry{Tag: CPInteger, Integer: e.IntValue}
		case classfile.TagFloat:
			out[i] = RTCPEntry{Tag: CPFloat, Float: e.FloatValue}
		case classfile.TagLong:
			out[i] = RTCPEntry{Tag: CPLong, Long: e.LongValue}
		case classfile.TagDouble:
			out[i] = RTCPEntry{Tag: CPDouble, Double: e.DoubleValue}
		case classfile.TagClass:
			name, err := utf8At(raw, e.NameIndex)
			if err != nil {
				return nil, err
			}
			out[i] = RTCPEntry{Tag: CPClass, ClassName: name}
		case classfile.TagString:
			s, err := utf8At(raw, e.NameIndex)
			if err != nil {
				return nil, err
			}
			out[i] = RTCPEntry{Tag: CPString, StringVal: s}
		case classfile.TagNameAndType:
			name, err := utf8At(raw, e.NameIndex)
			if err != nil {
				return nil, err
			}
			desc, err := utf8At(raw, e.DescriptorIndex)
			if err != nil {
				return nil, err
			}
			entry := RTCPEntry{Tag: CPNameAndType}
			entry.NameAndType.Name = name
			entry.NameAndType.Desc = desc
			out[i] = entry
		case classfile.TagFieldref, classfile.TagMethodref, classfile.TagInterfaceMethodref:
			ref, err := resolveMemberRef(raw, e)
			if err != nil {
				return nil, err
			}
			tag := CPFieldref
			if e.Tag == classfile.TagMethodref {
				tag = CPMethodref
			} else if e.Tag == classfile.TagInterfaceMethodref {
				tag = CPInterfaceMethodref
			}
			out[i] = RTCPEntry{Tag: tag, Ref: ref}
		default:
			out[i] = RTCPEntry{Tag: CPUnsupported}
		}
	}
	return &RunTimeConstantPool{entries: out}, nil
}

func resolveMemberRef(raw []classfile.CpEntry, e classfile.CpEntry) (MemberRef, error) {
	if int(e.ClassIndex) >= len(raw) || raw[e.ClassIndex].Tag != classfile.TagClass {
		return MemberRef{}, vmerrors.New(vmerrors.MalformedConstPool, "ref class_index does not point to a Class entry")
	}
	owner, err := utf8At(raw, raw[e.ClassIndex].NameIndex)
	if err != nil {
		return MemberRef{}, err
	}
	if int(e.NameAndTypeIndex) >= len(raw) || raw[e.NameAndTypeIndex].Tag != classfile.TagNameAndType {
		return MemberRef{}, vmerrors.New(vmerrors.MalformedConstPool, "ref name_and_type_index does not point to a NameAndType entry")
	}
	nat := raw[e.NameAndTypeIndex]
	name, err := utf8At(raw, nat.NameIndex)
	if err != nil {
		return MemberRef{}, err
	}
	desc, err := utf8At(raw, nat.DescriptorIndex)
	if err != nil {
		return MemberRef{}, err
	}
	return MemberRef{Owner: owner, Name: name, Desc: desc}, nil
}

func utf8At(raw []classfile.CpEntry, idx uint16) (string, error) {
	if int(idx) >= len(raw) || raw[idx].Tag != classfile.TagUtf8 {
		return "", vmerrors.New(vmerrors.MalformedConstPool, "index %d is not a Utf8 entry", idx)
	}
	return raw[idx].Utf8Value, nil
}
