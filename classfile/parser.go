package classfile

import (
	"encoding/binary"
	"io"

	"corevm/vmerrors"
)

const classMagic = 0xCAFEBABE

// Parse reads a .class file from r and returns its parsed record.
func Parse(r io.Reader) (*ClassFile, error) {
	cf := &ClassFile{}

	var magic uint32
	if err := readBE(r, &magic); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading magic number")
	}
	if magic != classMagic {
		return nil, vmerrors.New(vmerrors.MalformedClassFile, "invalid magic number 0x%X", magic)
	}

	if err := readBE(r, &cf.MinorVersion); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading minor version")
	}
	if err := readBE(r, &cf.MajorVersion); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading major version")
	}

	pool, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}
	cf.ConstantPool = pool

	var thisIdx, superIdx uint16
	if err := readBE(r, &cf.AccessFlags); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading access flags")
	}
	if err := readBE(r, &thisIdx); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading this_class")
	}
	if err := readBE(r, &superIdx); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading super_class")
	}
	cf.ThisClass, err = classNameAt(pool, thisIdx)
	if err != nil {
		return nil, err
	}
	if superIdx != 0 {
		cf.SuperClass, err = classNameAt(pool, superIdx)
		if err != nil {
			return nil, err
		}
	}

	var ifaceCount uint16
	if err := readBE(r, &ifaceCount); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading interfaces_count")
	}
	cf.Interfaces = make([]string, ifaceCount)
	for i := range cf.Interfaces {
		var idx uint16
		if err := readBE(r, &idx); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading interface %d", i)
		}
		name, err := classNameAt(pool, idx)
		if err != nil {
			return nil, err
		}
		cf.Interfaces[i] = name
	}

	cf.Fields, err = parseFields(r, pool)
	if err != nil {
		return nil, err
	}
	cf.Methods, err = parseMethods(r, pool)
	if err != nil {
		return nil, err
	}

	// Class-level attributes: nothing at this level is honoured; skip by
	// declared length.
	var attrCount uint16
	if err := readBE(r, &attrCount); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading class attributes_count")
	}
	for i := uint16(0); i < attrCount; i++ {
		if _, _, err := skipAttribute(r); err != nil {
			return nil, err
		}
	}

	return cf, nil
}

func parseFields(r io.Reader, pool []CpEntry) ([]FieldInfo, error) {
	var count uint16
	if err := readBE(r, &count); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading fields_count")
	}
	fields := make([]FieldInfo, count)
	for i := range fields {
		var access, nameIdx, descIdx, attrCount uint16
		if err := readBE(r, &access); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading field %d access_flags", i)
		}
		if err := readBE(r, &nameIdx); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading field %d name_index", i)
		}
		if err := readBE(r, &descIdx); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading field %d descriptor_index", i)
		}
		name, err := utf8At(pool, nameIdx)
		if err != nil {
			return nil, err
		}
		desc, err := utf8At(pool, descIdx)
		if err != nil {
			return nil, err
		}
		fi := FieldInfo{AccessFlags: access, Name: name, Descriptor: desc}

		if err := readBE(r, &attrCount); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading field %d attributes_count", i)
		}
		for a := uint16(0); a < attrCount; a++ {
			attrName, data, err := readAttributeRaw(r, pool)
			if err != nil {
				return nil, err
			}
			if attrName == "ConstantValue" && len(data) == 2 {
				fi.ConstantValueIndex = binary.BigEndian.Uint16(data)
			}
		}
		fields[i] = fi
	}
	return fields, nil
}

func parseMethods(r io.Reader, pool []CpEntry) ([]MethodInfo, error) {
	var count uint16
	if err := readBE(r, &count); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading methods_count")
	}
	methods := make([]MethodInfo, count)
	for i := range methods {
		var access, nameIdx, descIdx, attrCount uint16
		if err := readBE(r, &access); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading method %d access_flags", i)
		}
		if err := readBE(r, &nameIdx); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading method %d name_index", i)
		}
		if err := readBE(r, &descIdx); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading method %d descriptor_index", i)
		}
		name, err := utf8At(pool, nameIdx)
		if err != nil {
			return nil, err
		}
		desc, err := utf8At(pool, descIdx)
		if err != nil {
			return nil, err
		}
		mi := MethodInfo{AccessFlags: access, Name: name, Descriptor: desc}

		if err := readBE(r, &attrCount); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading method %d attributes_count", i)
		}
		for a := uint16(0); a < attrCount; a++ {
			attrName, data, err := readAttributeRaw(r, pool)
			if err != nil {
				return nil, err
			}
			if attrName == "Code" {
				code, err := parseCodeAttribute(data)
				if err != nil {
					return nil, err
				}
				mi.Code = code
			}
		}

		isAbstract := access&AccAbstract != 0
		isNative := access&AccNative != 0
		if mi.Code == nil && !isAbstract && !isNative {
			return nil, vmerrors.New(vmerrors.MalformedMethod,
				"%s%s is neither abstract nor native but has no Code attribute", name, desc)
		}
		methods[i] = mi
	}
	return methods, nil
}

// parseCodeAttribute decodes the portion of the Code attribute this
// interpreter needs: max_stack, max_locals, and the raw bytecode. The
// exception table and nested attributes (LineNumberTable etc.) are
// skipped, per the "no exception-handler tables" non-goal.
func parseCodeAttribute(data []byte) (*CodeAttribute, error) {
	if len(data) < 8 {
		return nil, vmerrors.New(vmerrors.MalformedMethod, "Code attribute too short")
	}
	maxStack := binary.BigEndian.Uint16(data[0:2])
	maxLocals := binary.BigEndian.Uint16(data[2:4])
	codeLen := binary.BigEndian.Uint32(data[4:8])
	off := 8
	if uint32(len(data)-off) < codeLen {
		return nil, vmerrors.New(vmerrors.MalformedMethod, "Code attribute truncated code array")
	}
	code := make([]byte, codeLen)
	copy(code, data[off:off+int(codeLen)])
	return &CodeAttribute{MaxStack: maxStack, MaxLocals: maxLocals, Code: code}, nil
}

func readBE(r io.Reader, v any) error {
	return binary.Read(r, binary.BigEndian, v)
}

func classNameAt(pool []CpEntry, idx uint16) (string, error) {
	if idx == 0 {
		return "", nil
	}
	if int(idx) >= len(pool) || pool[idx].Tag != TagClass {
		return "", vmerrors.New(vmerrors.MalformedConstPool, "index %d is not a Class entry", idx)
	}
	return utf8At(pool, pool[idx].NameIndex)
}

func utf8At(pool []CpEntry, idx uint16) (string, error) {
	if int(idx) >= len(pool) || pool[idx].Tag != TagUtf8 {
		return "", vmerrors.New(vmerrors.MalformedConstPool, "index %d is not a Utf8 entry", idx)
	}
	return pool[idx].Utf8Value, nil
}

// skipAttribute reads one generic attribute (name_index + length + data)
// and discards it, returning the length of its body. The name index is not
// resolved, so the returned name is always "".
func skipAttribute(r io.Reader) (string, int, error) {
	var nameIdx uint16
	var length uint32
	if err := readBE(r, &nameIdx); err != nil {
		return "", 0, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading attribute name_index")
	}
	if err := readBE(r, &length); err != nil {
		return "", 0, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading attribute length")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", 0, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading attribute body")
	}
	return "", int(length), nil
}

// readAttributeRaw reads one attribute (name_index + length + data),
// resolves the name against pool, and returns the name with the raw body.
// Only Code and ConstantValue are ever inspected further by the caller;
// everything else is effectively skipped once read.
func readAttributeRaw(r io.Reader, pool []CpEntry) (string, []byte, error) {
	var nameIdx uint16
	var length uint32
	if err := readBE(r, &nameIdx); err != nil {
		return "", nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading attribute name_index")
	}
	if err := readBE(r, &length); err != nil {
		return "", nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading attribute length")
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading attribute body")
	}
	name, err := utf8At(pool, nameIdx)
	if err != nil {
		return "", nil, err
	}
	return name, data, nil
}

