package classfile

import (
	"io"
	"math"

	"corevm/vmerrors"
)

// fixedLengthBody gives the number of bytes following the tag byte for
// constant-pool entry kinds not otherwise handled (the "recognized but
// skipped" tags 15-20, per spec.md §6). Dynamic/InvokeDynamic carry a
// bootstrap-method index (u2) and a NameAndType index (u2) = 4 bytes;
// MethodHandle carries reference_kind (u1) + reference_index (u2) = 3
// bytes; MethodType carries a descriptor index (u2) = 2 bytes; Module and
// Package each carry a single name index (u2) = 2 bytes.
func fixedLengthBody(tag uint8) (int, bool) {
	switch tag {
	case TagMethodHandle:
		return 3, true
	case TagMethodType:
		return 2, true
	case TagDynamic, TagInvokeDynamic:
		return 4, true
	case TagModule, TagPackage:
		return 2, true
	default:
		return 0, false
	}
}

// parseConstantPool reads the constant_pool_count and the pool itself,
// producing a 1-indexed slice (index 0 is an unused placeholder, matching
// the class-file format's own 1-based indexing, per spec.md §6).
func parseConstantPool(r io.Reader) ([]CpEntry, error) {
	var count uint16
	if err := readBE(r, &count); err != nil {
		return nil, vmerrors.Wrap(vmerrors.MalformedClassFile, err, "reading constant_pool_count")
	}
	pool := make([]CpEntry, count)
	for i := 1; i < int(count); i++ {
		var tag uint8
		if err := readBE(r, &tag); err != nil {
			return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading tag for CP entry %d", i)
		}
		switch tag {
		case TagUtf8:
			var length uint16
			if err := readBE(r, &length); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading Utf8 length at %d", i)
			}
			buf := make([]byte, length)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading Utf8 bytes at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, Utf8Value: string(buf)}

		case TagInteger:
			var v uint32
			if err := readBE(r, &v); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading Integer at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, IntValue: int32(v)}

		case TagFloat:
			var v uint32
			if err := readBE(r, &v); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading Float at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, FloatValue: bitsToFloat32(v)}

		case TagLong:
			var v uint64
			if err := readBE(r, &v); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading Long at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, LongValue: int64(v)}
			i++ // Long occupies two pool indices

		case TagDouble:
			var v uint64
			if err := readBE(r, &v); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading Double at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, DoubleValue: bitsToFloat64(v)}
			i++ // Double occupies two pool indices

		case TagClass, TagString:
			var idx uint16
			if err := readBE(r, &idx); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading Class/String index at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, NameIndex: idx}

		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			var classIdx, natIdx uint16
			if err := readBE(r, &classIdx); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading ref class_index at %d", i)
			}
			if err := readBE(r, &natIdx); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading ref name_and_type_index at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, ClassIndex: classIdx, NameAndTypeIndex: natIdx}

		case TagNameAndType:
			var nameIdx, descIdx uint16
			if err := readBE(r, &nameIdx); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading NameAndType name_index at %d", i)
			}
			if err := readBE(r, &descIdx); err != nil {
				return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading NameAndType descriptor_index at %d", i)
			}
			pool[i] = CpEntry{Tag: tag, NameIndex: nameIdx, DescriptorIndex: descIdx}

		default:
			if n, ok := fixedLengthBody(tag); ok {
				buf := make([]byte, n)
				if _, err := io.ReadFull(r, buf); err != nil {
					return nil, vmerrors.Wrap(vmerrors.MalformedConstPool, err, "reading skipped CP entry at %d", i)
				}
				pool[i] = CpEntry{Tag: tag}
				continue
			}
			return nil, vmerrors.New(vmerrors.MalformedConstPool, "unknown constant pool tag %d at index %d", tag, i)
		}
	}
	return pool, nil
}

func bitsToFloat32(bits uint32) float32 {
	return math.Float32frombits(bits)
}

func bitsToFloat64(bits uint64) float64 {
	return math.Float64frombits(bits)
}
