// Package object implements the heap: an indexed store of reference
// targets (objects, arrays, and the null sentinel), per spec.md §3, §4.1.
package object

import (
	"sync"

	"corevm/cell"
	"corevm/classloader"
	"corevm/types"
	"corevm/vmerrors"
)

// RefKind tags what a heap slot actually holds.
type RefKind uint8

const (
	RefNull RefKind = iota
	RefObject
	RefArrayKind
)

// FieldKey names one instance field slot, keyed pairwise by declaring
// class and field name so that a subclass's field never shadows a
// same-named field of its superclass (spec.md §3, §8).
type FieldKey struct {
	DeclaringClass string
	Name           string
}

// Object is a heap-allocated instance: its class plus every instance
// field from itself and all of its supertypes.
type Object struct {
	Class  *classloader.Class
	Fields map[FieldKey]*cell.Cell
}

// RefValue is one heap slot: either Null, an Object, or an Array.
type RefValue struct {
	Kind   RefKind
	Object *Object
	Array  Array
}

// Heap is the VM's reference store, addressed by Value.Ref. Index 0 is
// the immutable null sentinel; references are allocated monotonically —
// there is no reclamation, matching the "classes and heap objects are
// never freed during an execution" resource rule of spec.md §5.
type Heap struct {
	mu    sync.Mutex
	slots []RefValue
}

// NewHeap creates a heap whose index 0 is the null sentinel.
func NewHeap() *Heap {
	return &Heap{slots: []RefValue{{Kind: RefNull}}}
}

// Get returns a pointer to the slot at index, so callers can mutate an
// Array/Object in place.
func (h *Heap) Get(index int32) (*RefValue, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || int(index) >= len(h.slots) {
		return nil, vmerrors.New(vmerrors.OutOfBoundsIndex, "heap index %d out of range", index)
	}
	return &h.slots[index], nil
}

func (h *Heap) append(rv RefValue) types.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := int32(len(h.slots))
	h.slots = append(h.slots, rv)
	return types.NewReference(idx)
}

// AllocObject materializes a new instance of class, walking class and all
// of its superclasses/superinterfaces transitively to install a
// default-valued field cell for every declared instance field, keyed by
// (declaring_class, field_name), per spec.md §4.1, §8.
func (h *Heap) AllocObject(class *classloader.Class, ma *classloader.MethodArea) (types.Value, error) {
	fields := make(map[FieldKey]*cell.Cell)
	if err := collectInstanceFields(class, ma, fields, make(map[string]bool)); err != nil {
		return types.Value{}, err
	}
	obj := &Object{Class: class, Fields: fields}
	return h.append(RefValue{Kind: RefObject, Object: obj}), nil
}

func collectInstanceFields(class *classloader.Class, ma *classloader.MethodArea, out map[FieldKey]*cell.Cell, seen map[string]bool) error {
	if class == nil || seen[class.Name] {
		return nil
	}
	seen[class.Name] = true

	for _, fd := range class.InstanceFields {
		key := FieldKey{DeclaringClass: class.Name, Name: fd.Name}
		out[key] = cell.New(types.DefaultForDescriptor(fd.Descriptor))
	}

	if class.SuperClass != "" {
		super, err := ma.ResolveClass(class.SuperClass)
		if err != nil {
			return err
		}
		if err := collectInstanceFields(super, ma, out, seen); err != nil {
			return err
		}
	}
	for _, ifaceName := range class.Interfaces {
		iface, err := ma.ResolveClass(ifaceName)
		if err != nil {
			return err
		}
		if err := collectInstanceFields(iface, ma, out, seen); err != nil {
			return err
		}
	}
	return nil
}

// AllocArray dispatches on element_descriptor's leading character to the
// typed array constructor and wraps the result in a heap slot, per
// spec.md §4.1's alloc_array.
func (h *Heap) AllocArray(length int32, elementDescriptor string) (types.Value, error) {
	arr, err := NewTypedArray(length, elementDescriptor)
	if err != nil {
		return types.Value{}, err
	}
	return h.append(RefValue{Kind: RefArrayKind, Array: arr}), nil
}

// AllocArrayFromAtype allocates a primitive array selected by newarray's
// atype byte (4..11).
func (h *Heap) AllocArrayFromAtype(length int32, atype byte) (types.Value, error) {
	arr, err := NewTypedArrayFromAtype(length, atype)
	if err != nil {
		return types.Value{}, err
	}
	return h.append(RefValue{Kind: RefArrayKind, Array: arr}), nil
}

// GetField returns the cell for (declaringClass, name) on obj, or
// NoSuchField if it wasn't installed at allocation time.
func (o *Object) GetField(declaringClass, name string) (*cell.Cell, error) {
	c, ok := o.Fields[FieldKey{DeclaringClass: declaringClass, Name: name}]
	if !ok {
		return nil, vmerrors.New(vmerrors.NoSuchField, "%s.%s", declaringClass, name)
	}
	return c, nil
}

// IsInstanceOf implements spec.md §4.1's subtype test.
func (h *Heap) IsInstanceOf(ref types.Value, targetName string, ma *classloader.MethodArea) (bool, error) {
	if ref.Kind != types.KindReference {
		return false, vmerrors.New(vmerrors.TypeMismatch, "is_instance_of requires a reference value")
	}
	if ref.Ref == 0 {
		return false, nil
	}
	slot, err := h.Get(ref.Ref)
	if err != nil {
		return false, err
	}
	switch slot.Kind {
	case RefNull:
		return false, nil
	case RefObject:
		return ma.IsSubclassOf(slot.Object.Class.Name, types.ClassNameFromReferenceDescriptor(targetName))
	case RefArrayKind:
		return isArrayInstanceOf(slot.Array.Descriptor(), targetName, ma)
	default:
		return false, nil
	}
}

func isArrayInstanceOf(arrayDesc, target string, ma *classloader.MethodArea) (bool, error) {
	if len(target) > 0 && target[0] == '[' {
		return arrayComponentsMatch(arrayDesc, target, ma)
	}
	switch target {
	case "java/lang/Object", "java/lang/Cloneable", "java/io/Serializable":
		return true, nil
	default:
		return false, nil
	}
}

func arrayComponentsMatch(arrayDesc, targetDesc string, ma *classloader.MethodArea) (bool, error) {
	for len(arrayDesc) > 0 && len(targetDesc) > 0 && arrayDesc[0] == '[' && targetDesc[0] == '[' {
		arrayDesc = arrayDesc[1:]
		targetDesc = targetDesc[1:]
	}
	if len(arrayDesc) > 0 && arrayDesc[0] == '[' {
		// Still an array on one side but not the other: only true if the
		// target peeled down to a reference type accepted for arrays.
		if len(targetDesc) >= 2 && targetDesc[0] == 'L' {
			name := types.ClassNameFromReferenceDescriptor(targetDesc)
			return name == "java/lang/Object" || name == "java/lang/Cloneable" || name == "java/io/Serializable", nil
		}
		return false, nil
	}
	if len(arrayDesc) >= 2 && arrayDesc[0] == 'L' && len(targetDesc) >= 2 && targetDesc[0] == 'L' {
		return ma.IsSubclassOf(types.ClassNameFromReferenceDescriptor(arrayDesc), types.ClassNameFromReferenceDescriptor(targetDesc))
	}
	// Primitive components must be identical single characters.
	return arrayDesc == targetDesc, nil
}
