package classloader

import (
	"sync"
	"sync/atomic"

	"corevm/cell"
	"corevm/classfile"
	"corevm/trace"
	"corevm/types"
	"corevm/vmerrors"
)

// InitState is one of the four states in the class-initialization state
// machine (spec.md §4.3, §8): BeforeInit -> InProgress -> Succeeded|Failed.
type InitState int32

const (
	BeforeInit InitState = iota
	InProgress
	Succeeded
	Failed
)

// CodeKind distinguishes the three shapes a Method's body can take.
type CodeKind uint8

const (
	CodeJava CodeKind = iota
	CodeNative
	CodeAbstract
)

// Code is the executable form of a method, or lack thereof.
type Code struct {
	Kind      CodeKind
	MaxStack  int
	MaxLocals int
	Bytes     []byte
}

// Method is one declared static or instance method.
type Method struct {
	Name        string
	Descriptor  types.MethodDescriptor
	RawDesc     string
	AccessFlags uint16
	Code        Code
	Owner       string // declaring class's binary name
}

func (m *Method) Signature() string { return m.Name + m.RawDesc }

func (m *Method) IsStatic() bool   { return m.AccessFlags&classfile.AccStatic != 0 }
func (m *Method) IsPrivate() bool  { return m.AccessFlags&classfile.AccPrivate != 0 }
func (m *Method) IsAbstract() bool { return m.AccessFlags&classfile.AccAbstract != 0 }
func (m *Method) IsPublic() bool   { return m.AccessFlags&classfile.AccPublic != 0 }

// FieldDescriptor is the static shape of a non-static field, recorded so
// the heap can materialize it per-instance at object-allocation time.
type FieldDescriptor struct {
	Name       string
	Descriptor string
}

// Class is the resolved form of a loaded class: immutable except for its
// init-state cell, per spec.md §4.3.
type Class struct {
	Name          string
	AccessFlags   uint16
	SuperClass    string // "" for java/lang/Object
	Interfaces    []string
	CP            *RunTimeConstantPool
	StaticFields  map[string]*cell.Cell
	StaticMethods map[string]*Method
	InstanceFields []FieldDescriptor
	InstanceMethods map[string]*Method

	initMu    sync.Mutex
	initState int32 // atomic InitState
}

func (c *Class) IsInterface() bool { return c.AccessFlags&classfile.AccInterface != 0 }
func (c *Class) IsAbstract() bool  { return c.AccessFlags&classfile.AccAbstract != 0 }

func (c *Class) InitState() InitState {
	return InitState(atomic.LoadInt32(&c.initState))
}

func (c *Class) setInitState(s InitState) {
	atomic.StoreInt32(&c.initState, int32(s))
}

// NewClassFromClassFile constructs a resolved Class from a parsed
// ClassFile, per spec.md §4.3 steps 1-5.
func NewClassFromClassFile(cf *classfile.ClassFile) (*Class, error) {
	cp, err := resolveConstantPool(cf.ConstantPool)
	if err != nil {
		return nil, err
	}

	c := &Class{
		Name:            cf.ThisClass,
		AccessFlags:     cf.AccessFlags,
		SuperClass:      cf.SuperClass,
		Interfaces:      append([]string(nil), cf.Interfaces...),
		CP:              cp,
		StaticFields:    make(map[string]*cell.Cell),
		StaticMethods:   make(map[string]*Method),
		InstanceMethods: make(map[string]*Method),
	}

	for _, f := range cf.Fields {
		if f.AccessFlags&classfile.AccStatic != 0 {
			initVal := types.DefaultForDescriptor(f.Descriptor)
			if f.ConstantValueIndex != 0 {
				v, err := constantValueForField(cf.ConstantPool, f.ConstantValueIndex)
				if err != nil {
					return nil, err
				}
				initVal = v
			}
			c.StaticFields[f.Name] = cell.New(initVal)
		} else {
			c.InstanceFields = append(c.InstanceFields, FieldDescriptor{Name: f.Name, Descriptor: f.Descriptor})
		}
	}

	for _, m := range cf.Methods {
		method := &Method{
			Name:        m.Name,
			RawDesc:     m.Descriptor,
			Descriptor:  types.ParseMethodDescriptor(m.Descriptor),
			AccessFlags: m.AccessFlags,
			Owner:       c.Name,
		}
		switch {
		case m.AccessFlags&classfile.AccAbstract != 0:
			method.Code = Code{Kind: CodeAbstract}
		case m.AccessFlags&classfile.AccNative != 0:
			method.Code = Code{Kind: CodeNative}
		default:
			if m.Code == nil {
				return nil, vmerrors.New(vmerrors.MalformedMethod, "%s%s has no Code attribute", m.Name, m.Descriptor)
			}
			method.Code = Code{
				Kind:      CodeJava,
				MaxStack:  int(m.Code.MaxStack),
				MaxLocals: int(m.Code.MaxLocals),
				Bytes:     m.Code.Code,
			}
		}

		if m.AccessFlags&classfile.AccStatic != 0 {
			c.StaticMethods[method.Signature()] = method
		} else {
			c.InstanceMethods[method.Signature()] = method
		}
	}

	c.setInitState(BeforeInit)
	return c, nil
}

// constantValueForField resolves a field's ConstantValue attribute into a
// Value of the matching kind. The raw classfile pool (not the resolved
// RTCP) is used here since this runs during Class construction, before
// the RTCP exists.
func constantValueForField(raw []classfile.CpEntry, idx uint16) (types.Value, error) {
	if int(idx) >= len(raw) {
		return types.Value{}, vmerrors.New(vmerrors.MalformedConstPool, "ConstantValue index %d out of range", idx)
	}
	e := raw[idx]
	switch e.Tag {
	case classfile.TagInteger:
		return types.NewInt(e.IntValue), nil
	case classfile.TagFloat:
		return types.NewFloat(e.FloatValue), nil
	case classfile.TagLong:
		return types.NewLong(e.LongValue), nil
	case classfile.TagDouble:
		return types.NewDouble(e.DoubleValue), nil
	case classfile.TagString:
		// No live string class is materialized (non-goal); the constant
		// resolves to null, per spec.md §9's open question.
		return types.NewReference(0), nil
	default:
		return types.Value{}, vmerrors.New(vmerrors.MalformedConstPool, "ConstantValue index %d is not a constant entry", idx)
	}
}

// LookupStaticField looks up a static field declared directly on c (no
// inheritance walk — that's the method area's job, spec.md §4.4).
func (c *Class) LookupStaticField(name string) (*cell.Cell, bool) {
	f, ok := c.StaticFields[name]
	return f, ok
}

// LookupStaticMethod looks up a static method declared directly on c.
func (c *Class) LookupStaticMethod(sig string) (*Method, bool) {
	m, ok := c.StaticMethods[sig]
	return m, ok
}

// LookupInstanceMethod looks up an instance method declared directly on c.
func (c *Class) LookupInstanceMethod(sig string) (*Method, bool) {
	m, ok := c.InstanceMethods[sig]
	return m, ok
}

// LookupInstanceField looks up a non-static field declared directly on c.
func (c *Class) LookupInstanceField(name string) (FieldDescriptor, bool) {
	for _, fd := range c.InstanceFields {
		if fd.Name == name {
			return fd, true
		}
	}
	return FieldDescriptor{}, false
}

// Executor runs a class's <clinit>, called back into from Initialize.
// Implemented by jvm.Thread; defined here (rather than imported) to break
// the class<->thread ownership cycle spec.md §9 calls out.
type Executor interface {
	ExecClassInitialization(ma *MethodArea, class *Class) error
}

// Initialize runs the class-initialization state machine (spec.md §4.3).
// It is idempotent once past BeforeInit, and sets InProgress before
// running <clinit> so that reentrant calls from the same thread (a
// <clinit> that transitively references the class being initialized)
// become no-ops rather than re-entering, per spec.md §9.
func (c *Class) Initialize(ma *MethodArea, exec Executor) error {
	c.initMu.Lock()
	if c.InitState() != BeforeInit {
		c.initMu.Unlock()
		if c.InitState() == Failed {
			return vmerrors.New(vmerrors.InitializationFail, "class %s previously failed to initialize", c.Name)
		}
		return nil
	}
	c.setInitState(InProgress)
	c.initMu.Unlock()

	if err := c.initSupertypes(ma, exec); err != nil {
		c.setInitState(Failed)
		return err
	}

	if err := exec.ExecClassInitialization(ma, c); err != nil {
		c.setInitState(Failed)
		return vmerrors.Wrap(vmerrors.InitializationFail, err, "initializing %s", c.Name)
	}

	trace.Tracef("initialized class %s", c.Name)
	c.setInitState(Succeeded)
	return nil
}

// initSupertypes implements spec.md §4.3 step 3: classes recursively
// initialize their superclass and every super-interface that declares at
// least one non-abstract instance method (interface init is triggered
// transitively only when a super-interface contributes code).
func (c *Class) initSupertypes(ma *MethodArea, exec Executor) error {
	if c.IsInterface() {
		return nil
	}
	if c.SuperClass != "" {
		super, err := ma.ResolveClass(c.SuperClass)
		if err != nil {
			return err
		}
		if err := super.Initialize(ma, exec); err != nil {
			return err
		}
	}
	for _, ifaceName := range c.Interfaces {
		iface, err := ma.ResolveClass(ifaceName)
		if err != nil {
			return err
		}
		if ifaceDeclaresInstanceCode(iface) {
			if err := iface.Initialize(ma, exec); err != nil {
				return err
			}
		}
	}
	return nil
}

func ifaceDeclaresInstanceCode(iface *Class) bool {
	for _, m := range iface.InstanceMethods {
		if !m.IsAbstract() && m.Code.Kind != CodeAbstract {
			return true
		}
	}
	return false
}
