package classloader

import (
	"sync"

	"corevm/classfile"
	"corevm/trace"
	"corevm/vmerrors"
)

// Loader is the pluggable external collaborator spec.md §6 describes:
// given a binary name, it returns the parsed class-file record.
// classpath.Path satisfies this interface.
type Loader interface {
	Load(binaryName string) (*classfile.ClassFile, error)
}

// MethodArea is the class registry: it resolves symbolic references and
// mediates field/method lookup, owning every Class for the lifetime of
// one execution (spec.md §4.4, §5).
type MethodArea struct {
	mu       sync.RWMutex
	classes  map[string]*Class
	loader   Loader
}

// NewMethodArea creates an empty registry backed by loader.
func NewMethodArea(loader Loader) *MethodArea {
	return &MethodArea{
		classes: make(map[string]*Class),
		loader:  loader,
	}
}

// ResolveClass returns the named class, loading and constructing it (and
// recursively resolving its superclass and interfaces) if this is the
// first reference, per spec.md §4.4.
func (ma *MethodArea) ResolveClass(name string) (*Class, error) {
	ma.mu.RLock()
	if c, ok := ma.classes[name]; ok {
		ma.mu.RUnlock()
		return c, nil
	}
	ma.mu.RUnlock()

	trace.Tracef("loading class %s", name)
	cf, err := ma.loader.Load(name)
	if err != nil {
		return nil, err
	}
	c, err := NewClassFromClassFile(cf)
	if err != nil {
		return nil, err
	}

	ma.mu.Lock()
	if existing, ok := ma.classes[name]; ok {
		ma.mu.Unlock()
		return existing, nil
	}
	ma.classes[name] = c
	ma.mu.Unlock()

	// Recursively resolve superclass/interfaces so later traversals never
	// need I/O.
	if c.SuperClass != "" {
		if _, err := ma.ResolveClass(c.SuperClass); err != nil {
			return nil, err
		}
	}
	for _, iface := range c.Interfaces {
		if _, err := ma.ResolveClass(iface); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// IsSubclassOf reports whether name==target or target is a (transitive)
// super-class or super-interface of name, per spec.md §4.4.
func (ma *MethodArea) IsSubclassOf(name, target string) (bool, error) {
	if name == target {
		return true, nil
	}
	c, err := ma.ResolveClass(name)
	if err != nil {
		return false, err
	}
	if c.SuperClass != "" {
		ok, err := ma.IsSubclassOf(c.SuperClass, target)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	for _, iface := range c.Interfaces {
		ok, err := ma.IsSubclassOf(iface, target)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ResolveStaticField implements spec.md §4.4's static-field resolution
// order: the class itself, then its direct super-interfaces recursively,
// then its super-class recursively.
func (ma *MethodArea) ResolveStaticField(className, fieldName string) (*Class, error) {
	c, err := ma.ResolveClass(className)
	if err != nil {
		return nil, err
	}
	if _, ok := c.LookupStaticField(fieldName); ok {
		return c, nil
	}
	for _, iface := range c.Interfaces {
		if owner, err := ma.ResolveStaticField(iface, fieldName); err == nil {
			return owner, nil
		}
	}
	if c.SuperClass != "" {
		if owner, err := ma.ResolveStaticField(c.SuperClass, fieldName); err == nil {
			return owner, nil
		}
	}
	return nil, vmerrors.New(vmerrors.NoSuchField, "%s.%s", className, fieldName)
}

// ResolveInstanceField locates the class that actually declares a
// non-static field named fieldName, starting from className, walking
// super-interfaces then super-class — the same shape as
// ResolveStaticField, reused for getfield/putfield's (declaring_class,
// field_name) key since instance fields are keyed pairwise per spec.md §3.
func (ma *MethodArea) ResolveInstanceField(className, fieldName string) (*Class, error) {
	c, err := ma.ResolveClass(className)
	if err != nil {
		return nil, err
	}
	if _, ok := c.LookupInstanceField(fieldName); ok {
		return c, nil
	}
	for _, iface := range c.Interfaces {
		if owner, err := ma.ResolveInstanceField(iface, fieldName); err == nil {
			return owner, nil
		}
	}
	if c.SuperClass != "" {
		if owner, err := ma.ResolveInstanceField(c.SuperClass, fieldName); err == nil {
			return owner, nil
		}
	}
	return nil, vmerrors.New(vmerrors.NoSuchField, "%s.%s", className, fieldName)
}

// ResolveStaticMethod implements spec.md §4.4's static-method resolution:
// interfaces never inherit static methods from other interfaces; classes
// walk only the super-class chain (never interfaces).
func (ma *MethodArea) ResolveStaticMethod(className, sig string) (*Class, *Method, error) {
	c, err := ma.ResolveClass(className)
	if err != nil {
		return nil, nil, err
	}
	if c.IsInterface() {
		if m, ok := c.LookupStaticMethod(sig); ok {
			return c, m, nil
		}
		return nil, nil, vmerrors.New(vmerrors.NoSuchMethod, "%s.%s", className, sig)
	}
	if m, ok := c.LookupStaticMethod(sig); ok {
		return c, m, nil
	}
	if c.SuperClass != "" {
		return ma.ResolveStaticMethod(c.SuperClass, sig)
	}
	return nil, nil, vmerrors.New(vmerrors.NoSuchMethod, "%s.%s", className, sig)
}

// ResolveInstanceMethod implements spec.md §4.4's combined class-path +
// interface-path search: walk the class chain first, then fall back to
// the maximally-specific super-interface method.
func (ma *MethodArea) ResolveInstanceMethod(className, sig string) (*Class, *Method, error) {
	c, err := ma.ResolveClass(className)
	if err != nil {
		return nil, nil, err
	}
	if c.IsInterface() {
		return ma.resolveInterfaceMethod(c, sig)
	}

	for cur := c; ; {
		if m, ok := cur.LookupInstanceMethod(sig); ok {
			return cur, m, nil
		}
		if cur.SuperClass == "" {
			break
		}
		cur, err = ma.ResolveClass(cur.SuperClass)
		if err != nil {
			return nil, nil, err
		}
	}

	return ma.maximallySpecificSuperInterfaceMethod(c, sig)
}

// resolveInterfaceMethod implements spec.md §4.4's interface-method
// resolution for the case where the holding type is itself an interface.
func (ma *MethodArea) resolveInterfaceMethod(iface *Class, sig string) (*Class, *Method, error) {
	if m, ok := iface.LookupInstanceMethod(sig); ok {
		return iface, m, nil
	}
	if objClass, err := ma.ResolveClass("java/lang/Object"); err == nil {
		if m, ok := objClass.LookupInstanceMethod(sig); ok && m.IsPublic() && !m.IsStatic() {
			return objClass, m, nil
		}
	}
	return ma.maximallySpecificSuperInterfaceMethod(iface, sig)
}

// interfaceDefaultCandidate reports whether m is eligible to be a
// "maximally specific" default method: neither private, static, nor
// abstract.
func interfaceDefaultCandidate(m *Method) bool {
	return !m.IsPrivate() && !m.IsStatic() && !m.IsAbstract()
}

// maximallySpecificSuperInterfaceMethod implements spec.md §4.4's BFS
// search: at each level, collect super-interfaces declaring a matching,
// eligible method. Exactly one -> return it. More than one -> ambiguous.
// None -> advance to the union of the next level's super-interfaces.
func (ma *MethodArea) maximallySpecificSuperInterfaceMethod(c *Class, sig string) (*Class, *Method, error) {
	visited := make(map[string]bool)
	frontier := append([]string(nil), c.Interfaces...)

	for len(frontier) > 0 {
		var matches []*Class
		var matchMethods []*Method
		var next []string

		for _, name := range frontier {
			if visited[name] {
				continue
			}
			visited[name] = true

			iface, err := ma.ResolveClass(name)
			if err != nil {
				return nil, nil, err
			}
			if m, ok := iface.LookupInstanceMethod(sig); ok && interfaceDefaultCandidate(m) {
				matches = append(matches, iface)
				matchMethods = append(matchMethods, m)
			}
			next = append(next, iface.Interfaces...)
		}

		switch len(matches) {
		case 1:
			return matches[0], matchMethods[0], nil
		case 0:
			frontier = next
			continue
		default:
			return nil, nil, vmerrors.New(vmerrors.AmbiguousMethod, "%s: ambiguous default method %s among %d super-interfaces", c.Name, sig, len(matches))
		}
	}
	return nil, nil, vmerrors.New(vmerrors.NoSuchMethod, "%s.%s", c.Name, sig)
}

// SelectMethod implements spec.md §4.4's runtime method-selection rule
// for invokevirtual/invokeinterface: given a resolved method mR and the
// receiver's runtime class crt, pick the implementation that actually
// runs.
func (ma *MethodArea) SelectMethod(mR *Method, crt *Class) (*Class, *Method, error) {
	if mR.IsPrivate() {
		owner, err := ma.ResolveClass(mR.Owner)
		if err != nil {
			return nil, nil, err
		}
		return owner, mR, nil
	}

	for cur := crt; ; {
		if m, ok := cur.LookupInstanceMethod(mR.Signature()); ok {
			return cur, m, nil
		}
		if cur.SuperClass == "" {
			break
		}
		next, err := ma.ResolveClass(cur.SuperClass)
		if err != nil {
			return nil, nil, err
		}
		cur = next
	}

	return ma.maximallySpecificSuperInterfaceMethod(crt, mR.Signature())
}
