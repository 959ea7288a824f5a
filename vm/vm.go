// Package vm assembles the heap, method area, and thread into the single
// public entry point described in spec.md §6: load a classpath, then
// execute one bootstrap method to completion.
package vm

import (
	"corevm/classloader"
	"corevm/classpath"
	"corevm/globals"
	"corevm/jvm"
	"corevm/object"
	"corevm/types"
)

// VM owns one execution's heap, method area, and thread.
type VM struct {
	Heap       *object.Heap
	MethodArea *classloader.MethodArea
	Thread     *jvm.Thread
}

// New builds a VM whose method area loads classes from classpath (a
// platform-separated list of directories and/or zip archives, per
// spec.md §6 / SPEC_FULL.md's classpath-separator decision).
func New(classpathSpec string) (*VM, error) {
	globals.InitGlobals(classpathSpec)
	path, err := classpath.NewPath(classpathSpec)
	if err != nil {
		return nil, err
	}
	ma := classloader.NewMethodArea(path)
	heap := object.NewHeap()
	th := jvm.NewThread(heap)
	return &VM{Heap: heap, MethodArea: ma, Thread: th}, nil
}

// Execute resolves className, initializes it, resolves the named static
// method (given by its descriptor), and runs it to completion with args
// as its initial operands, returning its result (Value{} for void).
func (v *VM) Execute(className, methodName, descriptor string, args []types.Value) (types.Value, error) {
	return v.Thread.ExecBootstrapMethod(v.MethodArea, className, methodName+descriptor, args)
}
