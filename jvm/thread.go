// Package jvm implements the Thread (frame stack) and the bytecode
// dispatch loop, per spec.md §4.5, §4.6.
package jvm

import (
	"corevm/classloader"
	"corevm/frames"
	"corevm/object"
	"corevm/types"
	"corevm/vmerrors"
)

// Thread owns a stack of Frames and the heap it operates against. During
// dispatch, the top Frame is the one executing, per spec.md §3. This
// specification is single-threaded and synchronous (spec.md §5): there is
// exactly one Thread per execution, so it is the natural place to carry
// the heap reference every handler needs.
type Thread struct {
	stack []*frames.Frame
	heap  *object.Heap
}

// NewThread creates an empty thread bound to heap.
func NewThread(heap *object.Heap) *Thread { return &Thread{heap: heap} }

// PushFrame pushes f as the new top of the stack.
func (t *Thread) PushFrame(f *frames.Frame) { t.stack = append(t.stack, f) }

// PopFrame pops and returns the top frame; underflow is fatal.
func (t *Thread) PopFrame() (*frames.Frame, error) {
	n := len(t.stack)
	if n == 0 {
		return nil, vmerrors.New(vmerrors.FrameUnderflow, "pop from empty frame stack")
	}
	f := t.stack[n-1]
	t.stack = t.stack[:n-1]
	return f, nil
}

// CurrentFrame returns the top frame; underflow is fatal.
func (t *Thread) CurrentFrame() (*frames.Frame, error) {
	n := len(t.stack)
	if n == 0 {
		return nil, vmerrors.New(vmerrors.FrameUnderflow, "no active frame")
	}
	return t.stack[n-1], nil
}

// Depth reports the current frame-stack depth.
func (t *Thread) Depth() int { return len(t.stack) }

// ExecBootstrapMethod implements spec.md §4.5's bootstrap invocation: a
// synthetic bottom frame holds the initial arguments as operands; the
// named static method is resolved, a callee frame built and pushed, and
// the dispatch loop runs until control returns to the bootstrap frame.
func (t *Thread) ExecBootstrapMethod(ma *classloader.MethodArea, className, methodSig string, args []types.Value) (types.Value, error) {
	owner, method, err := ma.ResolveStaticMethod(className, methodSig)
	if err != nil {
		return types.Value{}, err
	}
	if !method.IsStatic() {
		return types.Value{}, vmerrors.New(vmerrors.NoSuchMethod, "%s.%s is not static", className, methodSig)
	}
	if err := owner.Initialize(ma, t); err != nil {
		return types.Value{}, err
	}

	bottom := frames.NewSynthetic()
	for _, a := range args {
		bottom.PushOperand(a)
	}
	t.PushFrame(bottom)

	callee := frames.New(owner, method)
	if err := frames.TransferArgs(bottom, callee, method.Descriptor, len(args)); err != nil {
		return types.Value{}, err
	}
	t.PushFrame(callee)

	baseDepth := t.Depth() - 1 // depth of the bootstrap frame alone
	for t.Depth() > baseDepth {
		if err := Step(t, ma); err != nil {
			return types.Value{}, err
		}
	}

	if method.Descriptor.IsVoidReturn() {
		if _, err := t.PopFrame(); err != nil {
			return types.Value{}, err
		}
		return types.Value{}, nil
	}
	result, err := bottom.PopOperand()
	if err != nil {
		return types.Value{}, err
	}
	if _, err := t.PopFrame(); err != nil {
		return types.Value{}, err
	}
	return result, nil
}

// ExecClassInitialization implements classloader.Executor: runs
// <clinit>()V if declared, else no-ops, per spec.md §4.5.
func (t *Thread) ExecClassInitialization(ma *classloader.MethodArea, class *classloader.Class) error {
	method, ok := class.LookupStaticMethod("<clinit>()V")
	if !ok {
		return nil
	}

	baseDepth := t.Depth()
	callee := frames.New(class, method)
	t.PushFrame(callee)

	for t.Depth() > baseDepth {
		if err := Step(t, ma); err != nil {
			return err
		}
	}
	return nil
}
