// Package frames implements the Frame: one method activation's locals,
// operand stack, and code cursor, per spec.md §4.2.
package frames

import (
	"corevm/classloader"
	"corevm/types"
	"corevm/vmerrors"
)

// Frame is one method activation. locals[i] is nil for the dead second
// slot of a category-2 value, matching spec.md's "locals: optional
// Values; None marks the dead second slot".
type Frame struct {
	Class     *classloader.Class
	Method    *classloader.Method
	Signature string

	locals   []*types.Value
	opStack  []types.Value
	code     []byte
	cursor   int
	pc       int
}

// New builds a frame over method's Java code with MaxLocals local slots.
func New(class *classloader.Class, method *classloader.Method) *Frame {
	return &Frame{
		Class:     class,
		Method:    method,
		Signature: method.Signature(),
		locals:    make([]*types.Value, method.Code.MaxLocals),
		opStack:   make([]types.Value, 0, method.Code.MaxStack),
		code:      method.Code.Bytes,
	}
}

// NewSynthetic builds a frame that never executes code: the bootstrap
// invocation's bottom frame, whose only purpose is to hold operands (the
// initial arguments, then the final result), per spec.md §4.5.
func NewSynthetic() *Frame {
	return &Frame{Signature: "<bootstrap>"}
}

// SetLocal writes a single local slot.
func (f *Frame) SetLocal(i int, v types.Value) {
	vv := v
	f.locals[i] = &vv
}

// SetLocals bulk-writes consecutive local slots starting at i.
func (f *Frame) SetLocals(i int, vs []types.Value) {
	for k, v := range vs {
		f.SetLocal(i+k, v)
	}
}

// GetLocal reads a local slot. A nil (dead) slot is a VM-internal bug,
// not a recoverable runtime condition, so it panics per spec.md §4.2.
func (f *Frame) GetLocal(i int) types.Value {
	v := f.locals[i]
	if v == nil {
		panic("corevm: read of dead/uninitialized local slot")
	}
	return *v
}

// NextInstruction records pc at the current cursor, then reads one byte.
func (f *Frame) NextInstruction() (byte, error) {
	f.pc = f.cursor
	if f.cursor >= len(f.code) {
		return 0, vmerrors.New(vmerrors.UnimplementedOpcode, "code cursor %d past end of method body", f.cursor)
	}
	b := f.code[f.cursor]
	f.cursor++
	return b, nil
}

// PC returns the starting offset of the instruction currently executing.
func (f *Frame) PC() int { return f.pc }

// Cursor returns the code cursor's current (post-decode) position.
func (f *Frame) Cursor() int { return f.cursor }

// CodeLen returns the method body's total length.
func (f *Frame) CodeLen() int { return len(f.code) }

func (f *Frame) NextParamU8() (byte, error) {
	if f.cursor >= len(f.code) {
		return 0, vmerrors.New(vmerrors.UnimplementedOpcode, "truncated operand at %d", f.cursor)
	}
	b := f.code[f.cursor]
	f.cursor++
	return b, nil
}

func (f *Frame) NextParamU16() (uint16, error) {
	if f.cursor+2 > len(f.code) {
		return 0, vmerrors.New(vmerrors.UnimplementedOpcode, "truncated u16 operand at %d", f.cursor)
	}
	v := uint16(f.code[f.cursor])<<8 | uint16(f.code[f.cursor+1])
	f.cursor += 2
	return v, nil
}

func (f *Frame) NextParamU32() (uint32, error) {
	if f.cursor+4 > len(f.code) {
		return 0, vmerrors.New(vmerrors.UnimplementedOpcode, "truncated u32 operand at %d", f.cursor)
	}
	v := uint32(f.code[f.cursor])<<24 | uint32(f.code[f.cursor+1])<<16 | uint32(f.code[f.cursor+2])<<8 | uint32(f.code[f.cursor+3])
	f.cursor += 4
	return v, nil
}

// SkipCodePadding advances the cursor to the next align-byte boundary
// measured from the start of the method body, no-op if already aligned.
// Required by tableswitch/lookupswitch.
func (f *Frame) SkipCodePadding(align int) {
	for f.cursor%align != 0 {
		f.cursor++
	}
}

// JumpPC sets both pc and the code cursor to target.
func (f *Frame) JumpPC(target int) {
	f.pc = target
	f.cursor = target
}

// PushOperand pushes v onto the operand stack.
func (f *Frame) PushOperand(v types.Value) {
	f.opStack = append(f.opStack, v)
}

// PopOperand pops and returns the top operand; underflow is fatal.
func (f *Frame) PopOperand() (types.Value, error) {
	n := len(f.opStack)
	if n == 0 {
		return types.Value{}, vmerrors.New(vmerrors.StackUnderflow, "pop from empty operand stack in %s", f.Signature)
	}
	v := f.opStack[n-1]
	f.opStack = f.opStack[:n-1]
	return v, nil
}

// PeekOperand returns the top operand without popping it.
func (f *Frame) PeekOperand() (types.Value, error) {
	n := len(f.opStack)
	if n == 0 {
		return types.Value{}, vmerrors.New(vmerrors.StackUnderflow, "peek on empty operand stack in %s", f.Signature)
	}
	return f.opStack[n-1], nil
}

// DupOperand pushes a copy of the top operand.
func (f *Frame) DupOperand() error {
	v, err := f.PeekOperand()
	if err != nil {
		return err
	}
	f.PushOperand(v)
	return nil
}

// OperandStackDepth reports the current operand count, for the stack
// manipulation opcodes that branch on category.
func (f *Frame) OperandStackDepth() int { return len(f.opStack) }

// OperandAt returns the operand at depth n below the top (0 == top)
// without popping, used by the dup*/swap family.
func (f *Frame) OperandAt(n int) (types.Value, error) {
	idx := len(f.opStack) - 1 - n
	if idx < 0 {
		return types.Value{}, vmerrors.New(vmerrors.StackUnderflow, "operand stack has fewer than %d values in %s", n+1, f.Signature)
	}
	return f.opStack[idx], nil
}

// InsertOperand inserts v at depth n below the current top (pushing
// everything above it up by one), used by dup_x1/dup_x2/dup2_x1/dup2_x2.
func (f *Frame) InsertOperand(n int, v types.Value) error {
	idx := len(f.opStack) - n
	if idx < 0 {
		return vmerrors.New(vmerrors.StackUnderflow, "operand stack has fewer than %d values in %s", n, f.Signature)
	}
	f.opStack = append(f.opStack, types.Value{})
	copy(f.opStack[idx+1:], f.opStack[idx:len(f.opStack)-1])
	f.opStack[idx] = v
	return nil
}

// TransferArgs pops the last n descriptor-positions from caller's stack
// and writes them into callee's locals starting at 0, per spec.md §4.2.
// Category-2 arguments consume two local slots; slot k+1 is left dead.
func TransferArgs(caller, callee *Frame, descriptor types.MethodDescriptor, n int) error {
	values := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := caller.PopOperand()
		if err != nil {
			return err
		}
		values[i] = v
	}
	slot := 0
	for _, v := range values {
		callee.SetLocal(slot, v)
		if v.Category() == types.CategoryTwo {
			slot += 2
		} else {
			slot++
		}
	}
	return nil
}

// TransferReceiverAndArgs places receiver at local 0, then transfers n
// args starting at local 1, per spec.md §4.2.
func TransferReceiverAndArgs(caller, callee *Frame, receiver types.Value, n int) error {
	if receiver.Kind != types.KindReference {
		return vmerrors.New(vmerrors.TypeMismatch, "receiver must be a reference, got %s", receiver.Kind)
	}
	callee.SetLocal(0, receiver)
	values := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := caller.PopOperand()
		if err != nil {
			return err
		}
		values[i] = v
	}
	slot := 1
	for _, v := range values {
		callee.SetLocal(slot, v)
		if v.Category() == types.CategoryTwo {
			slot += 2
		} else {
			slot++
		}
	}
	return nil
}
