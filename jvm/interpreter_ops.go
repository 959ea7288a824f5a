package jvm

import (
	"math"

	"corevm/classloader"
	"corevm/frames"
	"corevm/object"
	"corevm/types"
	"corevm/vmerrors"
)

// --- arithmetic / logic ---

func popTyped(f *frames.Frame, kind types.Kind) (types.Value, error) {
	v, err := f.PopOperand()
	if err != nil {
		return types.Value{}, err
	}
	if v.Kind != kind {
		return types.Value{}, vmerrors.New(vmerrors.TypeMismatch, "expected %s, got %s", kind, v.Kind)
	}
	return v, nil
}

func intBinOp(op func(a, b int32) int32) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewInt(op(a.Int, b.Int)))
		return nil
	}
}

func intDivOp(remainder bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		if b.Int == 0 {
			return vmerrors.New(vmerrors.DivisionByZero, "integer division by zero")
		}
		if remainder {
			f.PushOperand(types.NewInt(a.Int % b.Int))
		} else {
			f.PushOperand(types.NewInt(a.Int / b.Int))
		}
		return nil
	}
}

func intUnOp(op func(a int32) int32) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		a, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewInt(op(a.Int)))
		return nil
	}
}

func longBinOp(op func(a, b int64) int64) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindLong)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindLong)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewLong(op(a.Long, b.Long)))
		return nil
	}
}

func longDivOp(remainder bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindLong)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindLong)
		if err != nil {
			return err
		}
		if b.Long == 0 {
			return vmerrors.New(vmerrors.DivisionByZero, "long division by zero")
		}
		if remainder {
			f.PushOperand(types.NewLong(a.Long % b.Long))
		} else {
			f.PushOperand(types.NewLong(a.Long / b.Long))
		}
		return nil
	}
}

func longUnOp(op func(a int64) int64) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		a, err := popTyped(f, types.KindLong)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewLong(op(a.Long)))
		return nil
	}
}

func longShiftOp(op func(a int64, shift uint) int64) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		s, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindLong)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewLong(op(a.Long, uint(s.Int)&0x3f)))
		return nil
	}
}

func floatBinOp(op func(a, b float32) float32) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindFloat)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindFloat)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewFloat(op(a.Float, b.Float)))
		return nil
	}
}

func floatUnOp(op func(a float32) float32) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		a, err := popTyped(f, types.KindFloat)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewFloat(op(a.Float)))
		return nil
	}
}

func floatRem(a, b float32) float32 {
	return float32(math.Mod(float64(a), float64(b)))
}

func doubleBinOp(op func(a, b float64) float64) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindDouble)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindDouble)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewDouble(op(a.Double, b.Double)))
		return nil
	}
}

func doubleUnOp(op func(a float64) float64) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		a, err := popTyped(f, types.KindDouble)
		if err != nil {
			return err
		}
		f.PushOperand(types.NewDouble(op(a.Double)))
		return nil
	}
}

func doubleRem(a, b float64) float64 { return math.Mod(a, b) }

func opIinc(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU8()
	if err != nil {
		return err
	}
	delta, err := f.NextParamU8()
	if err != nil {
		return err
	}
	v := f.GetLocal(int(idx))
	if v.Kind != types.KindInt {
		return vmerrors.New(vmerrors.TypeMismatch, "iinc requires an Int local, got %s", v.Kind)
	}
	f.SetLocal(int(idx), types.NewInt(v.Int+int32(int8(delta))))
	return nil
}

// --- conversions ---

func convert(from, to types.Kind) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		v, err := popTyped(f, from)
		if err != nil {
			return err
		}
		f.PushOperand(convertValue(v, to))
		return nil
	}
}

func convertValue(v types.Value, to types.Kind) types.Value {
	var asInt64 int64
	var asFloat64 float64
	switch v.Kind {
	case types.KindInt:
		asInt64, asFloat64 = int64(v.Int), float64(v.Int)
	case types.KindLong:
		asInt64, asFloat64 = v.Long, float64(v.Long)
	case types.KindFloat:
		asInt64, asFloat64 = int64(v.Float), float64(v.Float)
	case types.KindDouble:
		asInt64, asFloat64 = int64(v.Double), v.Double
	}
	switch to {
	case types.KindLong:
		return types.NewLong(asInt64)
	case types.KindFloat:
		return types.NewFloat(float32(asFloat64))
	case types.KindDouble:
		return types.NewDouble(asFloat64)
	case types.KindInt:
		return types.NewInt(int32(asInt64))
	case types.KindByte:
		return types.NewInt(int32(int8(asInt64)))
	case types.KindChar:
		return types.NewInt(int32(uint16(asInt64)))
	case types.KindShort:
		return types.NewInt(int32(int16(asInt64)))
	default:
		return v
	}
}

// --- comparisons ---

func opLcmp(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	b, err := popTyped(f, types.KindLong)
	if err != nil {
		return err
	}
	a, err := popTyped(f, types.KindLong)
	if err != nil {
		return err
	}
	f.PushOperand(types.NewInt(cmp3(a.Long < b.Long, a.Long == b.Long)))
	return nil
}

func cmp3(less, equal bool) int32 {
	if equal {
		return 0
	}
	if less {
		return -1
	}
	return 1
}

func opFcmp(nanGreater bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindFloat)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindFloat)
		if err != nil {
			return err
		}
		if math.IsNaN(float64(a.Float)) || math.IsNaN(float64(b.Float)) {
			if nanGreater {
				f.PushOperand(types.NewInt(1))
			} else {
				f.PushOperand(types.NewInt(-1))
			}
			return nil
		}
		f.PushOperand(types.NewInt(cmp3(a.Float < b.Float, a.Float == b.Float)))
		return nil
	}
}

func opDcmp(nanGreater bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		b, err := popTyped(f, types.KindDouble)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindDouble)
		if err != nil {
			return err
		}
		if math.IsNaN(a.Double) || math.IsNaN(b.Double) {
			if nanGreater {
				f.PushOperand(types.NewInt(1))
			} else {
				f.PushOperand(types.NewInt(-1))
			}
			return nil
		}
		f.PushOperand(types.NewInt(cmp3(a.Double < b.Double, a.Double == b.Double)))
		return nil
	}
}

// --- conditional branches ---

func branchTarget(f *frames.Frame) (int16, int, error) {
	pc := f.PC()
	delta, err := f.NextParamU16()
	if err != nil {
		return 0, 0, err
	}
	return int16(delta), pc, nil
}

func ifIntCmp(test func(a int32) bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		delta, pc, err := branchTarget(f)
		if err != nil {
			return err
		}
		v, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		if test(v.Int) {
			f.JumpPC(pc + int(delta))
		}
		return nil
	}
}

func ifICmp(test func(a, b int32) bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		delta, pc, err := branchTarget(f)
		if err != nil {
			return err
		}
		b, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		if test(a.Int, b.Int) {
			f.JumpPC(pc + int(delta))
		}
		return nil
	}
}

func ifACmp(test func(a, b int32) bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		delta, pc, err := branchTarget(f)
		if err != nil {
			return err
		}
		b, err := popTyped(f, types.KindReference)
		if err != nil {
			return err
		}
		a, err := popTyped(f, types.KindReference)
		if err != nil {
			return err
		}
		if test(a.Ref, b.Ref) {
			f.JumpPC(pc + int(delta))
		}
		return nil
	}
}

func ifNullCmp(wantNull bool) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		delta, pc, err := branchTarget(f)
		if err != nil {
			return err
		}
		v, err := popTyped(f, types.KindReference)
		if err != nil {
			return err
		}
		if (v.Ref == 0) == wantNull {
			f.JumpPC(pc + int(delta))
		}
		return nil
	}
}

func opGoto(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	delta, pc, err := branchTarget(f)
	if err != nil {
		return err
	}
	f.JumpPC(pc + int(delta))
	return nil
}

func opJsr(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	pc := f.PC()
	delta, err := f.NextParamU16()
	if err != nil {
		return err
	}
	ret := f.Cursor()
	f.PushOperand(types.NewReturnAddress(ret))
	f.JumpPC(pc + int(int16(delta)))
	return nil
}

func opRet(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU8()
	if err != nil {
		return err
	}
	v := f.GetLocal(int(idx))
	if v.Kind != types.KindReturnAddress {
		return vmerrors.New(vmerrors.TypeMismatch, "ret requires a ReturnAddress local, got %s", v.Kind)
	}
	f.JumpPC(v.RetPC)
	return nil
}

// --- switches ---

func opTableswitch(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	pc := f.PC()
	f.SkipCodePadding(4)
	def, err := f.NextParamU32()
	if err != nil {
		return err
	}
	low, err := f.NextParamU32()
	if err != nil {
		return err
	}
	high, err := f.NextParamU32()
	if err != nil {
		return err
	}
	lowI, highI := int32(low), int32(high)
	offsets := make([]int32, 0, highI-lowI+1)
	for i := lowI; i <= highI; i++ {
		o, err := f.NextParamU32()
		if err != nil {
			return err
		}
		offsets = append(offsets, int32(o))
	}
	key, err := popTyped(f, types.KindInt)
	if err != nil {
		return err
	}
	if key.Int < lowI || key.Int > highI {
		f.JumpPC(pc + int(int32(def)))
		return nil
	}
	f.JumpPC(pc + int(offsets[key.Int-lowI]))
	return nil
}

func opLookupswitch(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	pc := f.PC()
	f.SkipCodePadding(4)
	def, err := f.NextParamU32()
	if err != nil {
		return err
	}
	npairs, err := f.NextParamU32()
	if err != nil {
		return err
	}
	matches := make([]int32, npairs)
	offsets := make([]int32, npairs)
	for i := range matches {
		m, err := f.NextParamU32()
		if err != nil {
			return err
		}
		o, err := f.NextParamU32()
		if err != nil {
			return err
		}
		matches[i] = int32(m)
		offsets[i] = int32(o)
	}
	key, err := popTyped(f, types.KindInt)
	if err != nil {
		return err
	}
	for i, m := range matches {
		if m == key.Int {
			f.JumpPC(pc + int(offsets[i]))
			return nil
		}
	}
	f.JumpPC(pc + int(int32(def)))
	return nil
}

// --- returns ---

func opReturn(kind types.Kind) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		v, err := popTyped(f, kind)
		if err != nil {
			return err
		}
		if _, err := th.PopFrame(); err != nil {
			return err
		}
		caller, err := th.CurrentFrame()
		if err != nil {
			return err
		}
		caller.PushOperand(v)
		return nil
	}
}

func opReturnVoid(th *Thread, ma *classloader.MethodArea) error {
	_, err := th.PopFrame()
	return err
}

// --- field access ---

func opGetstatic(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPFieldref {
		return vmerrors.New(vmerrors.MalformedConstPool, "getstatic index does not reference a Fieldref")
	}
	owner, err := ma.ResolveClass(entry.Ref.Owner)
	if err != nil {
		return err
	}
	if err := owner.Initialize(ma, th); err != nil {
		return err
	}
	declClass, err := ma.ResolveStaticField(entry.Ref.Owner, entry.Ref.Name)
	if err != nil {
		return err
	}
	cell, _ := declClass.LookupStaticField(entry.Ref.Name)
	f.PushOperand(cell.Get())
	return nil
}

func opPutstatic(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPFieldref {
		return vmerrors.New(vmerrors.MalformedConstPool, "putstatic index does not reference a Fieldref")
	}
	owner, err := ma.ResolveClass(entry.Ref.Owner)
	if err != nil {
		return err
	}
	if err := owner.Initialize(ma, th); err != nil {
		return err
	}
	declClass, err := ma.ResolveStaticField(entry.Ref.Owner, entry.Ref.Name)
	if err != nil {
		return err
	}
	v, err := f.PopOperand()
	if err != nil {
		return err
	}
	cell, _ := declClass.LookupStaticField(entry.Ref.Name)
	cell.Put(v)
	return nil
}

func fieldRefAt(f *frames.Frame) (classloader.MemberRef, error) {
	idx, err := f.NextParamU16()
	if err != nil {
		return classloader.MemberRef{}, err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return classloader.MemberRef{}, err
	}
	if entry.Tag != classloader.CPFieldref {
		return classloader.MemberRef{}, vmerrors.New(vmerrors.MalformedConstPool, "index does not reference a Fieldref")
	}
	return entry.Ref, nil
}

func opGetfield(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	ref, err := fieldRefAt(f)
	if err != nil {
		return err
	}
	objV, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	if objV.Ref == 0 {
		return vmerrors.New(vmerrors.NullReference, "getfield on null reference")
	}
	slot, err := th.heap.Get(objV.Ref)
	if err != nil {
		return err
	}
	if slot.Kind != object.RefObject {
		return vmerrors.New(vmerrors.TypeMismatch, "getfield on a non-object reference")
	}
	declOwner, err := ma.ResolveInstanceField(ref.Owner, ref.Name)
	if err != nil {
		return err
	}
	cell, err := slot.Object.GetField(declOwner.Name, ref.Name)
	if err != nil {
		return err
	}
	f.PushOperand(cell.Get())
	return nil
}

func opPutfield(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	ref, err := fieldRefAt(f)
	if err != nil {
		return err
	}
	v, err := f.PopOperand()
	if err != nil {
		return err
	}
	objV, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	if objV.Ref == 0 {
		return vmerrors.New(vmerrors.NullReference, "putfield on null reference")
	}
	slot, err := th.heap.Get(objV.Ref)
	if err != nil {
		return err
	}
	if slot.Kind != object.RefObject {
		return vmerrors.New(vmerrors.TypeMismatch, "putfield on a non-object reference")
	}
	declOwner, err := ma.ResolveInstanceField(ref.Owner, ref.Name)
	if err != nil {
		return err
	}
	cell, err := slot.Object.GetField(declOwner.Name, ref.Name)
	if err != nil {
		return err
	}
	cell.Put(v)
	return nil
}

// --- invocation ---

func opInvokestatic(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPMethodref && entry.Tag != classloader.CPInterfaceMethodref {
		return vmerrors.New(vmerrors.MalformedConstPool, "invokestatic index does not reference a Methodref")
	}
	owner, err := ma.ResolveClass(entry.Ref.Owner)
	if err != nil {
		return err
	}
	if err := owner.Initialize(ma, th); err != nil {
		return err
	}
	declClass, method, err := ma.ResolveStaticMethod(entry.Ref.Owner, entry.Ref.Name+entry.Ref.Desc)
	if err != nil {
		return err
	}
	callee := frames.New(declClass, method)
	n := types.NumArgs(entry.Ref.Desc)
	if err := frames.TransferArgs(f, callee, method.Descriptor, n); err != nil {
		return err
	}
	th.PushFrame(callee)
	return nil
}

func opInvokespecial(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPMethodref {
		return vmerrors.New(vmerrors.MalformedConstPool, "invokespecial index does not reference a Methodref")
	}
	if entry.Ref.Name != "<init>" {
		return vmerrors.New(vmerrors.UnsupportedFeature, "invokespecial is limited to <init> dispatch")
	}
	owner, err := ma.ResolveClass(entry.Ref.Owner)
	if err != nil {
		return err
	}
	method, ok := owner.LookupInstanceMethod(entry.Ref.Name + entry.Ref.Desc)
	if !ok {
		return vmerrors.New(vmerrors.NoSuchMethod, "%s.%s%s", entry.Ref.Owner, entry.Ref.Name, entry.Ref.Desc)
	}
	n := types.NumArgs(entry.Ref.Desc)
	values := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.PopOperand()
		if err != nil {
			return err
		}
		values[i] = v
	}
	receiver, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	callee := frames.New(owner, method)
	callee.SetLocal(0, receiver)
	slot := 1
	for _, v := range values {
		callee.SetLocal(slot, v)
		if v.Category() == types.CategoryTwo {
			slot += 2
		} else {
			slot++
		}
	}
	th.PushFrame(callee)
	return nil
}

func opInvokevirtual(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPMethodref {
		return vmerrors.New(vmerrors.MalformedConstPool, "invokevirtual index does not reference a Methodref")
	}
	if _, err := ma.ResolveClass(entry.Ref.Owner); err != nil {
		return err
	}
	n := types.NumArgs(entry.Ref.Desc)
	values := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.PopOperand()
		if err != nil {
			return err
		}
		values[i] = v
	}
	receiver, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	if receiver.Ref == 0 {
		return vmerrors.New(vmerrors.NullReference, "invokevirtual on null receiver")
	}
	slot, err := th.heap.Get(receiver.Ref)
	if err != nil {
		return err
	}
	if slot.Kind != object.RefObject {
		return vmerrors.New(vmerrors.TypeMismatch, "invokevirtual on a non-object reference")
	}
	crt := slot.Object.Class
	_, mR, err := ma.ResolveInstanceMethod(entry.Ref.Owner, entry.Ref.Name+entry.Ref.Desc)
	if err != nil {
		return err
	}
	owner, method, err := ma.SelectMethod(mR, crt)
	if err != nil {
		return err
	}
	callee := frames.New(owner, method)
	callee.SetLocal(0, receiver)
	slotIdx := 1
	for _, v := range values {
		callee.SetLocal(slotIdx, v)
		if v.Category() == types.CategoryTwo {
			slotIdx += 2
		} else {
			slotIdx++
		}
	}
	th.PushFrame(callee)
	return nil
}

func opInvokeinterface(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	if _, err := f.NextParamU8(); err != nil { // count
		return err
	}
	if _, err := f.NextParamU8(); err != nil { // reserved 0
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPInterfaceMethodref {
		return vmerrors.New(vmerrors.MalformedConstPool, "invokeinterface index does not reference an InterfaceMethodref")
	}
	iface, err := ma.ResolveClass(entry.Ref.Owner)
	if err != nil {
		return err
	}
	n := types.NumArgs(entry.Ref.Desc)
	values := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.PopOperand()
		if err != nil {
			return err
		}
		values[i] = v
	}
	receiver, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	if receiver.Ref == 0 {
		return vmerrors.New(vmerrors.NullReference, "invokeinterface on null receiver")
	}
	slot, err := th.heap.Get(receiver.Ref)
	if err != nil {
		return err
	}
	if slot.Kind != object.RefObject {
		return vmerrors.New(vmerrors.TypeMismatch, "invokeinterface on a non-object reference")
	}
	crt := slot.Object.Class
	_, mR, err := ma.ResolveInstanceMethod(iface.Name, entry.Ref.Name+entry.Ref.Desc)
	if err != nil {
		return err
	}
	owner, method, err := ma.SelectMethod(mR, crt)
	if err != nil {
		return err
	}
	callee := frames.New(owner, method)
	callee.SetLocal(0, receiver)
	slotIdx := 1
	for _, v := range values {
		callee.SetLocal(slotIdx, v)
		if v.Category() == types.CategoryTwo {
			slotIdx += 2
		} else {
			slotIdx++
		}
	}
	th.PushFrame(callee)
	return nil
}

// --- allocation ---

func opNew(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPClass {
		return vmerrors.New(vmerrors.MalformedConstPool, "new index does not reference a Class entry")
	}
	class, err := ma.ResolveClass(entry.ClassName)
	if err != nil {
		return err
	}
	if err := class.Initialize(ma, th); err != nil {
		return err
	}
	v, err := th.heap.AllocObject(class, ma)
	if err != nil {
		return err
	}
	f.PushOperand(v)
	return nil
}

func opNewarray(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	atype, err := f.NextParamU8()
	if err != nil {
		return err
	}
	length, err := popTyped(f, types.KindInt)
	if err != nil {
		return err
	}
	v, err := th.heap.AllocArrayFromAtype(length.Int, atype)
	if err != nil {
		return err
	}
	f.PushOperand(v)
	return nil
}

func anewarrayDescriptor(className string) string {
	if len(className) > 0 && className[0] == '[' {
		return className
	}
	return "L" + className + ";"
}

func opAnewarray(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPClass {
		return vmerrors.New(vmerrors.MalformedConstPool, "anewarray index does not reference a Class entry")
	}
	length, err := popTyped(f, types.KindInt)
	if err != nil {
		return err
	}
	innermost := entry.ClassName
	for len(innermost) > 0 && innermost[0] == '[' {
		innermost = innermost[1:]
	}
	innermost = types.ClassNameFromReferenceDescriptor(innermost)
	if _, ok := primitiveArrayChar(innermost); !ok {
		if _, err := ma.ResolveClass(innermost); err != nil {
			return err
		}
	}
	v, err := th.heap.AllocArray(length.Int, anewarrayDescriptor(entry.ClassName))
	if err != nil {
		return err
	}
	f.PushOperand(v)
	return nil
}

func primitiveArrayChar(s string) (byte, bool) {
	if len(s) == 1 {
		switch s[0] {
		case 'I', 'J', 'B', 'S', 'C', 'F', 'D', 'Z':
			return s[0], true
		}
	}
	return 0, false
}

func opArraylength(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	v, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	if v.Ref == 0 {
		return vmerrors.New(vmerrors.NullReference, "arraylength on null reference")
	}
	slot, err := th.heap.Get(v.Ref)
	if err != nil {
		return err
	}
	if slot.Kind != object.RefArrayKind {
		return vmerrors.New(vmerrors.TypeMismatch, "arraylength on a non-array reference")
	}
	f.PushOperand(types.NewInt(slot.Array.Length()))
	return nil
}

// opMultianewarray implements spec.md §4.1's array allocation, applied
// recursively over `dimensions` popped size operands, per SPEC_FULL.md's
// resolution of the multianewarray opcode.
func opMultianewarray(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	dims, err := f.NextParamU8()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPClass {
		return vmerrors.New(vmerrors.MalformedConstPool, "multianewarray index does not reference a Class entry")
	}
	sizes := make([]int32, dims)
	for i := int(dims) - 1; i >= 0; i-- {
		v, err := popTyped(f, types.KindInt)
		if err != nil {
			return err
		}
		sizes[i] = v.Int
	}
	v, err := buildMultiArray(th, entry.ClassName, sizes)
	if err != nil {
		return err
	}
	f.PushOperand(v)
	return nil
}

func buildMultiArray(th *Thread, desc string, sizes []int32) (types.Value, error) {
	length := sizes[0]
	if len(sizes) == 1 {
		return th.heap.AllocArray(length, desc[1:])
	}
	v, err := th.heap.AllocArray(length, desc[1:])
	if err != nil {
		return types.Value{}, err
	}
	slot, err := th.heap.Get(v.Ref)
	if err != nil {
		return types.Value{}, err
	}
	for i := int32(0); i < length; i++ {
		elem, err := buildMultiArray(th, desc[1:], sizes[1:])
		if err != nil {
			return types.Value{}, err
		}
		if err := slot.Array.Put(i, elem); err != nil {
			return types.Value{}, err
		}
	}
	return v, nil
}

// --- checkcast / instanceof / monitor ---

func opCheckcast(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPClass {
		return vmerrors.New(vmerrors.MalformedConstPool, "checkcast index does not reference a Class entry")
	}
	v, err := f.PeekOperand()
	if err != nil {
		return err
	}
	if v.Ref == 0 {
		return nil
	}
	ok, err := th.heap.IsInstanceOf(v, entry.ClassName, ma)
	if err != nil {
		return err
	}
	if !ok {
		return vmerrors.New(vmerrors.TypeMismatch, "cannot cast to %s", entry.ClassName)
	}
	return nil
}

func opInstanceof(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	if entry.Tag != classloader.CPClass {
		return vmerrors.New(vmerrors.MalformedConstPool, "instanceof index does not reference a Class entry")
	}
	v, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	if v.Ref == 0 {
		f.PushOperand(types.NewInt(0))
		return nil
	}
	ok, err := th.heap.IsInstanceOf(v, entry.ClassName, ma)
	if err != nil {
		return err
	}
	if ok {
		f.PushOperand(types.NewInt(1))
	} else {
		f.PushOperand(types.NewInt(0))
	}
	return nil
}

// opMonitor implements monitorenter/monitorexit identically: single
// threaded execution has nothing to synchronize, but the reference is
// still popped and null-checked, matching the original's behavior.
func opMonitor(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	v, err := popTyped(f, types.KindReference)
	if err != nil {
		return err
	}
	if v.Ref == 0 {
		return vmerrors.New(vmerrors.NullReference, "monitor operation on null reference")
	}
	return nil
}
