package jvm

import (
	"corevm/classloader"
	"corevm/frames"
	"corevm/object"
	"corevm/opcodes"
	"corevm/types"
	"corevm/vmerrors"
)

type handlerFunc func(th *Thread, ma *classloader.MethodArea) error

var dispatch [256]handlerFunc

func init() {
	dispatch[opcodes.NOP] = opNop
	dispatch[opcodes.ACONST_NULL] = opAconstNull
	dispatch[opcodes.ICONST_M1] = constInt(-1)
	dispatch[opcodes.ICONST_0] = constInt(0)
	dispatch[opcodes.ICONST_1] = constInt(1)
	dispatch[opcodes.ICONST_2] = constInt(2)
	dispatch[opcodes.ICONST_3] = constInt(3)
	dispatch[opcodes.ICONST_4] = constInt(4)
	dispatch[opcodes.ICONST_5] = constInt(5)
	dispatch[opcodes.LCONST_0] = constLong(0)
	dispatch[opcodes.LCONST_1] = constLong(1)
	dispatch[opcodes.FCONST_0] = constFloat(0)
	dispatch[opcodes.FCONST_1] = constFloat(1)
	dispatch[opcodes.FCONST_2] = constFloat(2)
	dispatch[opcodes.DCONST_0] = constDouble(0)
	dispatch[opcodes.DCONST_1] = constDouble(1)
	dispatch[opcodes.BIPUSH] = opBipush
	dispatch[opcodes.SIPUSH] = opSipush
	dispatch[opcodes.LDC] = opLdc
	dispatch[opcodes.LDC_W] = opLdcW
	dispatch[opcodes.LDC2_W] = opLdc2W

	dispatch[opcodes.ILOAD] = loadSlot(readU8Index)
	dispatch[opcodes.LLOAD] = loadSlot(readU8Index)
	dispatch[opcodes.FLOAD] = loadSlot(readU8Index)
	dispatch[opcodes.DLOAD] = loadSlot(readU8Index)
	dispatch[opcodes.ALOAD] = loadSlot(readU8Index)
	for n := 0; n < 4; n++ {
		dispatch[opcodes.ILOAD_0+n] = loadFixed(n)
		dispatch[opcodes.LLOAD_0+n] = loadFixed(n)
		dispatch[opcodes.FLOAD_0+n] = loadFixed(n)
		dispatch[opcodes.DLOAD_0+n] = loadFixed(n)
		dispatch[opcodes.ALOAD_0+n] = loadFixed(n)
		dispatch[opcodes.ISTORE_0+n] = storeFixed(n)
		dispatch[opcodes.LSTORE_0+n] = storeFixed(n)
		dispatch[opcodes.FSTORE_0+n] = storeFixed(n)
		dispatch[opcodes.DSTORE_0+n] = storeFixed(n)
		dispatch[opcodes.ASTORE_0+n] = storeFixed(n)
	}
	dispatch[opcodes.ISTORE] = storeSlot(readU8Index)
	dispatch[opcodes.LSTORE] = storeSlot(readU8Index)
	dispatch[opcodes.FSTORE] = storeSlot(readU8Index)
	dispatch[opcodes.DSTORE] = storeSlot(readU8Index)
	dispatch[opcodes.ASTORE] = storeSlot(readU8Index)

	dispatch[opcodes.IALOAD] = arrayLoad(types.KindInt)
	dispatch[opcodes.LALOAD] = arrayLoad(types.KindLong)
	dispatch[opcodes.FALOAD] = arrayLoad(types.KindFloat)
	dispatch[opcodes.DALOAD] = arrayLoad(types.KindDouble)
	dispatch[opcodes.AALOAD] = arrayLoad(types.KindReference)
	dispatch[opcodes.BALOAD] = arrayLoad(types.KindByte)
	dispatch[opcodes.CALOAD] = arrayLoad(types.KindChar)
	dispatch[opcodes.SALOAD] = arrayLoad(types.KindShort)

	dispatch[opcodes.IASTORE] = arrayStore(types.KindInt)
	dispatch[opcodes.LASTORE] = arrayStore(types.KindLong)
	dispatch[opcodes.FASTORE] = arrayStore(types.KindFloat)
	dispatch[opcodes.DASTORE] = arrayStore(types.KindDouble)
	dispatch[opcodes.AASTORE] = arrayStore(types.KindReference)
	dispatch[opcodes.BASTORE] = arrayStore(types.KindByte)
	dispatch[opcodes.CASTORE] = arrayStore(types.KindChar)
	dispatch[opcodes.SASTORE] = arrayStore(types.KindShort)

	dispatch[opcodes.POP] = opPop
	dispatch[opcodes.POP2] = opPop2
	dispatch[opcodes.DUP] = opDup
	dispatch[opcodes.DUP_X1] = opDupX1
	dispatch[opcodes.DUP_X2] = opDupX2
	dispatch[opcodes.DUP2] = opDup2
	dispatch[opcodes.DUP2_X1] = opDup2X1
	dispatch[opcodes.DUP2_X2] = opDup2X2
	dispatch[opcodes.SWAP] = opSwap

	dispatch[opcodes.IADD] = intBinOp(func(a, b int32) int32 { return a + b })
	dispatch[opcodes.ISUB] = intBinOp(func(a, b int32) int32 { return a - b })
	dispatch[opcodes.IMUL] = intBinOp(func(a, b int32) int32 { return a * b })
	dispatch[opcodes.IDIV] = intDivOp(false)
	dispatch[opcodes.IREM] = intDivOp(true)
	dispatch[opcodes.INEG] = intUnOp(func(a int32) int32 { return -a })
	dispatch[opcodes.IAND] = intBinOp(func(a, b int32) int32 { return a & b })
	dispatch[opcodes.IOR] = intBinOp(func(a, b int32) int32 { return a | b })
	dispatch[opcodes.IXOR] = intBinOp(func(a, b int32) int32 { return a ^ b })

	dispatch[opcodes.LADD] = longBinOp(func(a, b int64) int64 { return a + b })
	dispatch[opcodes.LSUB] = longBinOp(func(a, b int64) int64 { return a - b })
	dispatch[opcodes.LMUL] = longBinOp(func(a, b int64) int64 { return a * b })
	dispatch[opcodes.LDIV] = longDivOp(false)
	dispatch[opcodes.LREM] = longDivOp(true)
	dispatch[opcodes.LNEG] = longUnOp(func(a int64) int64 { return -a })
	dispatch[opcodes.LAND] = longBinOp(func(a, b int64) int64 { return a & b })
	dispatch[opcodes.LOR] = longBinOp(func(a, b int64) int64 { return a | b })
	dispatch[opcodes.LXOR] = longBinOp(func(a, b int64) int64 { return a ^ b })

	dispatch[opcodes.FADD] = floatBinOp(func(a, b float32) float32 { return a + b })
	dispatch[opcodes.FSUB] = floatBinOp(func(a, b float32) float32 { return a - b })
	dispatch[opcodes.FMUL] = floatBinOp(func(a, b float32) float32 { return a * b })
	dispatch[opcodes.FDIV] = floatBinOp(func(a, b float32) float32 { return a / b })
	dispatch[opcodes.FREM] = floatBinOp(floatRem)
	dispatch[opcodes.FNEG] = floatUnOp(func(a float32) float32 { return -a })

	dispatch[opcodes.DADD] = doubleBinOp(func(a, b float64) float64 { return a + b })
	dispatch[opcodes.DSUB] = doubleBinOp(func(a, b float64) float64 { return a - b })
	dispatch[opcodes.DMUL] = doubleBinOp(func(a, b float64) float64 { return a * b })
	dispatch[opcodes.DDIV] = doubleBinOp(func(a, b float64) float64 { return a / b })
	dispatch[opcodes.DREM] = doubleBinOp(doubleRem)
	dispatch[opcodes.DNEG] = doubleUnOp(func(a float64) float64 { return -a })

	dispatch[opcodes.ISHL] = intBinOp(func(a, b int32) int32 { return a << (uint32(b) & 0x1f) })
	dispatch[opcodes.ISHR] = intBinOp(func(a, b int32) int32 { return a >> (uint32(b) & 0x1f) })
	dispatch[opcodes.IUSHR] = intBinOp(func(a, b int32) int32 { return int32(uint32(a) >> (uint32(b) & 0x1f)) })
	dispatch[opcodes.LSHL] = longShiftOp(func(a int64, s uint) int64 { return a << s })
	dispatch[opcodes.LSHR] = longShiftOp(func(a int64, s uint) int64 { return a >> s })
	dispatch[opcodes.LUSHR] = longShiftOp(func(a int64, s uint) int64 { return int64(uint64(a) >> s) })
	dispatch[opcodes.IINC] = opIinc

	dispatch[opcodes.I2L] = convert(types.KindInt, types.KindLong)
	dispatch[opcodes.I2F] = convert(types.KindInt, types.KindFloat)
	dispatch[opcodes.I2D] = convert(types.KindInt, types.KindDouble)
	dispatch[opcodes.L2I] = convert(types.KindLong, types.KindInt)
	dispatch[opcodes.L2F] = convert(types.KindLong, types.KindFloat)
	dispatch[opcodes.L2D] = convert(types.KindLong, types.KindDouble)
	dispatch[opcodes.F2I] = convert(types.KindFloat, types.KindInt)
	dispatch[opcodes.F2L] = convert(types.KindFloat, types.KindLong)
	dispatch[opcodes.F2D] = convert(types.KindFloat, types.KindDouble)
	dispatch[opcodes.D2I] = convert(types.KindDouble, types.KindInt)
	dispatch[opcodes.D2L] = convert(types.KindDouble, types.KindLong)
	dispatch[opcodes.D2F] = convert(types.KindDouble, types.KindFloat)
	dispatch[opcodes.I2B] = convert(types.KindInt, types.KindByte)
	dispatch[opcodes.I2C] = convert(types.KindInt, types.KindChar)
	dispatch[opcodes.I2S] = convert(types.KindInt, types.KindShort)

	dispatch[opcodes.LCMP] = opLcmp
	dispatch[opcodes.FCMPL] = opFcmp(false)
	dispatch[opcodes.FCMPG] = opFcmp(true)
	dispatch[opcodes.DCMPL] = opDcmp(false)
	dispatch[opcodes.DCMPG] = opDcmp(true)

	dispatch[opcodes.IFEQ] = ifIntCmp(func(a int32) bool { return a == 0 })
	dispatch[opcodes.IFNE] = ifIntCmp(func(a int32) bool { return a != 0 })
	dispatch[opcodes.IFLT] = ifIntCmp(func(a int32) bool { return a < 0 })
	dispatch[opcodes.IFLE] = ifIntCmp(func(a int32) bool { return a <= 0 })
	dispatch[opcodes.IFGT] = ifIntCmp(func(a int32) bool { return a > 0 })
	dispatch[opcodes.IFGE] = ifIntCmp(func(a int32) bool { return a >= 0 })
	dispatch[opcodes.IF_ICMPEQ] = ifICmp(func(a, b int32) bool { return a == b })
	dispatch[opcodes.IF_ICMPNE] = ifICmp(func(a, b int32) bool { return a != b })
	dispatch[opcodes.IF_ICMPLT] = ifICmp(func(a, b int32) bool { return a < b })
	dispatch[opcodes.IF_ICMPLE] = ifICmp(func(a, b int32) bool { return a <= b })
	dispatch[opcodes.IF_ICMPGT] = ifICmp(func(a, b int32) bool { return a > b })
	dispatch[opcodes.IF_ICMPGE] = ifICmp(func(a, b int32) bool { return a >= b })
	dispatch[opcodes.IF_ACMPEQ] = ifACmp(func(a, b int32) bool { return a == b })
	dispatch[opcodes.IF_ACMPNE] = ifACmp(func(a, b int32) bool { return a != b })
	dispatch[opcodes.IFNULL] = ifNullCmp(true)
	dispatch[opcodes.IFNONNULL] = ifNullCmp(false)
	dispatch[opcodes.GOTO] = opGoto
	dispatch[opcodes.JSR] = opJsr
	dispatch[opcodes.RET] = opRet

	dispatch[opcodes.TABLESWITCH] = opTableswitch
	dispatch[opcodes.LOOKUPSWITCH] = opLookupswitch

	dispatch[opcodes.IRETURN] = opReturn(types.KindInt)
	dispatch[opcodes.LRETURN] = opReturn(types.KindLong)
	dispatch[opcodes.FRETURN] = opReturn(types.KindFloat)
	dispatch[opcodes.DRETURN] = opReturn(types.KindDouble)
	dispatch[opcodes.ARETURN] = opReturn(types.KindReference)
	dispatch[opcodes.RETURN] = opReturnVoid

	dispatch[opcodes.GETSTATIC] = opGetstatic
	dispatch[opcodes.PUTSTATIC] = opPutstatic
	dispatch[opcodes.GETFIELD] = opGetfield
	dispatch[opcodes.PUTFIELD] = opPutfield

	dispatch[opcodes.INVOKESTATIC] = opInvokestatic
	dispatch[opcodes.INVOKESPECIAL] = opInvokespecial
	dispatch[opcodes.INVOKEVIRTUAL] = opInvokevirtual
	dispatch[opcodes.INVOKEINTERFACE] = opInvokeinterface

	dispatch[opcodes.NEW] = opNew
	dispatch[opcodes.NEWARRAY] = opNewarray
	dispatch[opcodes.ANEWARRAY] = opAnewarray
	dispatch[opcodes.ARRAYLENGTH] = opArraylength
	dispatch[opcodes.MULTIANEWARRAY] = opMultianewarray

	dispatch[opcodes.CHECKCAST] = opCheckcast
	dispatch[opcodes.INSTANCEOF] = opInstanceof
	dispatch[opcodes.MONITORENTER] = opMonitor
	dispatch[opcodes.MONITOREXIT] = opMonitor
}

// Step executes exactly one opcode on the thread's current frame.
func Step(th *Thread, ma *classloader.MethodArea) error {
	f, err := th.CurrentFrame()
	if err != nil {
		return err
	}
	op, err := f.NextInstruction()
	if err != nil {
		return err
	}
	h := dispatch[op]
	if h == nil {
		return vmerrors.New(vmerrors.UnimplementedOpcode, "unmapped opcode 0x%02x at pc %d in %s", op, f.PC(), f.Signature)
	}
	return h(th, ma)
}

// --- constants ---

func opNop(th *Thread, ma *classloader.MethodArea) error { return nil }

func opAconstNull(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	f.PushOperand(types.Null)
	return nil
}

func constInt(v int32) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		f.PushOperand(types.NewInt(v))
		return nil
	}
}
func constLong(v int64) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		f.PushOperand(types.NewLong(v))
		return nil
	}
}
func constFloat(v float32) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		f.PushOperand(types.NewFloat(v))
		return nil
	}
}
func constDouble(v float64) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		f.PushOperand(types.NewDouble(v))
		return nil
	}
}

func opBipush(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	b, err := f.NextParamU8()
	if err != nil {
		return err
	}
	f.PushOperand(types.NewInt(int32(int8(b))))
	return nil
}

func opSipush(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	u, err := f.NextParamU16()
	if err != nil {
		return err
	}
	f.PushOperand(types.NewInt(int32(int16(u))))
	return nil
}

func ldcValue(entry classloader.RTCPEntry) (types.Value, error) {
	switch entry.Tag {
	case classloader.CPInteger:
		return types.NewInt(entry.Integer), nil
	case classloader.CPFloat:
		return types.NewFloat(entry.Float), nil
	case classloader.CPLong:
		return types.NewLong(entry.Long), nil
	case classloader.CPDouble:
		return types.NewDouble(entry.Double), nil
	case classloader.CPString:
		// No live string object materializes; see DESIGN.md's open-question
		// decision. ldc of a String constant resolves to null.
		return types.Null, nil
	default:
		return types.Value{}, vmerrors.New(vmerrors.TypeMismatch, "ldc of unsupported constant-pool tag %d", entry.Tag)
	}
}

func opLdc(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU8()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	v, err := ldcValue(entry)
	if err != nil {
		return err
	}
	f.PushOperand(v)
	return nil
}

func opLdcW(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	v, err := ldcValue(entry)
	if err != nil {
		return err
	}
	f.PushOperand(v)
	return nil
}

func opLdc2W(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	idx, err := f.NextParamU16()
	if err != nil {
		return err
	}
	entry, err := f.Class.CP.Get(int(idx))
	if err != nil {
		return err
	}
	switch entry.Tag {
	case classloader.CPLong:
		f.PushOperand(types.NewLong(entry.Long))
	case classloader.CPDouble:
		f.PushOperand(types.NewDouble(entry.Double))
	default:
		return vmerrors.New(vmerrors.TypeMismatch, "ldc2_w requires a Long/Double constant")
	}
	return nil
}

// --- loads / stores ---

func readU8Index(f *frames.Frame) (int, error) {
	b, err := f.NextParamU8()
	return int(b), err
}

func loadSlot(readIndex func(*frames.Frame) (int, error)) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		idx, err := readIndex(f)
		if err != nil {
			return err
		}
		f.PushOperand(f.GetLocal(idx))
		return nil
	}
}

func loadFixed(idx int) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		f.PushOperand(f.GetLocal(idx))
		return nil
	}
}

func storeSlot(readIndex func(*frames.Frame) (int, error)) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		idx, err := readIndex(f)
		if err != nil {
			return err
		}
		v, err := f.PopOperand()
		if err != nil {
			return err
		}
		f.SetLocal(idx, v)
		return nil
	}
}

func storeFixed(idx int) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		v, err := f.PopOperand()
		if err != nil {
			return err
		}
		f.SetLocal(idx, v)
		return nil
	}
}

// --- array loads / stores ---

func arrayRefAndIndex(f *frames.Frame, heap *object.Heap) (object.Array, int32, error) {
	idxV, err := f.PopOperand()
	if err != nil {
		return nil, 0, err
	}
	if idxV.Kind != types.KindInt {
		return nil, 0, vmerrors.New(vmerrors.TypeMismatch, "array index must be Int, got %s", idxV.Kind)
	}
	refV, err := f.PopOperand()
	if err != nil {
		return nil, 0, err
	}
	if refV.Kind != types.KindReference || refV.Ref == 0 {
		return nil, 0, vmerrors.New(vmerrors.NullReference, "array operand is null")
	}
	slot, err := heap.Get(refV.Ref)
	if err != nil {
		return nil, 0, err
	}
	if slot.Kind != object.RefArrayKind {
		return nil, 0, vmerrors.New(vmerrors.TypeMismatch, "reference does not hold an array")
	}
	return slot.Array, idxV.Int, nil
}

func arrayLoad(expect types.Kind) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		arr, idx, err := arrayRefAndIndex(f, th.heap)
		if err != nil {
			return err
		}
		v, err := arr.Get(idx)
		if err != nil {
			return err
		}
		f.PushOperand(v)
		return nil
	}
}

func arrayStore(expect types.Kind) handlerFunc {
	return func(th *Thread, ma *classloader.MethodArea) error {
		f, _ := th.CurrentFrame()
		v, err := f.PopOperand()
		if err != nil {
			return err
		}
		arr, idx, err := arrayRefAndIndex(f, th.heap)
		if err != nil {
			return err
		}
		return arr.Put(idx, v)
	}
}

// --- stack manipulation ---

func opPop(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	_, err := f.PopOperand()
	return err
}

func opPop2(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	top, err := f.PopOperand()
	if err != nil {
		return err
	}
	if top.Category() == types.CategoryTwo {
		return nil
	}
	_, err = f.PopOperand()
	return err
}

func opDup(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	return f.DupOperand()
}

func opDupX1(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	top, err := f.PopOperand()
	if err != nil {
		return err
	}
	below, err := f.PopOperand()
	if err != nil {
		return err
	}
	f.PushOperand(top)
	f.PushOperand(below)
	f.PushOperand(top)
	return nil
}

func opDupX2(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	top, err := f.PopOperand()
	if err != nil {
		return err
	}
	second, err := f.PopOperand()
	if err != nil {
		return err
	}
	if second.Category() == types.CategoryTwo {
		f.PushOperand(top)
		f.PushOperand(second)
		f.PushOperand(top)
		return nil
	}
	third, err := f.PopOperand()
	if err != nil {
		return err
	}
	f.PushOperand(top)
	f.PushOperand(third)
	f.PushOperand(second)
	f.PushOperand(top)
	return nil
}

func opDup2(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	top, err := f.PopOperand()
	if err != nil {
		return err
	}
	if top.Category() == types.CategoryTwo {
		f.PushOperand(top)
		f.PushOperand(top)
		return nil
	}
	second, err := f.PopOperand()
	if err != nil {
		return err
	}
	f.PushOperand(second)
	f.PushOperand(top)
	f.PushOperand(second)
	f.PushOperand(top)
	return nil
}

func opDup2X1(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	top, err := f.PopOperand()
	if err != nil {
		return err
	}
	if top.Category() == types.CategoryTwo {
		below, err := f.PopOperand()
		if err != nil {
			return err
		}
		f.PushOperand(top)
		f.PushOperand(below)
		f.PushOperand(top)
		return nil
	}
	second, err := f.PopOperand()
	if err != nil {
		return err
	}
	third, err := f.PopOperand()
	if err != nil {
		return err
	}
	f.PushOperand(second)
	f.PushOperand(top)
	f.PushOperand(third)
	f.PushOperand(second)
	f.PushOperand(top)
	return nil
}

func opDup2X2(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	v1, err := f.PopOperand()
	if err != nil {
		return err
	}
	v2, err := f.PopOperand()
	if err != nil {
		return err
	}
	if v1.Category() == types.CategoryTwo && v2.Category() == types.CategoryTwo {
		f.PushOperand(v1)
		f.PushOperand(v2)
		f.PushOperand(v1)
		return nil
	}
	if v1.Category() == types.CategoryOne && v2.Category() == types.CategoryOne {
		v3, err := f.PopOperand()
		if err != nil {
			return err
		}
		if v3.Category() == types.CategoryTwo {
			f.PushOperand(v2)
			f.PushOperand(v1)
			f.PushOperand(v3)
			f.PushOperand(v2)
			f.PushOperand(v1)
			return nil
		}
		v4, err := f.PopOperand()
		if err != nil {
			return err
		}
		f.PushOperand(v2)
		f.PushOperand(v1)
		f.PushOperand(v4)
		f.PushOperand(v3)
		f.PushOperand(v2)
		f.PushOperand(v1)
		return nil
	}
	return vmerrors.New(vmerrors.TypeMismatch, "dup2_x2: inconsistent operand categories")
}

func opSwap(th *Thread, ma *classloader.MethodArea) error {
	f, _ := th.CurrentFrame()
	top, err := f.PopOperand()
	if err != nil {
		return err
	}
	below, err := f.PopOperand()
	if err != nil {
		return err
	}
	f.PushOperand(top)
	f.PushOperand(below)
	return nil
}
