package typecheck

import (
	"errors"
	"fmt"
	"strconv"
)

// Error is a typecheck failure. Checking stops at the first Error; no
// partial result accompanies it.
type Error struct {
	// Code identifies the violated rule.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details carries the offending types (mangled), indices and names.
	Details map[string]string
}

// ErrorCode categorizes typecheck failures. There is one code per
// distinguishable violation; codes do not form a hierarchy.
type ErrorCode string

const (
	ErrCodeWrongBinopArgs               ErrorCode = "WRONG_BINOP_ARGS"
	ErrCodeWrongUnOpArgs                ErrorCode = "WRONG_UNOP_ARGS"
	ErrCodeRefToPtrArgNotRef            ErrorCode = "REF_TO_PTR_ARG_NOT_REF"
	ErrCodeInvalidPtrCast               ErrorCode = "INVALID_PTR_CAST"
	ErrCodeManagedPtrCast               ErrorCode = "MANAGED_PTR_CAST"
	ErrCodeTypeNotPtr                   ErrorCode = "TYPE_NOT_PTR"
	ErrCodeDerefWrongPtr                ErrorCode = "DEREF_WRONG_PTR"
	ErrCodeCallArgcWrong                ErrorCode = "CALL_ARGC_WRONG"
	ErrCodeCallArgTypeWrong             ErrorCode = "CALL_ARG_TYPE_WRONG"
	ErrCodeIntCastInvalidInput          ErrorCode = "INT_CAST_INVALID_INPUT"
	ErrCodeFloatCastInvalidInput        ErrorCode = "FLOAT_CAST_INVALID_INPUT"
	ErrCodeFieldAccessInvalidType       ErrorCode = "FIELD_ACCESS_INVALID_TYPE"
	ErrCodeFieldOwnerMismatch           ErrorCode = "FIELD_OWNER_MISMATCH"
	ErrCodeFieldNotPresent              ErrorCode = "FIELD_NOT_PRESENT"
	ErrCodeExpectedClassGotValuetype    ErrorCode = "EXPECTED_CLASS_GOT_VALUETYPE"
	ErrCodeTypeNotClass                 ErrorCode = "TYPE_NOT_CLASS"
	ErrCodeIndirectCallArgcWrong        ErrorCode = "INDIRECT_CALL_ARGC_WRONG"
	ErrCodeIndirectCallArgTypeWrong     ErrorCode = "INDIRECT_CALL_ARG_TYPE_WRONG"
	ErrCodeIndirectCallInvalidFnPtrType ErrorCode = "INDIRECT_CALL_INVALID_FNPTR_TYPE"
	ErrCodeIndirectCallInvalidFnPtrSig  ErrorCode = "INDIRECT_CALL_INVALID_FNPTR_SIG"
	ErrCodeLdLenArgNotArray             ErrorCode = "LDLEN_ARG_NOT_ARRAY"
	ErrCodeLdLenArrNot1D                ErrorCode = "LDLEN_ARR_NOT_1D"
	ErrCodeArrIndexInvalidType          ErrorCode = "ARR_INDEX_INVALID_TYPE"
	ErrCodeSizeOfVoid                   ErrorCode = "SIZEOF_VOID"
	ErrCodeLocalAssignmentWrong         ErrorCode = "LOCAL_ASSIGNMENT_WRONG"
	ErrCodeValueTypeCompare             ErrorCode = "VALUETYPE_COMPARE"
	ErrCodeWriteWrongAddr               ErrorCode = "WRITE_WRONG_ADDR"
	ErrCodeWriteWrongValue              ErrorCode = "WRITE_WRONG_VALUE"
	ErrCodeConditionNotBool             ErrorCode = "CONDITION_NOT_BOOL"
	ErrCodeCantCompareTypes             ErrorCode = "CANT_COMPARE_TYPES"
	ErrCodeFieldAssignWrongType         ErrorCode = "FIELD_ASSIGN_WRONG_TYPE"

	// Slot indices out of range for the function being checked.
	ErrCodeLocalOutOfRange ErrorCode = "LOCAL_OUT_OF_RANGE"
	ErrCodeArgOutOfRange   ErrorCode = "ARG_OUT_OF_RANGE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of a typecheck error anywhere in err's chain, or
// "" if there is none.
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsCode reports whether err is a typecheck error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

func newError(code ErrorCode, msg string, kv ...string) *Error {
	e := &Error{Code: code, Message: msg}
	if len(kv) > 0 {
		e.Details = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Details[kv[i]] = kv[i+1]
		}
	}
	return e
}

func itoa(i int) string { return strconv.Itoa(i) }

func errWrongBinopArgs(lhs, rhs, op string) *Error {
	return newError(ErrCodeWrongBinopArgs,
		fmt.Sprintf("%s cannot be applied to %s and %s", op, lhs, rhs),
		"lhs", lhs, "rhs", rhs, "op", op)
}

func errWrongUnOpArgs(tpe, op string) *Error {
	return newError(ErrCodeWrongUnOpArgs,
		fmt.Sprintf("%s cannot be applied to %s", op, tpe),
		"type", tpe, "op", op)
}

func errRefToPtrArgNotRef(arg string) *Error {
	return newError(ErrCodeRefToPtrArgNotRef,
		fmt.Sprintf("reference-to-pointer cast of non-reference %s", arg),
		"arg", arg)
}

func errInvalidPtrCast(expected, got string) *Error {
	return newError(ErrCodeInvalidPtrCast,
		fmt.Sprintf("cannot cast %s to pointer %s", got, expected),
		"expected", expected, "got", got)
}

func errManagedPtrCast(src, dst string) *Error {
	return newError(ErrCodeManagedPtrCast,
		fmt.Sprintf("pointer cast from %s to %s involves a managed reference", src, dst),
		"src", src, "dst", dst)
}

func errTypeNotPtr(tpe string) *Error {
	return newError(ErrCodeTypeNotPtr,
		fmt.Sprintf("expected a pointer or reference, got %s", tpe),
		"type", tpe)
}

func errDerefWrongPtr(expected, got string) *Error {
	return newError(ErrCodeDerefWrongPtr,
		fmt.Sprintf("dereference expected %s but address points to %s", expected, got),
		"expected", expected, "got", got)
}

func errCallArgcWrong(expected, got int, name string) *Error {
	return newError(ErrCodeCallArgcWrong,
		fmt.Sprintf("call to %s expected %d arguments, got %d", name, expected, got),
		"expected", itoa(expected), "got", itoa(got), "name", name)
}

func errCallArgTypeWrong(got, expected string, idx int, name string) *Error {
	return newError(ErrCodeCallArgTypeWrong,
		fmt.Sprintf("argument %d of call to %s: expected %s, got %s", idx, name, expected, got),
		"got", got, "expected", expected, "idx", itoa(idx), "name", name)
}

func errIntCastInvalidInput(got, target string) *Error {
	return newError(ErrCodeIntCastInvalidInput,
		fmt.Sprintf("cannot convert %s to %s", got, target),
		"got", got, "target", target)
}

func errFloatCastInvalidInput(got, target string) *Error {
	return newError(ErrCodeFloatCastInvalidInput,
		fmt.Sprintf("cannot convert %s to %s", got, target),
		"got", got, "target", target)
}

func errFieldAccessInvalidType(tpe, field string) *Error {
	return newError(ErrCodeFieldAccessInvalidType,
		fmt.Sprintf("field %s accessed on non-class %s", field, tpe),
		"type", tpe, "field", field)
}

func errFieldOwnerMismatch(owner, expectedOwner, field string) *Error {
	return newError(ErrCodeFieldOwnerMismatch,
		fmt.Sprintf("field %s belongs to %s, accessed through %s", field, expectedOwner, owner),
		"owner", owner, "expected_owner", expectedOwner, "field", field)
}

func errFieldNotPresent(tpe, name, owner string) *Error {
	return newError(ErrCodeFieldNotPresent,
		fmt.Sprintf("%s has no field %s of type %s", owner, name, tpe),
		"type", tpe, "name", name, "owner", owner)
}

func errExpectedClassGotValuetype(class string) *Error {
	return newError(ErrCodeExpectedClassGotValuetype,
		fmt.Sprintf("expected a reference class, got value type %s", class),
		"class", class)
}

func errTypeNotClass(object string) *Error {
	return newError(ErrCodeTypeNotClass,
		fmt.Sprintf("expected an object, got %s", object),
		"object", object)
}

func errIndirectCallArgcWrong(expected, got int) *Error {
	return newError(ErrCodeIndirectCallArgcWrong,
		fmt.Sprintf("indirect call expected %d arguments, got %d", expected, got),
		"expected", itoa(expected), "got", itoa(got))
}

func errIndirectCallArgTypeWrong(got, expected string, idx int) *Error {
	return newError(ErrCodeIndirectCallArgTypeWrong,
		fmt.Sprintf("argument %d of indirect call: expected %s, got %s", idx, expected, got),
		"got", got, "expected", expected, "idx", itoa(idx))
}

func errIndirectCallInvalidFnPtrType(fnPtr string) *Error {
	return newError(ErrCodeIndirectCallInvalidFnPtrType,
		fmt.Sprintf("indirect call through non-function-pointer %s", fnPtr),
		"fn_ptr", fnPtr)
}

func errIndirectCallInvalidFnPtrSig(expected, got string) *Error {
	return newError(ErrCodeIndirectCallInvalidFnPtrSig,
		fmt.Sprintf("indirect call signature %s does not match pointer %s", expected, got),
		"expected", expected, "got", got)
}

func errLdLenArgNotArray(got string) *Error {
	return newError(ErrCodeLdLenArgNotArray,
		fmt.Sprintf("expected an array, got %s", got),
		"got", got)
}

func errLdLenArrNot1D(got string) *Error {
	return newError(ErrCodeLdLenArrNot1D,
		fmt.Sprintf("expected a one-dimensional array, got %s", got),
		"got", got)
}

func errArrIndexInvalidType(index string) *Error {
	return newError(ErrCodeArrIndexInvalidType,
		fmt.Sprintf("array index of type %s", index),
		"index", index)
}

func errSizeOfVoid() *Error {
	return newError(ErrCodeSizeOfVoid, "size of void")
}

func errLocalAssignmentWrong(loc uint32, got, expected string) *Error {
	return newError(ErrCodeLocalAssignmentWrong,
		fmt.Sprintf("local %d of type %s assigned %s", loc, expected, got),
		"loc", itoa(int(loc)), "got", got, "expected", expected)
}

func errValueTypeCompare(lhs, rhs string) *Error {
	return newError(ErrCodeValueTypeCompare,
		fmt.Sprintf("value types %s and %s cannot be compared", lhs, rhs),
		"lhs", lhs, "rhs", rhs)
}

func errWriteWrongAddr(addr, tpe string) *Error {
	return newError(ErrCodeWriteWrongAddr,
		fmt.Sprintf("cannot store %s through %s", tpe, addr),
		"addr", addr, "type", tpe)
}

func errWriteWrongValue(tpe, value string) *Error {
	return newError(ErrCodeWriteWrongValue,
		fmt.Sprintf("cannot store %s as %s", value, tpe),
		"type", tpe, "value", value)
}

func errConditionNotBool(cond string) *Error {
	return newError(ErrCodeConditionNotBool,
		fmt.Sprintf("branch condition of type %s", cond),
		"cond", cond)
}

func errCantCompareTypes(lhs, rhs string) *Error {
	return newError(ErrCodeCantCompareTypes,
		fmt.Sprintf("cannot compare %s with %s", lhs, rhs),
		"lhs", lhs, "rhs", rhs)
}

func errFieldAssignWrongType(fieldType, field, value string) *Error {
	return newError(ErrCodeFieldAssignWrongType,
		fmt.Sprintf("field %s of type %s assigned %s", field, fieldType, value),
		"field_type", fieldType, "field", field, "value", value)
}

func errLocalOutOfRange(loc uint32, count int) *Error {
	return newError(ErrCodeLocalOutOfRange,
		fmt.Sprintf("local %d out of range (%d locals)", loc, count),
		"loc", itoa(int(loc)), "count", itoa(count))
}

func errArgOutOfRange(arg uint32, count int) *Error {
	return newError(ErrCodeArgOutOfRange,
		fmt.Sprintf("argument %d out of range (%d arguments)", arg, count),
		"arg", itoa(int(arg)), "count", itoa(count))
}
