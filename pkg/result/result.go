package result

import "fmt"

// Result is the wire envelope: {"code": ..., "msg": ..., "data": ...}.
// Data is present only when Code is the success sentinel. Immutable after
// creation by convention.
type Result struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// Success builds a success envelope carrying the given payload.
func Success(data any) Result {
	return Result{Code: CodeSuccess, Msg: Lookup(CodeSuccess).Template, Data: data}
}

// Failure builds an error envelope. The name avoids the Error type, which
// is the business-fault carrier. Building one with the success sentinel is
// a programming error and fails loudly.
func Failure(code, msg string) Result {
	if code == CodeSuccess {
		panic(fmt.Sprintf("result: error envelope built with success code %s (msg=%q)", code, msg))
	}
	return Result{Code: code, Msg: msg}
}

// Errorf builds an error envelope formatting the template with positional
// {} placeholders. Formatting never fails (see Format).
func Errorf(code, template string, args ...any) Result {
	return Failure(code, Format(template, args...))
}

// ErrorCode builds an error envelope from a registered code using its
// registered message template.
func ErrorCode(code string, args ...any) Result {
	return Errorf(code, Lookup(code).Template, args...)
}

// IsSuccess reports whether the envelope carries the success sentinel.
func (r Result) IsSuccess() bool {
	return r.Code == CodeSuccess
}

// IsError is the exact complement of IsSuccess.
func (r Result) IsError() bool {
	return !r.IsSuccess()
}

// Class returns the fault class of the envelope code.
func (r Result) Class() FaultClass {
	return ClassOf(r.Code)
}
