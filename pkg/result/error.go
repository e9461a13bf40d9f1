package result

// Error is the business-fault carrier: an explicitly raised domain error
// that declares its own envelope code and message. The exception
// dispatcher renders it verbatim instead of classifying it.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Msg
}

// NewError raises a business fault with a formatted message. Raising one
// with the success sentinel fails loudly, same as Error envelopes.
func NewError(code, template string, args ...any) *Error {
	if code == CodeSuccess {
		panic("result: business error raised with success code")
	}
	return &Error{Code: code, Msg: Format(template, args...)}
}

// NewCodeError raises a business fault from a registered code using its
// registered message template.
func NewCodeError(code string, args ...any) *Error {
	return NewError(code, Lookup(code).Template, args...)
}

// Envelope renders the fault as a wire envelope.
func (e *Error) Envelope() Result {
	return Result{Code: e.Code, Msg: e.Msg}
}
