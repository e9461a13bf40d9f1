// Package result defines the uniform response envelope shared by every
// endpoint and the registry of well-known envelope codes. Callers branch
// only on Code: the success sentinel means Data is meaningful, anything
// else means Msg is meaningful.
package result

import "net/http"

// FaultClass is the coarse classification of a non-success code,
// derived from the first byte of the code.
type FaultClass string

const (
	FaultNone     FaultClass = "none"     // success sentinel
	FaultCaller   FaultClass = "caller"   // A-class: bad input, missing auth, not found
	FaultServer   FaultClass = "server"   // B-class: internal errors, unprovisioned modules
	FaultUpstream FaultClass = "upstream" // C-class: third-party / remote dependency
)

// CodeSuccess is the distinguished sentinel; it is never reused for
// failures (Error panics on it).
const CodeSuccess = "00000"

// Well-known envelope codes. The first byte partitions the namespace:
// A = caller fault, B = server fault, C = upstream fault.
const (
	CodeBadRequest       = "A0400"
	CodeUnauthorized     = "A0401"
	CodeForbidden        = "A0403"
	CodeNotFound         = "A0404"
	CodeMethodNotAllowed = "A0405"
	CodePayloadTooLarge  = "A0413"
	CodeUnsupportedMedia = "A0415"
	CodeParamMissing     = "A0410"
	CodeParamType        = "A0421"
	CodeValidation       = "A0430"
	CodeDemoDenied       = "A0901"

	CodeInternalError = "B0001"
	CodeModuleMissing = "B0101"
	CodeUpstreamError = "C0001"
)

// CodeInfo describes a registered envelope code.
type CodeInfo struct {
	Template   string
	Class      FaultClass
	HTTPStatus int
}

// registry is populated once here and read-only afterwards; no write path
// exists at request time.
var registry = map[string]CodeInfo{
	CodeSuccess:          {"ok", FaultNone, http.StatusOK},
	CodeBadRequest:       {"malformed request body: {}", FaultCaller, http.StatusBadRequest},
	CodeUnauthorized:     {"authentication required", FaultCaller, http.StatusUnauthorized},
	CodeForbidden:        {"access denied", FaultCaller, http.StatusForbidden},
	CodeNotFound:         {"resource not found: {}", FaultCaller, http.StatusNotFound},
	CodeMethodNotAllowed: {"method {} not allowed", FaultCaller, http.StatusMethodNotAllowed},
	CodePayloadTooLarge:  {"uploaded file is too large", FaultCaller, http.StatusRequestEntityTooLarge},
	CodeUnsupportedMedia: {"unsupported content type", FaultCaller, http.StatusUnsupportedMediaType},
	CodeParamMissing:     {"missing required parameter: {}", FaultCaller, http.StatusBadRequest},
	CodeParamType:        {"parameter {} has invalid value: {}", FaultCaller, http.StatusBadRequest},
	CodeValidation:       {"validation failed: {}", FaultCaller, http.StatusBadRequest},
	CodeDemoDenied:       {"demo mode - write operations are disabled", FaultCaller, http.StatusOK},
	CodeInternalError:    {"internal server error, please try again later", FaultServer, http.StatusInternalServerError},
	CodeModuleMissing:    {"the {} module is not provisioned on this deployment", FaultServer, http.StatusNotImplemented},
	CodeUpstreamError:    {"upstream service call failed", FaultUpstream, http.StatusInternalServerError},
}

// Registered returns the info for a code and whether it is a well-known
// registered one.
func Registered(code string) (CodeInfo, bool) {
	info, ok := registry[code]
	return info, ok
}

// Lookup returns the registered info for a code. Unknown codes fall back
// to a class derived from the first byte and a 500 status, so an envelope
// can always be rendered.
func Lookup(code string) CodeInfo {
	if info, ok := registry[code]; ok {
		return info
	}
	return CodeInfo{Template: "", Class: ClassOf(code), HTTPStatus: http.StatusInternalServerError}
}

// ClassOf derives the fault class from the first byte of a code.
func ClassOf(code string) FaultClass {
	if code == CodeSuccess {
		return FaultNone
	}
	if len(code) == 0 {
		return FaultServer
	}
	switch code[0] {
	case 'A':
		return FaultCaller
	case 'B':
		return FaultServer
	case 'C':
		return FaultUpstream
	}
	return FaultServer
}

// StatusOf returns the HTTP status a code renders with.
func StatusOf(code string) int {
	return Lookup(code).HTTPStatus
}
