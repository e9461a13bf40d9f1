package remote

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

var ErrRegistry = errx.NewRegistry("REMOTE")

var (
	CodeLogServiceUnavailable  = ErrRegistry.Register("LOG_SERVICE_UNAVAILABLE", errx.TypeExternal, http.StatusServiceUnavailable, "Log service is unavailable")
	CodePermServiceUnavailable = ErrRegistry.Register("PERMISSION_SERVICE_UNAVAILABLE", errx.TypeExternal, http.StatusServiceUnavailable, "Permission service is unavailable")
	CodeUnexpectedResponse     = ErrRegistry.Register("UNEXPECTED_RESPONSE", errx.TypeExternal, http.StatusBadGateway, "Unexpected response from remote service")
)

func ErrLogServiceUnavailable() *errx.Error {
	return ErrRegistry.New(CodeLogServiceUnavailable)
}

func ErrPermServiceUnavailable() *errx.Error {
	return ErrRegistry.New(CodePermServiceUnavailable)
}

func ErrUnexpectedResponse() *errx.Error {
	return ErrRegistry.New(CodeUnexpectedResponse)
}
