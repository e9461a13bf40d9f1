package operatelog

import (
	"net/http"

	"github.com/Abraxas-365/craftable/errx"
)

var ErrRegistry = errx.NewRegistry("OPLOG")

var (
	CodeQueueUnavailable = ErrRegistry.Register("QUEUE_UNAVAILABLE", errx.TypeExternal, http.StatusServiceUnavailable, "Error log queue is unavailable")
	CodeStoreFailed      = ErrRegistry.Register("STORE_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to store error logs")
)

func ErrQueueUnavailable() *errx.Error {
	return ErrRegistry.New(CodeQueueUnavailable)
}

func ErrStoreFailed() *errx.Error {
	return ErrRegistry.New(CodeStoreFailed)
}
