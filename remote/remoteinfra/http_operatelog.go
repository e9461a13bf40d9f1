package remoteinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/bastion/remote"
)

// HTTPOperateLogClient cliente HTTP del servicio remoto de logs
type HTTPOperateLogClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ remote.OperateLogClient = (*HTTPOperateLogClient)(nil)

// NewHTTPOperateLogClient crea el cliente con timeout por llamada
func NewHTTPOperateLogClient(baseURL string, timeout time.Duration) *HTTPOperateLogClient {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &HTTPOperateLogClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Record envía un registro de auditoría. Retorna true si el servicio lo
// aceptó; un error de negocio del servicio pasa intacto.
func (c *HTTPOperateLogClient) Record(ctx context.Context, entry remote.OperateLogEntry) (bool, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return false, remote.ErrUnexpectedResponse().WithDetail("error", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/logs/operate", bytes.NewReader(payload))
	if err != nil {
		return false, remote.ErrLogServiceUnavailable().WithDetail("error", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, remote.ErrLogServiceUnavailable().WithCause(err)
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return false, err
	}
	if env.Code != result.CodeSuccess {
		// Error de negocio bien formado del servicio remoto
		return false, result.NewError(env.Code, env.Msg)
	}
	return true, nil
}

// wireEnvelope es la forma {code,msg,data} devuelta por los servicios
// remotos del backend.
type wireEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func decodeEnvelope(resp *http.Response) (*wireEnvelope, error) {
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, remote.ErrUnexpectedResponse().
			WithDetail("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, remote.ErrUnexpectedResponse().WithCause(err)
	}

	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, remote.ErrUnexpectedResponse().WithCause(err)
	}
	return &env, nil
}
