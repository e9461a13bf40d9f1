package remoteinfra

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/bastion/remote"
)

// HTTPPermissionClient cliente HTTP del servicio remoto de permisos
type HTTPPermissionClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ remote.PermissionClient = (*HTTPPermissionClient)(nil)

// NewHTTPPermissionClient crea el cliente con timeout por llamada
func NewHTTPPermissionClient(baseURL string, timeout time.Duration) *HTTPPermissionClient {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &HTTPPermissionClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type permissionCheckRequest struct {
	UserID     kernel.UserID `json:"user_id"`
	Permission string        `json:"permission"`
}

type permissionCheckResponse struct {
	Allowed bool `json:"allowed"`
}

// HasPermission consulta si el usuario tiene el permiso dado
func (c *HTTPPermissionClient) HasPermission(ctx context.Context, userID kernel.UserID, permission string) (bool, error) {
	payload, err := json.Marshal(permissionCheckRequest{UserID: userID, Permission: permission})
	if err != nil {
		return false, remote.ErrUnexpectedResponse().WithDetail("error", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/permissions/check", bytes.NewReader(payload))
	if err != nil {
		return false, remote.ErrPermServiceUnavailable().WithDetail("error", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, remote.ErrPermServiceUnavailable().WithCause(err)
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return false, err
	}
	if env.Code != result.CodeSuccess {
		return false, result.NewError(env.Code, env.Msg)
	}

	var check permissionCheckResponse
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &check); err != nil {
			return false, remote.ErrUnexpectedResponse().WithCause(err)
		}
	}
	return check.Allowed, nil
}
