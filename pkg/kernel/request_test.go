package kernel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentRequestOutsideRequestScope(t *testing.T) {
	_, ok := CurrentRequest(context.Background())
	assert.False(t, ok, "no ambient request outside a request scope")
}

func TestCurrentRequestRoundtrip(t *testing.T) {
	info := &RequestInfo{
		TraceID:   "trace-1",
		Method:    "POST",
		Path:      "/admin-api/users",
		IP:        "10.0.0.1",
		StartedAt: time.Now(),
	}

	ctx := WithRequest(context.Background(), info)
	got, ok := CurrentRequest(ctx)
	require.True(t, ok)
	assert.Same(t, info, got)
}

func TestCurrentRequestIdentityVisibleAfterAuth(t *testing.T) {
	info := &RequestInfo{TraceID: "trace-2"}
	ctx := WithRequest(context.Background(), info)

	// authentication attaches identity to the already-shared snapshot
	info.Auth = &AuthContext{
		UserID:   NewUserID("u1"),
		TenantID: NewTenantID("t1"),
		UserType: UserTypeMember,
	}

	got, ok := CurrentRequest(ctx)
	require.True(t, ok)
	require.NotNil(t, got.Auth)
	assert.Equal(t, NewUserID("u1"), got.Auth.UserID)
}

func TestAuthContextValidity(t *testing.T) {
	assert.False(t, (&AuthContext{}).IsValid())
	assert.False(t, (&AuthContext{UserID: NewUserID("u1")}).IsValid())

	full := &AuthContext{UserID: NewUserID("u1"), TenantID: NewTenantID("t1"), UserType: UserTypeAdmin}
	assert.True(t, full.IsValid())
	assert.True(t, full.IsAdmin())
}
