package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/bastion/pkg/kernel"
	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type operateLogFunc func(ctx context.Context, entry OperateLogEntry) (bool, error)

func (f operateLogFunc) Record(ctx context.Context, entry OperateLogEntry) (bool, error) {
	return f(ctx, entry)
}

type permissionFunc func(ctx context.Context, userID kernel.UserID, permission string) (bool, error)

func (f permissionFunc) HasPermission(ctx context.Context, userID kernel.UserID, permission string) (bool, error) {
	return f(ctx, userID, permission)
}

func TestBestEffortSwallowsTransportFailure(t *testing.T) {
	client := NewOperateLogFallback(operateLogFunc(func(ctx context.Context, entry OperateLogEntry) (bool, error) {
		return false, errors.New("dial tcp: connection refused")
	}))

	recorded, err := client.Record(context.Background(), OperateLogEntry{TraceID: "t1"})
	assert.NoError(t, err, "a transport failure of a best-effort dependency must not surface")
	assert.False(t, recorded)
}

func TestBestEffortPassesBusinessErrorThrough(t *testing.T) {
	want := result.NewError("A2001", "tenant log quota exhausted")
	client := NewOperateLogFallback(operateLogFunc(func(ctx context.Context, entry OperateLogEntry) (bool, error) {
		return false, want
	}))

	_, err := client.Record(context.Background(), OperateLogEntry{})
	assert.Same(t, want, err)
}

func TestBestEffortPassesSuccessThrough(t *testing.T) {
	client := NewOperateLogFallback(operateLogFunc(func(ctx context.Context, entry OperateLogEntry) (bool, error) {
		return true, nil
	}))

	recorded, err := client.Record(context.Background(), OperateLogEntry{})
	assert.NoError(t, err)
	assert.True(t, recorded)
}

func TestCriticalTransportFailureBecomesUpstreamFault(t *testing.T) {
	client := NewPermissionFallback(permissionFunc(func(ctx context.Context, userID kernel.UserID, permission string) (bool, error) {
		return false, errors.New("context deadline exceeded")
	}))

	allowed, err := client.HasPermission(context.Background(), kernel.NewUserID("u1"), "users:write")
	assert.False(t, allowed)

	var be *result.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, result.CodeUpstreamError, be.Code)
}

func TestCriticalPassesBusinessErrorThrough(t *testing.T) {
	want := result.NewError("A2002", "permission model disabled for tenant")
	client := NewPermissionFallback(permissionFunc(func(ctx context.Context, userID kernel.UserID, permission string) (bool, error) {
		return false, want
	}))

	_, err := client.HasPermission(context.Background(), kernel.NewUserID("u1"), "users:write")
	assert.Same(t, want, err)
}

func TestCriticalPassesDenialThrough(t *testing.T) {
	client := NewPermissionFallback(permissionFunc(func(ctx context.Context, userID kernel.UserID, permission string) (bool, error) {
		return false, nil
	}))

	allowed, err := client.HasPermission(context.Background(), kernel.NewUserID("u1"), "users:delete")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestSubmitReturnsWithoutWaiting(t *testing.T) {
	done := make(chan struct{})
	start := time.Now()

	Submit("slow-side-effect", time.Second, func(ctx context.Context) error {
		defer close(done)
		time.Sleep(150 * time.Millisecond)
		return nil
	})

	assert.Less(t, time.Since(start), 50*time.Millisecond,
		"Submit must not block the caller on the side effect")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("side effect never ran")
	}
}

func TestSubmitContainsPanicsAndErrors(t *testing.T) {
	ran := make(chan struct{})

	assert.NotPanics(t, func() {
		Submit("panicky", time.Second, func(ctx context.Context) error {
			close(ran)
			panic("boom")
		})
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("side effect never ran")
	}
	// give the recover a beat; nothing observable should escape
	time.Sleep(20 * time.Millisecond)

	Submit("failing", time.Second, func(ctx context.Context) error {
		return errors.New("transient")
	})
}
