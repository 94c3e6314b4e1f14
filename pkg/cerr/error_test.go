package cerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazz187/lettatool/pkg/storage"
)

func TestExtract(t *testing.T) {
	base := NewError(NotFoundOrAuth, "failed to get agent", errors.New("404"))

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "coded", err: base, want: NotFoundOrAuth},
		{name: "wrapped", err: fmt.Errorf("list: %w", base), want: NotFoundOrAuth},
		{name: "canceled", err: fmt.Errorf("get: %w", context.Canceled), want: Canceled},
		{name: "plain", err: errors.New("boom"), want: Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.err)
			assert.Equal(t, tt.want, got.Code)
			assert.Equal(t, 1, got.Code.ExitCode())
		})
	}
	assert.Nil(t, Extract(nil))
}

func TestError(t *testing.T) {
	e := NewError(MissingCredential, "LETTA_API_KEY environment variable not set", nil)
	assert.Equal(t, "[missing_credential] LETTA_API_KEY environment variable not set", e.Error())
	assert.Empty(t, e.Stack)
	assert.True(t, IsCode(e, MissingCredential))
	assert.False(t, IsCode(errors.New("x"), MissingCredential))

	internal := NewError(Internal, "bad", errors.New("cause"))
	assert.NotEmpty(t, internal.Stack)
	assert.Equal(t, "[internal] bad: cause", internal.Error())
}

func TestCode(t *testing.T) {
	assert.Equal(t, 0, OK.ExitCode())
	assert.Equal(t, "remote_request_failed", RemoteRequestFailed.String())
	assert.Equal(t, "unknown", Code(99).String())
	assert.True(t, MissingAgentID.Fatal())
	assert.False(t, RemoteRequestFailed.Fatal())
}

func TestWrapStorageReadError(t *testing.T) {
	missing := WrapStorageReadError("echo.py", fmt.Errorf("open: %w", storage.ErrNotFound))
	assert.True(t, IsCode(missing, MissingLocalArtifact))
	assert.Contains(t, missing.Error(), "echo.py not found")

	other := WrapStorageReadError("echo.py", errors.New("permission denied"))
	assert.True(t, IsCode(other, Internal))
	assert.True(t, IsCode(WrapStorageWriteError("echo.py", errors.New("disk full")), Internal))
}
