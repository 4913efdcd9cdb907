package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := New(NotFound, "admin.verify", "No registration found for user 42.")
	wrapped := fmt.Errorf("handler: %w", base)

	require.True(t, Is(wrapped, NotFound))
	require.False(t, Is(wrapped, Unauthorized))
	require.Equal(t, NotFound, KindOf(wrapped))
	require.Equal(t, "No registration found for user 42.", UserMessage(wrapped))
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(TransportFailure, "send", nil))
}

func TestCodeAndMessage(t *testing.T) {
	err := Wrap(TransportFailure, "notify.admin", errors.New("dial tcp: timeout"))

	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, "TRANSPORT_FAILURE", e.Code())
	require.Equal(t, "notify.admin: dial tcp: timeout", err.Error())
	require.Equal(t, "Unauthorized access.", UserMessage(New(Unauthorized, "admin.stats", "")))
	require.Contains(t, UserMessage(errors.New("boom")), "An error occurred")
}
