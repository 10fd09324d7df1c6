package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAttemptTimeoutFor(t *testing.T) {
	b := New(nil, WithMaxDepth(4), WithAttemptTimeout(8*time.Second, 3*time.Second))

	require.Equal(t, 8*time.Second, b.attemptTimeoutFor(4))
	require.Equal(t, 6*time.Second, b.attemptTimeoutFor(3))
	require.Equal(t, 4*time.Second, b.attemptTimeoutFor(2))
	require.Equal(t, 3*time.Second, b.attemptTimeoutFor(1))
	require.Equal(t, 3*time.Second, b.attemptTimeoutFor(0))
}
