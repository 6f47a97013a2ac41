package fetch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	netErr := errors.New("connection refused")

	tests := []struct {
		name    string
		o       outcome
		attempt int
		want    State
	}{
		{"transport error with budget", outcome{transportErr: netErr}, 1, StateRetrying},
		{"transport error exhausted", outcome{transportErr: netErr}, 3, StateTerminalError},
		{"rate limited with budget", outcome{status: 429}, 2, StateRetrying},
		{"rate limited exhausted", outcome{status: 429}, 3, StateTerminalError},
		{"server error with budget", outcome{status: 503}, 1, StateRetrying},
		{"server error exhausted", outcome{status: 500}, 3, StateTerminalError},
		{"client error", outcome{status: 404}, 1, StateTerminalError},
		{"forbidden", outcome{status: 403}, 1, StateTerminalError},
		{"decode failure", outcome{status: 200, decodeErr: errors.New("bad")}, 1, StateTerminalError},
		{"empty batch", outcome{status: 200}, 1, StateSucceededEmpty},
		{"batch", outcome{status: 200, batchSize: 4}, 1, StateSucceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transition(tt.o, tt.attempt, 3))
		})
	}
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, KindNetwork, failureKind(outcome{transportErr: errors.New("x")}))
	assert.Equal(t, KindRateLimited, failureKind(outcome{status: 429}))
	assert.Equal(t, KindUpstream, failureKind(outcome{status: 502}))
	assert.Equal(t, KindUpstream, failureKind(outcome{status: 404}))
	assert.Equal(t, KindDecode, failureKind(outcome{status: 200, decodeErr: errors.New("x")}))
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateRetrying.Terminal())
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateSucceededEmpty.Terminal())
	assert.True(t, StateTerminalError.Terminal())
	assert.Equal(t, "succeeded_empty", StateSucceededEmpty.String())
}
