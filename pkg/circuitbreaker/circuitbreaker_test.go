package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

var errDown = errors.New("down")

func fail(context.Context) error    { return errDown }
func succeed(context.Context) error { return nil }

func TestOpensAfterThreshold(t *testing.T) {
	var transitions []string
	cb := New("test",
		WithFailureThreshold(2),
		WithOnStateChange(func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)
	ctx := context.Background()

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, Rejected(err))
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestHalfOpenProbe(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	cb := New("test", WithFailureThreshold(1), WithSuccessThreshold(1), WithTimeout(time.Second), WithClock(clk.now))
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	require.Equal(t, StateOpen, cb.State())

	clk.advance(500 * time.Millisecond)
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)

	clk.advance(time.Second)
	assert.NoError(t, cb.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	cb := New("test", WithFailureThreshold(1), WithTimeout(time.Second), WithClock(clk.now))
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, fail))
	clk.advance(2 * time.Second)

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDown)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ctx, succeed), ErrCircuitOpen)
}

func TestIsFailureFilter(t *testing.T) {
	benign := errors.New("miss")
	cb := New("test", WithFailureThreshold(1), WithIsFailure(func(err error) bool {
		return !errors.Is(err, benign)
	}))

	for range 3 {
		assert.ErrorIs(t, cb.Execute(context.Background(), func(context.Context) error { return benign }), benign)
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 3, cb.Counts().TotalSuccesses)
}

func TestReset(t *testing.T) {
	cb := CacheBreaker(nil, nil)
	for range 3 {
		_ = cb.Execute(context.Background(), fail)
	}
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Zero(t, cb.Counts().Requests)
	assert.Equal(t, "report-cache", cb.Name())
}
