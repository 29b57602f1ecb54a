package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	s := DefaultSettings("test")
	s.ConsecutiveFailures = 2
	s.Timeout = time.Hour
	cb := New[int](s, zap.NewNop())
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.True(t, IsOpen(err))
	assert.Equal(t, gobreaker.StateOpen, cb.State())
}

func TestBreakerIgnoresErrorsMarkedSuccessful(t *testing.T) {
	ignored := errors.New("client error")
	s := DefaultSettings("test")
	s.ConsecutiveFailures = 1
	s.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, ignored) }
	cb := New[int](s, zap.NewNop())

	_, err := cb.Execute(func() (int, error) { return 0, ignored })
	assert.ErrorIs(t, err, ignored)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestIsOpen(t *testing.T) {
	assert.False(t, IsOpen(errors.New("x")))
	assert.True(t, IsOpen(gobreaker.ErrTooManyRequests))
}
