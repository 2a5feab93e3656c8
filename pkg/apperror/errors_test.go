package apperror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "without field",
			err:      New(KindValidation, "bad request"),
			expected: "[validation] bad request",
		},
		{
			name:     "with field",
			err:      NewWithField(KindValidation, "unknown node", "src"),
			expected: "[validation] unknown node (field: src)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Wrap(cause, KindTransientNetwork, "relay failed")

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindValidation, 400},
		{KindInfeasible, 422},
		{KindTransientNetwork, 502},
		{KindBackpressure, 200},
		{KindConfig, 500},
		{KindInternal, 500},
		{Kind("unknown"), 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "message")
			assert.Equal(t, tt.expected, err.HTTPStatus())
		})
	}
}

func TestNew(t *testing.T) {
	err := New(KindInfeasible, "no path")

	assert.Equal(t, KindInfeasible, err.Kind)
	assert.Equal(t, "no path", err.Message)
	assert.Empty(t, err.Field)
	assert.Nil(t, err.Cause)
}

func TestNewWithField(t *testing.T) {
	err := NewWithField(KindValidation, "multiplier must be positive", "multiplier")

	assert.Equal(t, "multiplier", err.Field)
}

func TestWithField(t *testing.T) {
	base := New(KindValidation, "unknown node")
	scoped := base.WithField("dst")

	assert.Equal(t, "dst", scoped.Field)
	assert.Empty(t, base.Field, "WithField must not mutate the receiver")
}

func TestIs(t *testing.T) {
	err := New(KindInfeasible, "no feasible path")

	assert.True(t, Is(err, KindInfeasible))
	assert.False(t, Is(err, KindValidation))
	assert.False(t, Is(errors.New("plain error"), KindInfeasible))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInfeasible, KindOf(New(KindInfeasible, "x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))
}

func TestConvenienceConstructors(t *testing.T) {
	assert.Equal(t, KindValidation, Validation("x").Kind)
	assert.Equal(t, KindValidation, ValidationField("x", "field").Kind)
	assert.Equal(t, "field", ValidationField("x", "field").Field)
	assert.Equal(t, KindInfeasible, Infeasible("x").Kind)
	assert.Equal(t, KindInternal, Internal("x").Kind)

	cause := errors.New("refused")
	tn := TransientNetwork(cause, "relay failed")
	assert.Equal(t, KindTransientNetwork, tn.Kind)
	assert.Equal(t, cause, tn.Cause)

	cfg := Config(cause, "missing node source")
	assert.Equal(t, KindConfig, cfg.Kind)
	assert.Equal(t, cause, cfg.Cause)
}

func TestPredefinedErrors(t *testing.T) {
	predefined := []*Error{
		ErrUnknownNode,
		ErrSameSrcDst,
		ErrNoPath,
		ErrEdgeNotFound,
		ErrQueueFull,
		ErrNodesNotFound,
	}

	for _, err := range predefined {
		assert.NotEmpty(t, err.Kind)
		assert.NotEmpty(t, err.Message)
	}
}
