package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	notFound := NotFound("POST_NOT_FOUND", "post not found")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"Direct", notFound, KindNotFound},
		{"Wrapped", fmt.Errorf("get post: %w", notFound), KindNotFound},
		{"Plain error", errors.New("boom"), KindInternal},
		{"Validation", Invalid("title is required"), KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_IsMatchesSentinelWithCause(t *testing.T) {
	sentinel := Conflict("EMAIL_TAKEN", "email already registered")
	cause := errors.New("duplicate key")

	err := fmt.Errorf("create: %w", sentinel.WithCause(cause))

	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, Conflict("OTHER", "other"))
	assert.Contains(t, err.Error(), "duplicate key")
}
