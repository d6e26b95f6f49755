package errors

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorMessage(t *testing.T) {
	err := Internal("decoding response", fmt.Errorf("unexpected EOF"))
	assert.Equal(t, "INTERNAL: decoding response: unexpected EOF", err.Error())

	bare := NotFound("item not found", nil)
	assert.Equal(t, "NOT_FOUND: item not found", bare.Error())
	assert.NotEmpty(t, bare.StackTrace())
}

func TestIsWalksWrappedChain(t *testing.T) {
	missing := MissingSourceFile("vacancies.json", os.ErrNotExist)
	wrapped := fmt.Errorf("analyze stage: %w", missing)

	assert.True(t, Is(wrapped, ErrTypeMissingSourceFile))
	assert.False(t, Is(wrapped, ErrTypeInternal))
	assert.ErrorIs(t, wrapped, os.ErrNotExist)

	nested := Internal("stage failed", missing)
	assert.True(t, Is(nested, ErrTypeInternal))
	assert.True(t, Is(nested, ErrTypeMissingSourceFile))
}

func TestIsNil(t *testing.T) {
	assert.False(t, Is(nil, ErrTypeInternal))
	assert.False(t, Is(fmt.Errorf("plain"), ErrTypeInternal))
}

func TestConstructorsSetType(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want ErrorType
	}{
		{"schema drift", SchemaDrift("salary.from"), ErrTypeSchemaDrift},
		{"unresolved geocode", UnresolvedGeocode("Москва", nil), ErrTypeUnresolvedGeocode},
		{"malformed markup", MalformedMarkup("unclosed tag", nil), ErrTypeMalformedMarkup},
		{"invalid input", InvalidInput("bad pattern", nil), ErrTypeInvalidInput},
		{"unauthorized", Unauthorized("token rejected", nil), ErrTypeUnauthorized},
		{"unavailable", Unavailable("api down", nil), ErrTypeUnavailable},
		{"rate limit", RateLimit("too many requests", nil), ErrTypeRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.want, tt.err.Type)
		})
	}
}
