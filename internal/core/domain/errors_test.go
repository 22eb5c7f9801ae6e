package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrSpecification", ErrSpecification},
		{"ErrMissingType", ErrMissingType},
		{"ErrUnknownType", ErrUnknownType},
		{"ErrUnknownProperty", ErrUnknownProperty},
		{"ErrInvalidProperty", ErrInvalidProperty},
		{"ErrNotIterable", ErrNotIterable},
		{"ErrMalformedHeader", ErrMalformedHeader},
		{"ErrRowInconsistent", ErrRowInconsistent},
		{"ErrSortColumn", ErrSortColumn},
		{"ErrRecursiveParameter", ErrRecursiveParameter},
		{"ErrUnreadable", ErrUnreadable},
		{"ErrUnwritable", ErrUnwritable},
		{"ErrNotLoaded", ErrNotLoaded},
		{"ErrNoMoreHits", ErrNoMoreHits},
		{"ErrBuildTool", ErrBuildTool},
		{"ErrBuildFailed", ErrBuildFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrUnknownType, ErrUnknownProperty))
	assert.False(t, errors.Is(ErrBuildTool, ErrBuildFailed))
	assert.False(t, errors.Is(ErrUnreadable, ErrUnwritable))
}

func TestErrors_Wrapped(t *testing.T) {
	err := fmt.Errorf("parser %q: %w", "bogus", ErrUnknownType)

	assert.True(t, errors.Is(err, ErrUnknownType))
	assert.Contains(t, err.Error(), "unknown type")
}
