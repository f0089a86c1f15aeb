package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = NewModuleError("Test", 3, "test error")

func TestNewDispatchError(t *testing.T) {
	assert.Nil(t, NewDispatchError(1, nil))

	de := NewDispatchError(4, fmt.Errorf("wrapped: %w", errTest))
	require.NotNil(t, de)
	assert.Equal(t, DispatchErrorModule, de.Kind)
	assert.EqualValues(t, 4, de.Module)
	assert.EqualValues(t, 3, de.Code)
	assert.True(t, errors.Is(de, errTest))

	de = NewDispatchError(2, fmt.Errorf("%w: expected root", ErrBadOrigin))
	assert.Equal(t, DispatchErrorBadOrigin, de.Kind)
	assert.True(t, errors.Is(de, ErrBadOrigin))

	de = NewDispatchError(2, errors.New("boom"))
	assert.Equal(t, DispatchErrorOther, de.Kind)

	// nested classification is preserved
	inner := NewDispatchError(5, errTest)
	outer := NewDispatchError(9, fmt.Errorf("sudo: %w", inner))
	assert.Same(t, inner, outer)
}
