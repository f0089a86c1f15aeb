package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInherentData(t *testing.T) {
	data := NewInherentData()
	data.PutUint64(TimestampInherent, 6000)

	v, ok, err := data.GetUint64(TimestampInherent)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 6000, v)

	_, ok, err = data.GetUint64(FinalNumInherent)
	require.NoError(t, err)
	assert.False(t, ok)

	data.Put(FinalNumInherent, []byte{0x80})
	_, ok, err = data.GetUint64(FinalNumInherent)
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrMalformed)

	assert.Equal(t, []InherentIdentifier{FinalNumInherent, TimestampInherent}, data.Identifiers())
}

func TestCheckInherentsResult(t *testing.T) {
	res := NewCheckInherentsResult()
	assert.True(t, res.Okay)

	res.PutError(TimestampInherent, errors.New("too far in future"), false)
	assert.False(t, res.Okay)
	assert.False(t, res.FatalError)

	res.PutError(FinalNumInherent, errors.New("bad"), true)
	assert.True(t, res.FatalError)
	assert.Len(t, res.Errors, 2)
}
