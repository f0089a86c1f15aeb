package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIID(t *testing.T) {
	a, b := NewAPIID("Core"), NewAPIID("Metadata")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, NewAPIID("Core"))
	assert.Len(t, a.String(), 2+16)
}

func TestRuntimeCompatibility(t *testing.T) {
	v := NewRuntime(API{ID: NewAPIID("Core"), Name: "Core", Version: 2})

	testCases := []struct {
		msg       string
		other     func(Runtime) Runtime
		canCall   bool
		canAuthor bool
	}{
		{"same", func(o Runtime) Runtime { return o }, true, true},
		{"newer impl", func(o Runtime) Runtime { o.ImplVersion++; return o }, true, true},
		{"newer spec", func(o Runtime) Runtime { o.SpecVersion++; return o }, true, false},
		{"other authoring", func(o Runtime) Runtime { o.AuthoringVersion++; return o }, false, false},
		{"other chain", func(o Runtime) Runtime { o.SpecName = "other"; return o }, false, false},
	}
	for _, tc := range testCases {
		other := tc.other(NewRuntime())
		assert.Equal(t, tc.canCall, v.CanCallWith(other), tc.msg)
		assert.Equal(t, tc.canAuthor, v.CanAuthorWith(other), tc.msg)
	}
}

func TestHasAPI(t *testing.T) {
	v := NewRuntime(API{ID: NewAPIID("Core"), Name: "Core", Version: 2})
	assert.True(t, v.HasAPI("Core", 2))
	assert.False(t, v.HasAPI("Core", 1))
	assert.False(t, v.HasAPI("Metadata", 1))
}

func TestRuntimeJSON(t *testing.T) {
	v := NewRuntime(API{ID: NewAPIID("Core"), Name: "Core", Version: 2})
	bz := v.JSON()
	require.NotEmpty(t, bz)
	assert.Contains(t, string(bz), `"spec_name": "node"`)
	assert.Contains(t, string(bz), NewAPIID("Core").String())
	assert.Equal(t, "node-78:darwinia-node-78", v.String())
}
