package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	first, err := Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(first))

	for i := 0; i < 8; i++ {
		again, err := Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestUnmarshal(t *testing.T) {
	type point struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	var p point
	require.NoError(t, Unmarshal([]byte(`{"x":1,"y":2}`), &p))
	assert.Equal(t, point{X: 1, Y: 2}, p)
	assert.Error(t, Unmarshal([]byte("{"), &p))
}
