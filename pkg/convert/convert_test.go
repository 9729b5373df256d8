package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToString(t *testing.T) {
	s := "ptr"
	var nilPtr *string

	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "", ToString(nilPtr))
	assert.Equal(t, "abc", ToString("abc"))
	assert.Equal(t, "ptr", ToString(&s))
	assert.Equal(t, "true", ToString(true))
	assert.Equal(t, "false", ToString(false))
	assert.Equal(t, "42", ToString(42))
	assert.Equal(t, "42", ToString(uint64(42)))
	assert.Equal(t, "1.5", ToString(1.5))
}

func TestToStringMap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		m, err := ToStringMap(nil)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("scalars", func(t *testing.T) {
		m, err := ToStringMap(map[string]any{"A": "x", "B": true, "C": 3, "D": nil})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"A": "x", "B": "true", "C": "3", "D": ""}, m)
	})

	t.Run("nested values rejected", func(t *testing.T) {
		_, err := ToStringMap(map[string]any{
			"OK":   "x",
			"LIST": []any{"a"},
			"MAP":  map[string]any{"b": 1},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errNotScalar)
		assert.Contains(t, err.Error(), "LIST")
		assert.Contains(t, err.Error(), "MAP")
		assert.NotContains(t, err.Error(), "OK")
	})
}
