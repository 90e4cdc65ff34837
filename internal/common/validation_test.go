package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CollectsEveryFailure(t *testing.T) {
	v := NewValidator().
		Field("name", "", Required).
		Field("format", "xml", OneOf("text", "json")).
		Field("dpi", -1, NonNegative).
		Field("endpoint", "https://vision.example.com", Required, URL).
		Check("min_conns", 5, false, "must not exceed max_conns (2)")

	require.Len(t, v.Errors(), 4)
	err := v.Error()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	for _, field := range []string{"name", "format", "dpi", "min_conns"} {
		assert.Contains(t, err.Error(), field)
	}
	assert.NotContains(t, err.Error(), "endpoint")
}

func TestValidator_NoErrors(t *testing.T) {
	v := NewValidator().Field("level", "INFO", OneOf("debug", "info")).Field("url", "", URL)
	assert.NoError(t, v.Error())
	assert.Empty(t, v.Errors())
}
