package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("document not found: %s", "/tmp/missing.pdf")
	wrapped := fmt.Errorf("process: %w", err)

	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrConversion)
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, "NOT_FOUND: document not found: /tmp/missing.pdf", err.Error())
}

func TestAppError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ServiceUnavailableError("openai chat completion", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeOf(t *testing.T) {
	assert.Empty(t, CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeMalformedResponse, CodeOf(MalformedResponseError("no json", nil)))
}
