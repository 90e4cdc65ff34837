package llm

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// TruncateToTokens cuts text to at most maxTokens tokens of the named
// encoding. maxTokens <= 0 leaves text untouched.
func TruncateToTokens(text string, maxTokens int, encoding string) (string, error) {
	if maxTokens <= 0 || text == "" {
		return text, nil
	}
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return text, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text, nil
	}
	return enc.Decode(tokens[:maxTokens]), nil
}

// CountTokens reports the token count of text under the named encoding.
func CountTokens(text, encoding string) (int, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return 0, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}
