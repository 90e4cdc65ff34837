package openai

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// Complete implements llm.Completer with a single-message chat completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", common.ServiceUnavailableError("OPENAI_API_KEY is not set", nil)
	}

	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"prompt_len", len(prompt),
	)

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: temperature(c.cfg.Temperature),
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Error("llm.complete.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", handleOpenAIError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("llm.complete.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.ServiceUnavailableError("openai returned no choices", nil)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", common.ServiceUnavailableError("openai returned an empty completion", nil)
	}

	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// temperature works around go-openai dropping a zero temperature from the
// request (omitempty), which would leave the server default of 1.
func temperature(t float32) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func handleOpenAIError(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400:
			return common.ServiceUnavailableError("openai "+op+": invalid request", err)
		case 401:
			return common.ServiceUnavailableError("openai "+op+": invalid API key", err)
		case 429:
			return common.ServiceUnavailableError("openai "+op+": rate limit exceeded", err)
		case 500, 502, 503:
			return common.ServiceUnavailableError("openai "+op+": server error", err)
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return common.ServiceUnavailableError("openai "+op+": unexpected status", err)
	}
	return common.ServiceUnavailableError("openai "+op+": unreachable", err)
}
