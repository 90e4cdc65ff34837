// Package bedrock completes prompts with Anthropic models hosted on AWS Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go/ptr"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docs-extractor/internal/common"
)

// InvokeModelAPI is the slice of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Config struct {
	ModelID     string
	MaxTokens   int
	Temperature float32
}

type Client struct {
	api    InvokeModelAPI
	cfg    Config
	logger *slog.Logger
}

func NewClient(api InvokeModelAPI, cfg Config, logger *slog.Logger) *Client {
	if cfg.ModelID == "" {
		cfg.ModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, cfg: cfg, logger: logger}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Temperature has no omitempty: zero must reach the model.
type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float32            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason,omitempty"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Complete implements llm.Completer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.api == nil {
		return "", common.ServiceUnavailableError("bedrock client is not configured", nil)
	}
	rid := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        c.cfg.MaxTokens,
		Temperature:      c.cfg.Temperature,
		Messages:         []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", common.ServiceUnavailableError("bedrock: marshal request", err)
	}

	c.logger.Info("llm.complete.start",
		"req_id", rid,
		"provider", "bedrock",
		"model", c.cfg.ModelID,
		"prompt_len", len(prompt),
	)

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     ptr.String(c.cfg.ModelID),
		Body:        body,
		ContentType: ptr.String("application/json"),
		Accept:      ptr.String("application/json"),
	})
	if err != nil {
		c.logger.Error("llm.complete.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.ServiceUnavailableError("bedrock invoke model", err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", common.ServiceUnavailableError("bedrock: decode response", err)
	}
	var b strings.Builder
	for _, part := range resp.Content {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", common.ServiceUnavailableError("bedrock returned an empty completion", nil)
	}

	c.logger.Info("llm.complete.ok",
		"req_id", rid,
		"prompt_tokens", resp.Usage.InputTokens,
		"completion_tokens", resp.Usage.OutputTokens,
		"finish_reason", resp.StopReason,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
