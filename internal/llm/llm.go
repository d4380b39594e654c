// Package llm talks to an OpenAI-compatible chat completions API to extract
// structured answer analyses and to generate the grading rubric.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alexanderveratry/Storm-gpt/internal/analysis"
	"github.com/alexanderveratry/Storm-gpt/internal/model"
)

const (
	extractSystemPrompt = "Eres un profesor experto analizando exámenes de finanzas. Respondes solo en JSON válido."
	rubricSystemPrompt  = "Eres un profesor experto creando pautas de corrección para exámenes de finanzas."
)

// Config holds everything needed to construct a Client. There is no global
// client or model state; the handle is built once and passed around.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration // per request; 0 disables the bound
	Retries       int           // extra attempts on transient failures
	ContextWindow int           // prior documents summarized per extraction
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
	cfg   Config
}

// New creates a new LLM client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
		cfg:   cfg,
	}, nil
}

// Ping verifies the API endpoint is reachable and the credential works.
func (c *Client) Ping(ctx context.Context) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	return nil
}

// ExtractAnswers analyzes one document against the question set. prior is
// the ordered log of already-processed documents; at most the configured
// window of its most recent entries is summarized into the request.
func (c *Client) ExtractAnswers(ctx context.Context, doc model.Document, questions []string, prior []model.ExtractedAnswer) (*model.ExtractedAnswer, error) {
	prompt := buildExtractionPrompt(doc, questions, buildRollingContext(prior, c.cfg.ContextWindow))

	raw, err := c.complete(ctx, extractSystemPrompt, prompt, 0.2)
	if err != nil {
		return nil, err
	}
	slog.Debug("extraction response", "student", doc.Student, "raw", raw)

	answers, observations, err := model.ParseAnswerSet([]byte(raw))
	if err != nil {
		return nil, err
	}

	return &model.ExtractedAnswer{
		Student:      doc.Student,
		Answers:      answers,
		Observations: observations,
	}, nil
}

// GenerateRubric asks for a point-weighted grading rubric based on the
// synthesized pattern statistics and high-quality answer excerpts. Called
// exactly once per run, after synthesis.
func (c *Client) GenerateRubric(ctx context.Context, questions []string, stats []model.PatternStats, examples []analysis.Example) (*model.Rubric, error) {
	prompt := buildRubricPrompt(questions, stats, examples)

	raw, err := c.complete(ctx, rubricSystemPrompt, prompt, 0.3)
	if err != nil {
		return nil, err
	}
	slog.Debug("rubric response", "raw", raw)

	var rubric model.Rubric
	if err := json.Unmarshal([]byte(raw), &rubric); err != nil {
		return nil, err
	}
	return &rubric, nil
}

// complete sends one JSON-mode chat completion, retrying transient failures
// with doubling backoff and bounding each attempt by the configured timeout.
func (c *Client) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	}

	var lastErr error
	backoff := time.Second
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying LLM call", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if c.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		}
		resp, err := c.api.CreateChatCompletion(callCtx, req)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("LLM API call: %w", err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("LLM returned no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", lastErr
}
