package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"text/template"
	"time"

	"github.com/caselight/caselight-api/internal/config"
	"github.com/caselight/caselight-api/internal/domain"
	"github.com/caselight/caselight-api/internal/generation"
	"google.golang.org/genai"
)

// Prompt templates per artifact kind. Both instruct the model to answer
// with a bare JSON object so the payload can be stored as-is.
const summaryPromptTemplate = `You are a legal study assistant. Summarize the following legal study material in plain language for a layperson, in locale {{.Locale}}.

Respond with a JSON object of the form {"text": "<summary>"} and nothing else.

Material:
{{.SourceText}}`

const chapterPromptTemplate = `You are a legal study assistant. Rewrite the following legal study material as an engaging study chapter for a layperson, in locale {{.Locale}}. Keep every legally significant detail.

Respond with a JSON object of the form {"text": "<chapter>"} and nothing else.

Material:
{{.SourceText}}`

type promptData struct {
	SourceText string
	Locale     string
}

// textPayload is the artifact payload shape for summaries and chapters.
type textPayload struct {
	Text string `json:"text"`
}

// TextService implements generation.Service for the summary and chapter
// kinds using the Gemini API. Responses are produced inline.
type TextService struct {
	logger  *slog.Logger
	config  config.LLMConfig
	client  *genai.Client
	model   string
	prompts map[domain.ArtifactKind]*template.Template
}

// NewTextService creates a new TextService with the provided
// configuration. The context is used only for client initialization.
func NewTextService(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*TextService, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	prompts, err := parsePrompts()
	if err != nil {
		return nil, err
	}

	return &TextService{
		logger:  logger.With("component", "gemini_text_service"),
		config:  cfg,
		client:  client,
		model:   cfg.ModelName,
		prompts: prompts,
	}, nil
}

func parsePrompts() (map[domain.ArtifactKind]*template.Template, error) {
	sources := map[domain.ArtifactKind]string{
		domain.KindSummary: summaryPromptTemplate,
		domain.KindChapter: chapterPromptTemplate,
	}

	prompts := make(map[domain.ArtifactKind]*template.Template, len(sources))
	for kind, src := range sources {
		tmpl, err := template.New(string(kind)).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s prompt template: %v",
				generation.ErrInvalidConfig, kind, err)
		}
		prompts[kind] = tmpl
	}
	return prompts, nil
}

// Ensure TextService implements generation.Service
var _ generation.Service = (*TextService)(nil)

// Generate implements generation.Service.Generate
// It renders the prompt for the requested kind, calls the Gemini API
// with retries and returns the payload inline.
func (s *TextService) Generate(ctx context.Context, req generation.Request) (*generation.Response, error) {
	prompt, err := s.renderPrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := s.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode payload: %v", generation.ErrInvalidResponse, err)
	}

	return &generation.Response{
		Status:   generation.StatusDone,
		Artifact: raw,
	}, nil
}

func (s *TextService) renderPrompt(ctx context.Context, req generation.Request) (string, error) {
	if req.SourceText == "" {
		return "", ErrEmptySourceText
	}

	tmpl, ok := s.prompts[req.Kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", generation.ErrUnsupportedKind, req.Kind)
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{SourceText: req.SourceText, Locale: locale}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}

	s.logger.DebugContext(ctx, "prompt rendered",
		"kind", string(req.Kind),
		"prompt_length", buf.Len())
	return buf.String(), nil
}

// callWithRetry calls the Gemini API with exponential backoff and
// jitter. API transport errors retry; safety blocks and malformed
// responses return immediately.
func (s *TextService) callWithRetry(ctx context.Context, prompt string) (*textPayload, error) {
	maxRetries := s.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := s.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		payload, err := s.callOnce(ctx, prompt)
		if err == nil {
			return payload, nil
		}
		lastErr = err

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}

		s.logger.WarnContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"error", err)

		if attempt == maxRetries {
			break
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoffSeconds * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
		generation.ErrTransientFailure, maxRetries, lastErr)
}

func (s *TextService) callOnce(ctx context.Context, prompt string) (*textPayload, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini API call: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := ""
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}

	payload, err := parseTextPayload(text)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// parseTextPayload decodes the model's JSON reply. Models occasionally
// wrap the object in a code fence; plain text that is not JSON at all is
// treated as the text itself.
func parseTextPayload(text string) (*textPayload, error) {
	trimmed := stripCodeFence(text)

	var payload textPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
		if payload.Text == "" {
			return nil, fmt.Errorf("%w: empty text in payload", generation.ErrInvalidResponse)
		}
		return &payload, nil
	}

	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response text", generation.ErrInvalidResponse)
	}
	return &textPayload{Text: trimmed}, nil
}

func stripCodeFence(text string) string {
	trimmed := bytes.TrimSpace([]byte(text))
	if bytes.HasPrefix(trimmed, []byte("```")) {
		if idx := bytes.IndexByte(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		trimmed = bytes.TrimSuffix(bytes.TrimSpace(trimmed), []byte("```"))
	}
	return string(bytes.TrimSpace(trimmed))
}
