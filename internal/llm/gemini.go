// Package llm wraps the Gemini API for session chat and one-shot prompts.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	applog "ledgerbot/internal/log"
	"ledgerbot/internal/session"

	"google.golang.org/genai"
)

var (
	ErrEmptyResponse = errors.New("empty model response")
	ErrNotConfigured = errors.New("gemini API key not configured")
)

// contentGenerator is the slice of genai.Models the client depends on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client talks to Gemini. Session mode replays the caller's bounded history;
// one-shot mode sends a lone prompt with no history or config.
type Client struct {
	models contentGenerator
	model  string
	logger *applog.Logger
}

// New creates a Gemini Developer API client for the given default model.
func New(ctx context.Context, apiKey, model string, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newClient(gc.Models, model, logger), nil
}

func newClient(models contentGenerator, model string, logger *applog.Logger) *Client {
	return &Client{
		models: models,
		model:  model,
		logger: applog.ForComponent(logger, applog.ComponentLLM),
	}
}

func (c *Client) Model() string { return c.model }

// Generate submits a single prompt and returns the full response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{textContent(session.RoleUser, prompt)}
	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Chat sends text within the user's session. The history is trimmed before
// the request; the user and model turns are recorded only when the model
// answers.
func (c *Client) Chat(ctx context.Context, s *session.Session, text string) (string, error) {
	s.Lock()
	defer s.Unlock()

	h := s.History()
	if n := h.Trim(); n > 0 {
		c.logger.DebugContext(ctx, "Trimmed session history", applog.FieldUserID, s.UserID(), "evicted", n)
	}

	turns := h.Turns()
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, t := range turns {
		contents = append(contents, textContent(t.Role, t.Text))
	}
	contents = append(contents, textContent(session.RoleUser, text))

	cfg := s.Config()
	model := cfg.Model
	if model == "" {
		model = c.model
	}
	resp, err := c.models.GenerateContent(ctx, model, contents, generationConfig(cfg))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	reply := responseText(resp)
	if reply == "" {
		return "", ErrEmptyResponse
	}

	h.Append(
		session.Turn{Role: session.RoleUser, Text: text},
		session.Turn{Role: session.RoleModel, Text: reply},
	)
	c.logger.DebugContext(ctx, "Gemini chat turn completed",
		applog.FieldUserID, s.UserID(),
		applog.FieldModel, model,
		"history_len", h.Len(),
		"reply_length", len(reply))
	return reply, nil
}

func textContent(role session.Role, text string) *genai.Content {
	return &genai.Content{
		Role:  string(role),
		Parts: []*genai.Part{{Text: text}},
	}
}

var harmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// generationConfig maps a session's model settings to a Gemini request config.
func generationConfig(cfg session.ModelConfig) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		Temperature:     ptr(cfg.Temperature),
		TopP:            ptr(cfg.TopP),
		TopK:            ptr(cfg.TopK),
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	if cfg.BlockNone {
		for _, cat := range harmCategories {
			out.SafetySettings = append(out.SafetySettings, &genai.SafetySetting{
				Category:  cat,
				Threshold: genai.HarmBlockThresholdBlockNone,
			})
		}
	}
	return out
}

// responseText returns the text of the first candidate, skipping thoughts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Text == "" || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

func ptr[T any](v T) *T { return &v }
