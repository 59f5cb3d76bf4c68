// Package genai talks to an OpenAI-compatible chat completions endpoint for
// question authoring and report insights.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"livequiz-service/internal/domain"
)

// ErrNotConfigured is returned when no endpoint is set.
var ErrNotConfigured = errors.New("generative AI endpoint not configured")

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Stream         bool            `json:"stream"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type generatedQuestion struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	TimeLimit          int      `json:"timeLimit"`
	Technology         string   `json:"technology"`
	Skill              string   `json:"skill"`
}

const questionSchema = `Respond with a JSON object of the form
{"questions":[{"text":string,"options":[string,string,string,string],"correctAnswerIndex":integer,"timeLimit":integer,"technology":string,"skill":string}]}
where correctAnswerIndex is the 0-based index of the correct option.`

// GenerateQuestions asks for count multiple choice questions. The caller
// filters out questions that do not meet the authoring rules.
func (c *Client) GenerateQuestions(ctx context.Context, topic, skill string, count int) ([]domain.Question, error) {
	prompt := fmt.Sprintf(`Generate %d unique, high-quality multiple-choice quiz questions for the topic %q at a %q skill level.
Each question must have exactly 4 options, with one clearly correct answer.
Keep each question under 20 words and each option under 10 words.
Assign a time limit of 30 seconds for each question.
%s`, count, topic, skill, questionSchema)

	content, err := c.complete(ctx, []chatMessage{{Role: "user", Content: prompt}}, true)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Questions []generatedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("decode generated questions: %w", err)
	}

	out := make([]domain.Question, 0, len(payload.Questions))
	for _, g := range payload.Questions {
		out = append(out, domain.Question{
			Text:               g.Text,
			Type:               domain.QuestionMCQ,
			Options:            g.Options,
			CorrectAnswerIndex: g.CorrectAnswerIndex,
			TimeLimit:          g.TimeLimit,
			Technology:         g.Technology,
			Skill:              g.Skill,
		})
	}
	return out, nil
}

// Insights returns free text analysis for prompt.
func (c *Client) Insights(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, []chatMessage{{Role: "user", Content: prompt}}, false)
}

func (c *Client) complete(ctx context.Context, messages []chatMessage, jsonMode bool) (string, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}
	temperature := 0.7
	request := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temperature,
	}
	if jsonMode {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("completion API returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

// stripFence removes a surrounding markdown code fence some models add to JSON.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
