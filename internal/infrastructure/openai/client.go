package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricelens/backend/internal/domain"
)

const (
	// maxImagesPerCall bounds cost and latency of one multi-image request
	maxImagesPerCall = 6

	// maxContextChars caps the serialized prior-guess context passed as
	// supplementary guidance text
	maxContextChars = 3500

	// errorBodyLimit is how much of a non-2xx response body is retained
	errorBodyLimit = 800
)

// Client talks to an OpenAI-compatible chat-completions endpoint with vision
// support. It never retries: the call is paid and idempotency is not
// guaranteed, so retry policy belongs to the caller.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new recognition client. timeout bounds each request
// end to end.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	// Keep a little headroom under typical per-minute quotas; scans issue at
	// most a handful of calls each.
	limiter := rate.NewLimiter(rate.Limit(2), 6)

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		rateLimiter: limiter,
	}
}

// SetDebug enables debug logging of request/response metadata
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SupportsMultiImage reports that several photos can travel in one call.
func (c *Client) SupportsMultiImage() bool {
	return true
}

// chat-completions wire types (request side)
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string for system, []contentPart for user
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chat-completions wire types (response side)
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Identify sends the normalized JPEG images as parts of one logical call,
// optionally preceded by the previous guess serialized as compact context, and
// returns the raw model text.
func (c *Client) Identify(ctx context.Context, images [][]byte, prior *domain.Candidate) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingCredentials
	}
	if len(images) == 0 {
		return "", domain.ErrInvalidRequest
	}
	if len(images) > maxImagesPerCall {
		images = images[:maxImagesPerCall]
	}

	parts := []contentPart{{Type: "text", Text: contextText(prior)}}
	for _, img := range images {
		b64 := base64.StdEncoding.EncodeToString(img)
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: "data:image/jpeg;base64," + b64},
		})
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: parts},
		},
		Temperature: 0.2,
	}

	if c.debug {
		log.Printf("[ORACLE] identify: %d image(s), context=%v", len(images), prior != nil)
	}

	return c.complete(ctx, payload)
}

// RefineByCode asks for the list price of a product code, text-only.
func (c *Client) RefineByCode(ctx context.Context, code string, hints map[string]string) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrMissingCredentials
	}
	if code == "" {
		return "", domain.ErrInvalidRequest
	}

	question := fmt.Sprintf("Product code: %s", code)
	if len(hints) > 0 {
		hintJSON, err := json.Marshal(hints)
		if err == nil {
			question += fmt.Sprintf("\nHints from photo analysis: %s", truncate(string(hintJSON), maxContextChars))
		}
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: refinePrompt},
			{Role: "user", Content: []contentPart{{Type: "text", Text: question}}},
		},
		Temperature: 0.2,
	}

	if c.debug {
		log.Printf("[ORACLE] refine by code: %s", code)
	}

	return c.complete(ctx, payload)
}

// complete executes one chat-completions call and extracts the model text.
// Non-2xx responses become *domain.OracleHTTPError with the status and a
// truncated body; transport failures wrap domain.ErrOracleRequestFailed.
func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	reqURL := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PriceLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOracleRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", domain.ErrOracleRequestFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.debug {
			log.Printf("[ORACLE] HTTP %d: %s", resp.StatusCode, truncate(string(respBody), errorBodyLimit))
		}
		return "", &domain.OracleHTTPError{
			Status: resp.StatusCode,
			Body:   truncate(string(respBody), errorBodyLimit),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrInvalidOutput)
	}

	return parsed.Choices[0].Message.Content, nil
}

// contextText serializes the prior guess as compact best-effort guidance.
func contextText(prior *domain.Candidate) string {
	if prior == nil {
		return "No context."
	}
	data, err := json.Marshal(prior)
	if err != nil {
		return "No context."
	}
	return "Context (optional, from previous photos): " + truncate(string(data), maxContextChars)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
