// Package openai talks to the OpenAI REST API for text completion, vision OCR,
// speech synthesis and realtime voice sessions.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/infrastructure/resilience"
)

const defaultBaseURL = "https://api.openai.com/v1"

const ocrInstruction = "Extract the text from this image, ensuring all text is captured accurately. Do not include any markdown or code formatting."

// UsageObserver receives token counts reported by the API.
type UsageObserver func(model string, promptTokens, completionTokens int)

type Options struct {
	BaseURL       string
	APIKey        string
	Model         string
	OCRModel      string
	TTSModel      string
	TTSVoice      string
	RealtimeModel string
	RealtimeVoice string
	Timeout       time.Duration
	RPS           float64
	Executor      *resilience.Executor
	OnUsage       UsageObserver
	HTTPClient    *http.Client
}

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	ocrModel   string
	ttsModel   string
	ttsVoice   string
	rtModel    string
	rtVoice    string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
	onUsage    UsageObserver
}

// New never fails. A client without an API key reports domain.ErrProviderUnavailable
// from every call.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	ocrModel := strings.TrimSpace(opts.OCRModel)
	if ocrModel == "" {
		ocrModel = model
	}
	ttsModel := strings.TrimSpace(opts.TTSModel)
	if ttsModel == "" {
		ttsModel = "tts-1"
	}
	ttsVoice := strings.TrimSpace(opts.TTSVoice)
	if ttsVoice == "" {
		ttsVoice = "alloy"
	}
	rtModel := strings.TrimSpace(opts.RealtimeModel)
	if rtModel == "" {
		rtModel = "gpt-4o-realtime-preview-2024-12-17"
	}
	rtVoice := strings.TrimSpace(opts.RealtimeVoice)
	if rtVoice == "" {
		rtVoice = "sage"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		ocrModel:   ocrModel,
		ttsModel:   ttsModel,
		ttsVoice:   ttsVoice,
		rtModel:    rtModel,
		rtVoice:    rtVoice,
		httpClient: httpClient,
		limiter:    limiter,
		executor:   opts.Executor,
		onUsage:    opts.OnUsage,
	}
}

func (c *Client) Ready() error {
	if c.apiKey == "" {
		return domain.WrapError(domain.ErrProviderUnavailable, "openai", fmt.Errorf("OPENAI_API_KEY is not set"))
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	temp := float32(0)
	return c.chat(ctx, "chat", chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
}

// Recognize runs vision OCR on an image. Fast mode asks for low image detail.
func (c *Client) Recognize(ctx context.Context, data []byte, contentType string, mode domain.OCRMode) (string, error) {
	if len(data) == 0 {
		return "", domain.WrapError(domain.ErrOCR, "openai ocr", fmt.Errorf("empty image"))
	}
	if strings.TrimSpace(contentType) == "" {
		contentType = "image/jpeg"
	}
	detail := "high"
	if mode == domain.OCRModeFast {
		detail = "low"
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)

	text, err := c.chat(ctx, "ocr", chatRequest{
		Model: c.ocrModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: ocrInstruction},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: detail}},
			},
		}},
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrOCR, "openai ocr", err)
	}
	return text, nil
}

func (c *Client) chat(ctx context.Context, operation string, reqBody chatRequest) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := c.postJSON(ctx, operation, "/chat/completions", reqBody, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai %s response missing choices", operation)
	}
	if parsed.Usage != nil && c.onUsage != nil {
		model := parsed.Model
		if model == "" {
			model = reqBody.Model
		}
		c.onUsage(model, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize renders text as MP3 audio.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	if err := c.Ready(); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "openai speech", fmt.Errorf("empty text"))
	}
	audio, err := c.postRaw(ctx, "speech", "/audio/speech", speechRequest{
		Model:          c.ttsModel,
		Input:          text,
		Voice:          c.ttsVoice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, "", err
	}
	return audio, "audio/mpeg", nil
}

type realtimeSessionRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Instructions string `json:"instructions"`
}

// OpenSession creates an ephemeral realtime session and returns the API's
// JSON body untouched; it carries the client secret the browser connects with.
func (c *Client) OpenSession(ctx context.Context, instructions string) ([]byte, error) {
	if err := c.Ready(); err != nil {
		return nil, err
	}
	raw, err := c.postRaw(ctx, "realtime_session", "/realtime/sessions", realtimeSessionRequest{
		Model:        c.rtModel,
		Voice:        c.rtVoice,
		Instructions: instructions,
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("openai realtime_session returned invalid json")
	}
	return raw, nil
}
