package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/medintake/internal/core/domain"
	"github.com/kirillkom/medintake/internal/infrastructure/resilience"
)

const ocrPrompt = "Extract the text from this image, ensuring all text is captured accurately. Do not include any markdown or code formatting."

type Client struct {
	baseURL     string
	genModel    string
	visionModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(baseURL, genModel, visionModel string, executor *resilience.Executor) *Client {
	if strings.TrimSpace(visionModel) == "" {
		visionModel = genModel
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		genModel:    genModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		executor:    executor,
	}
}

// Ready always succeeds: a local Ollama server needs no credential.
func (c *Client) Ready() error {
	return nil
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "generate", map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	})
}

// Recognize sends the image to a vision model. Ollama has no detail knob, so
// both modes behave the same.
func (c *Client) Recognize(ctx context.Context, data []byte, _ string, _ domain.OCRMode) (string, error) {
	if len(data) == 0 {
		return "", domain.WrapError(domain.ErrOCR, "ollama ocr", fmt.Errorf("empty image"))
	}
	text, err := c.generate(ctx, "ocr", map[string]any{
		"model":  c.visionModel,
		"prompt": ocrPrompt,
		"images": []string{base64.StdEncoding.EncodeToString(data)},
		"stream": false,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrOCR, "ollama ocr", err)
	}
	return text, nil
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", reqBody, &response, operation)
	}
	if err := c.executor.Execute(ctx, resilience.TargetProvider, "ollama."+operation, call, resilience.ClassifyHTTPError); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
