package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"lixi-studio/internal/envelope"
)

type Client struct {
	models ContentGenerator
	model  string
	logger *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL + "/",
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return NewWithGenerator(gc.Models, opts.Model, opts.Logger), nil
}

func NewWithGenerator(models ContentGenerator, model string, logger *slog.Logger) *Client {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		models: models,
		model:  model,
		logger: logger,
	}
}

func (c *Client) Model() string { return c.model }

// Generate performs exactly one generateContent call. Transport errors are
// returned as they come from the SDK.
func (c *Client) Generate(ctx context.Context, req envelope.Request) (envelope.Image, error) {
	if c.models == nil {
		return envelope.Image{}, errors.New("gemini models service is nil")
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Instruction())}
	for _, img := range req.ReferenceImages() {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MimeType))
	}

	aspect := req.AspectRatio
	if aspect == "" {
		aspect = envelope.AspectRatio
	}

	c.logger.Info("gemini generate",
		"model", c.model,
		"side", req.Side,
		"ref_images", len(parts)-1,
		"aspect_ratio", aspect,
	)

	resp, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: aspect},
		},
	)
	if err != nil {
		c.logger.Error("gemini generate failed", "side", req.Side, "err", err)
		return envelope.Image{}, err
	}

	img, ok := extractImage(resp)
	if !ok {
		c.logger.Warn("gemini returned no image", "side", req.Side)
		return envelope.Image{}, ErrNoImageReturned
	}
	return img, nil
}

func extractImage(resp *genai.GenerateContentResponse) (envelope.Image, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return envelope.Image{}, false
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return envelope.Image{}, false
	}

	for _, p := range cand.Content.Parts {
		if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		mimeType := strings.TrimSpace(p.InlineData.MIMEType)
		if mimeType == "" {
			mimeType = "image/png"
		}
		return envelope.Image{MimeType: mimeType, Data: p.InlineData.Data}, true
	}
	return envelope.Image{}, false
}
