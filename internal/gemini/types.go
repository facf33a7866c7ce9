package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"google.golang.org/genai"
)

const (
	DefaultModel      = "gemini-2.5-flash-image"
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
)

var (
	ErrMissingAPIKey = errors.New("gemini api key is required")

	// ErrNoImageReturned means the call succeeded but no candidate part
	// carried inline image data.
	ErrNoImageReturned = errors.New("no image returned")
)

// ContentGenerator is the slice of the genai models service the client
// needs. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	APIVersion string
	HTTPClient *http.Client
	Logger     *slog.Logger
}
