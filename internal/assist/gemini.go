package assist

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/genai"
)

const (
	imageModel = "imagen-4.0-generate-001"
	textModel  = "gemini-2.5-flash"

	sortPromptFormat = "Here is a list of products: %s. Please categorize them and return a JSON array of just the product names in a professionally sorted order based on common store categories (e.g., fruits, vegetables, dairy, etc.). Only return the JSON array of names."
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Gemini calls the Gemini API through the genai client.
type Gemini struct {
	client *genai.Client
}

// NewGemini constructs a Gemini provider. An empty baseURL selects the public endpoint.
func NewGemini(ctx context.Context, baseURL, apiKey string) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("assist: gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// GenerateImage requests one square PNG for prompt.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.Models.GenerateImages(ctx, imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    "1:1",
		OutputMIMEType: "image/png",
	})
	if err != nil {
		return nil, fmt.Errorf("assist: %s: %w", imageModel, err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, ErrEmptyResult
	}
	return resp.GeneratedImages[0].Image.ImageBytes, nil
}

// SuggestOrder asks the text model for names ordered by store category.
func (g *Gemini) SuggestOrder(ctx context.Context, names []string) ([]string, error) {
	prompt := fmt.Sprintf(sortPromptFormat, strings.Join(names, ", "))
	resp, err := g.client.Models.GenerateContent(ctx, textModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("assist: %s: %w", textModel, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResult
	}
	var sorted []string
	if err := json.Unmarshal([]byte(text), &sorted); err != nil {
		return nil, fmt.Errorf("assist: parse sort response: %w", err)
	}
	return sorted, nil
}
