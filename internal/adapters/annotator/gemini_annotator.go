package annotator

import (
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type GeminiConfig struct {
	APIKey string
	// Empty means DefaultGeminiModel.
	Model string
	// Empty means the public Gemini API endpoint.
	BaseURL string
	// Nil means a client with a 20s timeout.
	HTTPClient *http.Client
}

// GeminiAnnotator asks Gemini for a short operational commentary on a
// planned route.
type GeminiAnnotator struct {
	client *genai.Client
	model  string
}

func NewGeminiAnnotator(ctx context.Context, cfg GeminiConfig) (*GeminiAnnotator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini annotator: %w", err)
	}

	return &GeminiAnnotator{client: client, model: model}, nil
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(s domain.RouteSummary) string {
	var b strings.Builder
	b.WriteString("Review this delivery route.\n")
	fmt.Fprintf(&b, "Vehicle: %s\n", s.VehicleID)
	fmt.Fprintf(&b, "Total distance: %.2f km\n", s.TotalDistanceKm)
	fmt.Fprintf(&b, "Stops: %s\n", strings.Join(s.StopAddresses, " -> "))
	b.WriteString("Give 3 short insights on efficiency, likely traffic risks and one improvement.")
	return b.String()
}

func (g *GeminiAnnotator) Annotate(ctx context.Context, summary domain.RouteSummary) (_ string, err error) {
	defer obs.Time(ctx, "annotator.Gemini")(&err)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(summary)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini annotate: %w", err)
	}

	text := strings.TrimSpace(candidateText(resp))
	if text == "" {
		return "", errors.New("gemini annotate: empty response")
	}
	return text, nil
}

// candidateText joins the text parts of the first candidate that has any.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var text strings.Builder
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil {
				text.WriteString(p.Text)
			}
		}
		if text.Len() > 0 {
			break
		}
	}
	return text.String()
}
