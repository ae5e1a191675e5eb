// Package analysis issues authenticated calls to the remote analysis
// services, classifies their outcomes, and orchestrates the dependent
// sentiment/bias call and all state updates flowing from an analysis.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/config"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

// Client speaks the request/response contract of the five analysis
// endpoints. It classifies outcomes but holds no state of its own beyond the
// endpoint URLs, which a config reload may swap mid-flight.
type Client struct {
	httpClient *http.Client
	mu         sync.RWMutex
	endpoints  config.EndpointsConfig
}

// NewClient creates a client for the configured endpoints. No timeout is
// imposed on outbound calls; callers bound them through ctx if they care.
func NewClient(endpoints config.EndpointsConfig) *Client {
	return &Client{
		httpClient: &http.Client{},
		endpoints:  endpoints,
	}
}

// SetEndpoints swaps endpoint URLs, used on config reload. In-flight calls
// finish against the endpoints they started with.
func (c *Client) SetEndpoints(endpoints config.EndpointsConfig) {
	c.mu.Lock()
	c.endpoints = endpoints
	c.mu.Unlock()
}

func (c *Client) currentEndpoints() config.EndpointsConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoints
}

type textRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type textResponse struct {
	TextResult *protocol.TextVerdict `json:"textResult"`
}

// AnalyzeText submits article text for a credibility verdict.
func (c *Client) AnalyzeText(ctx context.Context, credential, pageURL, text string) (*protocol.TextVerdict, error) {
	body, err := c.post(ctx, c.currentEndpoints().Text, credential, textRequest{URL: pageURL, Text: text}, false)
	if err != nil {
		return nil, err
	}

	var resp textResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FormatError{Detail: fmt.Sprintf("text response is not JSON: %v", err)}
	}
	if resp.TextResult == nil {
		return nil, &FormatError{Detail: "text response missing textResult"}
	}
	if resp.TextResult.Label == "" {
		return nil, &FormatError{Detail: "text verdict missing label"}
	}
	return resp.TextResult, nil
}

type sentimentResponse struct {
	Sentiment *protocol.ScoredLabel `json:"sentiment"`
	Bias      *protocol.BiasSummary `json:"bias"`
}

// AnalyzeSentiment submits the identical truncated text the primary verdict
// scored for the dependent sentiment/bias analysis.
func (c *Client) AnalyzeSentiment(ctx context.Context, credential, pageURL, text string) (*protocol.SentimentBias, error) {
	body, err := c.post(ctx, c.currentEndpoints().Sentiment, credential, textRequest{URL: pageURL, Text: text}, false)
	if err != nil {
		return nil, err
	}

	var resp sentimentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FormatError{Detail: fmt.Sprintf("sentiment response is not JSON: %v", err)}
	}
	if resp.Sentiment == nil || resp.Sentiment.Label == "" {
		return nil, &FormatError{Detail: "sentiment response missing sentiment label"}
	}
	sb := &protocol.SentimentBias{Sentiment: *resp.Sentiment}
	if resp.Bias != nil {
		sb.Bias = *resp.Bias
	}
	return sb, nil
}

type mediaRequest struct {
	MediaURL string `json:"mediaUrl"`
}

// mediaResponse is the superset of the three media services' bodies; each
// kind fills a different subset and the client flattens whatever arrived.
type mediaResponse struct {
	Status                 string  `json:"status"`
	AnalysisSummary        string  `json:"analysis_summary"`
	ManipulationConfidence float64 `json:"manipulation_confidence"`
	ManipulatedImages      int     `json:"manipulated_images_found"`
	ManipulatedVideos      int     `json:"manipulated_videos_found"`
	ManipulatedAudios      int     `json:"manipulated_audios_found"`
	Error                  string  `json:"error"`
}

// AnalyzeMedia submits one media URL to the endpoint for its kind and
// normalizes the heterogeneous response shapes into a single verdict record.
func (c *Client) AnalyzeMedia(ctx context.Context, credential string, kind protocol.MediaKind, mediaURL string) (*protocol.MediaVerdict, error) {
	endpoint, err := c.mediaEndpoint(kind)
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, endpoint, credential, mediaRequest{MediaURL: mediaURL}, true)
	if err != nil {
		return nil, err
	}

	var resp mediaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &FormatError{Detail: fmt.Sprintf("media response is not JSON: %v", err)}
	}
	if resp.AnalysisSummary == "" {
		return nil, &FormatError{Detail: "media response missing analysis_summary"}
	}

	return &protocol.MediaVerdict{
		Kind:        kind,
		Summary:     resp.AnalysisSummary,
		Confidence:  resp.ManipulationConfidence,
		Manipulated: resp.ManipulatedImages+resp.ManipulatedVideos+resp.ManipulatedAudios > 0,
		Error:       resp.Error,
	}, nil
}

func (c *Client) mediaEndpoint(kind protocol.MediaKind) (string, error) {
	endpoints := c.currentEndpoints()
	switch kind {
	case protocol.MediaImage:
		return endpoints.Image, nil
	case protocol.MediaVideo:
		return endpoints.Video, nil
	case protocol.MediaAudio:
		return endpoints.Audio, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", kind)
	}
}

// post sends an authenticated JSON request and classifies the outcome.
// media selects the entitlement rule: only media endpoints distinguish 403
// from a generic failure.
func (c *Client) post(ctx context.Context, endpoint, credential string, reqBody any, media bool) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Detail: err.Error()}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		logging.AnalysisError("credential rejected by %s", endpoint)
		return nil, fmt.Errorf("%w: %s", ErrAuthExpired, bodyDetail(body))
	case resp.StatusCode == http.StatusForbidden && media:
		return nil, &EntitlementError{Detail: bodyDetail(body)}
	default:
		return nil, &TransportError{Status: resp.StatusCode, Detail: bodyDetail(body)}
	}
}

// bodyDetail pulls a message field out of an error body when present,
// falling back to the raw body.
func bodyDetail(body []byte) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(body)
}
