package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/config"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

func singleEndpoint(url string) config.EndpointsConfig {
	return config.EndpointsConfig{
		Text:      url,
		Sentiment: url,
		Image:     url,
		Video:     url,
		Audio:     url,
	}
}

func TestAnalyzeTextSuccess(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody textRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"textResult": map[string]any{
				"label":      "LABEL_1",
				"score":      0.93,
				"highlights": []string{"suspicious claim"},
				"reasoning":  []string{"unsourced statistics"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	verdict, err := c.AnalyzeText(context.Background(), "tok-123", "https://example.com/a", "article body")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody.URL != "https://example.com/a" || gotBody.Text != "article body" {
		t.Errorf("request body = %+v", gotBody)
	}
	if verdict.Label != "LABEL_1" || verdict.Score != 0.93 {
		t.Errorf("verdict = %+v", verdict)
	}
	if len(verdict.Highlights) != 1 || verdict.Highlights[0] != "suspicious claim" {
		t.Errorf("highlights = %v", verdict.Highlights)
	}
}

func TestAnalyzeTextAuthExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeText(context.Background(), "stale", "https://example.com", "text")
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("err = %v, want ErrAuthExpired", err)
	}
}

func TestAnalyzeTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model unavailable"}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeText(context.Background(), "tok", "https://example.com", "text")
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if transport.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", transport.Status)
	}
	if transport.Detail != "model unavailable" {
		t.Errorf("detail = %q", transport.Detail)
	}
}

// A 403 on a text endpoint is not an entitlement denial; only media
// endpoints carry that rule.
func TestAnalyzeTextForbiddenIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeText(context.Background(), "tok", "https://example.com", "text")
	var entitlement *EntitlementError
	if errors.As(err, &entitlement) {
		t.Fatalf("err = %v, want not EntitlementError", err)
	}
	var transport *TransportError
	if !errors.As(err, &transport) || transport.Status != http.StatusForbidden {
		t.Fatalf("err = %v, want TransportError 403", err)
	}
}

func TestAnalyzeTextMalformedResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"missing textResult", `{"something":"else"}`},
		{"missing label", `{"textResult":{"score":0.5}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(singleEndpoint(srv.URL))
			_, err := c.AnalyzeText(context.Background(), "tok", "u", "t")
			var format *FormatError
			if !errors.As(err, &format) {
				t.Fatalf("err = %v, want FormatError", err)
			}
		})
	}
}

func TestAnalyzeSentimentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"sentiment": {"label": "negative", "score": 0.81},
			"bias": {"summary": "loaded language", "indicators": ["fear appeal"]}
		}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	sb, err := c.AnalyzeSentiment(context.Background(), "tok", "u", "t")
	if err != nil {
		t.Fatalf("AnalyzeSentiment: %v", err)
	}
	if sb.Sentiment.Label != "negative" || sb.Sentiment.Score != 0.81 {
		t.Errorf("sentiment = %+v", sb.Sentiment)
	}
	if sb.Bias.Summary != "loaded language" {
		t.Errorf("bias = %+v", sb.Bias)
	}
}

func TestAnalyzeSentimentMissingLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bias":{"summary":"x"}}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeSentiment(context.Background(), "tok", "u", "t")
	var format *FormatError
	if !errors.As(err, &format) {
		t.Fatalf("err = %v, want FormatError", err)
	}
}

func TestAnalyzeMediaSuccess(t *testing.T) {
	var gotBody mediaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{
			"status": "success",
			"analysis_summary": "2 of 3 frames manipulated",
			"manipulation_confidence": 0.87,
			"manipulated_videos_found": 2
		}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	verdict, err := c.AnalyzeMedia(context.Background(), "tok", protocol.MediaVideo, "https://cdn.example.com/v.mp4")
	if err != nil {
		t.Fatalf("AnalyzeMedia: %v", err)
	}
	if gotBody.MediaURL != "https://cdn.example.com/v.mp4" {
		t.Errorf("request mediaUrl = %q", gotBody.MediaURL)
	}
	if verdict.Kind != protocol.MediaVideo {
		t.Errorf("kind = %q", verdict.Kind)
	}
	if !verdict.Manipulated || verdict.Confidence != 0.87 {
		t.Errorf("verdict = %+v", verdict)
	}
	if verdict.Summary != "2 of 3 frames manipulated" {
		t.Errorf("summary = %q", verdict.Summary)
	}
}

func TestAnalyzeMediaEntitlementDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"paid tier required"}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeMedia(context.Background(), "tok", protocol.MediaImage, "https://x/img.png")
	var entitlement *EntitlementError
	if !errors.As(err, &entitlement) {
		t.Fatalf("err = %v, want EntitlementError", err)
	}
	if entitlement.Detail != "paid tier required" {
		t.Errorf("detail = %q", entitlement.Detail)
	}
	if errors.Is(err, ErrAuthExpired) {
		t.Error("entitlement denial must not look like an expired credential")
	}
}

func TestAnalyzeMediaAuthExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeMedia(context.Background(), "tok", protocol.MediaAudio, "https://x/a.mp3")
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("err = %v, want ErrAuthExpired", err)
	}
}

func TestAnalyzeMediaMissingSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeMedia(context.Background(), "tok", protocol.MediaImage, "https://x/i.png")
	var format *FormatError
	if !errors.As(err, &format) {
		t.Fatalf("err = %v, want FormatError", err)
	}
}

func TestAnalyzeMediaUnknownKind(t *testing.T) {
	c := NewClient(singleEndpoint("http://127.0.0.1:0"))
	_, err := c.AnalyzeMedia(context.Background(), "tok", protocol.MediaKind("document"), "https://x/d.pdf")
	if err == nil {
		t.Fatal("expected error for unknown media kind")
	}
}

func TestNetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(singleEndpoint(srv.URL))
	_, err := c.AnalyzeText(context.Background(), "tok", "u", "t")
	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if transport.Status != 0 {
		t.Errorf("status = %d, want 0 for network failure", transport.Status)
	}
}

func TestSetEndpointsConcurrentWithCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"textResult":{"label":"LABEL_0","score":0.5}}`))
	}))
	defer srv.Close()

	c := NewClient(singleEndpoint(srv.URL))

	// Meaningful under -race: a config reload must not tear the endpoint
	// set out from under an in-flight call.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			c.SetEndpoints(singleEndpoint(srv.URL))
		}
	}()
	for i := 0; i < 50; i++ {
		if _, err := c.AnalyzeText(context.Background(), "tok", "https://x", "body"); err != nil {
			t.Fatalf("AnalyzeText: %v", err)
		}
	}
	<-done
}
