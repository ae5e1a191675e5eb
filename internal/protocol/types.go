// Package protocol defines the shared vocabulary of the TruthScope
// coordinator: the closed set of inbound messages remote contexts may send,
// the responses each one produces, the push/broadcast events flowing the
// other way, and the verdict payloads carried by all of them.
package protocol

// Profile is the user identity attached to an active session.
type Profile struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// MediaKind identifies which analysis service a media item is routed to.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Valid reports whether k names a known media kind.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaAudio:
		return true
	}
	return false
}

// Result is the durable outcome of one analysis call. A failed Result is a
// first-class artifact: it is stored and retrievable exactly like a success.
type Result[T any] struct {
	OK    bool   `json:"ok"`
	Value T      `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

// Fail wraps a failure detail.
func Fail[T any](detail string) Result[T] {
	return Result[T]{Error: detail}
}

// TextVerdict is the credibility verdict for an article. Field set follows
// the text-analysis service contract: LABEL_0 means likely credible,
// LABEL_1 means likely fake or misleading.
type TextVerdict struct {
	Label               string            `json:"label"`
	Score               float64           `json:"score"`
	Highlights          []string          `json:"highlights,omitempty"`
	Reasoning           []string          `json:"reasoning,omitempty"`
	EducationalInsights []string          `json:"educational_insights,omitempty"`
	FactCheck           []FactCheckEntry  `json:"fact_check,omitempty"`
	LocalizedSummary    *LocalizedSummary `json:"localized_summary,omitempty"`
}

// FactCheckEntry is one external fact-check reference cited by the verdict.
type FactCheckEntry struct {
	Source string `json:"source"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Claim  string `json:"claim"`
	Rating string `json:"rating"`
}

// LocalizedSummary carries the verdict reasoning localized to the article
// language.
type LocalizedSummary struct {
	Reasoning           string `json:"reasoning"`
	EducationalInsights string `json:"educational_insights"`
}

// ScoredLabel is a label with a confidence score in [0,1].
type ScoredLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentBias is the dependent sentiment/bias analysis over the same
// truncated text the primary verdict scored.
type SentimentBias struct {
	Sentiment ScoredLabel `json:"sentiment"`
	Bias      BiasSummary `json:"bias"`
}

// BiasSummary describes detected bias and its indicators.
type BiasSummary struct {
	Summary    string   `json:"summary"`
	Indicators []string `json:"indicators,omitempty"`
}

// MediaVerdict is the normalized per-item result for image, video and audio
// analysis. The remote services return heterogeneous shapes; the orchestrator
// flattens all of them into this record.
type MediaVerdict struct {
	Kind        MediaKind `json:"kind"`
	Summary     string    `json:"summary"`
	Confidence  float64   `json:"confidence"`
	Manipulated bool      `json:"manipulated"`
	Error       string    `json:"error,omitempty"`
}

// TabSnapshot is a point-in-time copy of the accumulated analysis artifacts
// for one tab. Fields are independent: any subset may be populated.
type TabSnapshot struct {
	TextResult    *Result[TextVerdict]            `json:"textResult,omitempty"`
	MediaItems    map[string]Result[MediaVerdict] `json:"mediaItems,omitempty"`
	SentimentBias *Result[SentimentBias]          `json:"sentimentBiasResult,omitempty"`
}
