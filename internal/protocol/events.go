package protocol

// Event is the closed union of one-way notifications. Tab-scoped events are
// pushed to the content script owning a tab; broadcast events go to whatever
// UI surfaces happen to be listening. Delivery is best-effort in both cases.
type Event interface {
	Type() string
	isEvent()
}

// Event type names as they appear on the wire.
const (
	EventApplyHighlights       = "applyHighlights"
	EventAnalysisComplete      = "analysisComplete"
	EventAnalysisError         = "analysisError"
	EventDisplayMediaAnalysis  = "displayMediaAnalysis"
	EventSessionChanged        = "sessionChanged"
	EventMediaItemUpdate       = "mediaItemUpdate"
	EventSentimentBiasComplete = "sentimentBiasComplete"
	EventSentimentBiasError    = "sentimentBiasError"
)

// ApplyHighlights tells the tab's content script which passages to mark up.
type ApplyHighlights struct {
	TabID      int      `json:"tabId"`
	Highlights []string `json:"highlights"`
}

// AnalysisComplete announces a finished text verdict. It is both pushed to
// the originating tab and broadcast to listening UI surfaces.
type AnalysisComplete struct {
	TabID   int          `json:"tabId"`
	Verdict *TextVerdict `json:"verdict,omitempty"`
}

// AnalysisError reports a failed analysis to the originating tab. ItemID is
// set when the failure concerns a single media element, so only that element
// reacts; empty for whole-page text failures.
type AnalysisError struct {
	TabID  int    `json:"tabId"`
	ItemID string `json:"itemId,omitempty"`
	Error  string `json:"error"`
}

// DisplayMediaAnalysis carries a finished media verdict to the element that
// requested it.
type DisplayMediaAnalysis struct {
	TabID   int           `json:"tabId"`
	ItemID  string        `json:"itemId"`
	Verdict *MediaVerdict `json:"verdict"`
}

// SessionChanged announces every sign-in/sign-out transition.
type SessionChanged struct {
	IsSignedIn bool     `json:"isSignedIn"`
	Profile    *Profile `json:"profile,omitempty"`
}

// MediaItemUpdate announces a stored media artifact to UI surfaces.
type MediaItemUpdate struct {
	TabID    int                  `json:"tabId"`
	MediaURL string               `json:"mediaUrl"`
	Result   Result[MediaVerdict] `json:"result"`
}

// SentimentBiasComplete announces the dependent sentiment/bias result.
type SentimentBiasComplete struct {
	TabID  int            `json:"tabId"`
	Result *SentimentBias `json:"result"`
}

// SentimentBiasError announces a failed dependent sentiment/bias call. The
// primary text verdict is unaffected by it.
type SentimentBiasError struct {
	TabID int    `json:"tabId"`
	Error string `json:"error"`
}

func (ApplyHighlights) Type() string       { return EventApplyHighlights }
func (AnalysisComplete) Type() string      { return EventAnalysisComplete }
func (AnalysisError) Type() string         { return EventAnalysisError }
func (DisplayMediaAnalysis) Type() string  { return EventDisplayMediaAnalysis }
func (SessionChanged) Type() string        { return EventSessionChanged }
func (MediaItemUpdate) Type() string       { return EventMediaItemUpdate }
func (SentimentBiasComplete) Type() string { return EventSentimentBiasComplete }
func (SentimentBiasError) Type() string    { return EventSentimentBiasError }

func (ApplyHighlights) isEvent()       {}
func (AnalysisComplete) isEvent()      {}
func (AnalysisError) isEvent()         {}
func (DisplayMediaAnalysis) isEvent()  {}
func (SessionChanged) isEvent()        {}
func (MediaItemUpdate) isEvent()       {}
func (SentimentBiasComplete) isEvent() {}
func (SentimentBiasError) isEvent()    {}
