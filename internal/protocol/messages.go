package protocol

// OriginKind identifies the execution context a message came from.
type OriginKind string

const (
	OriginContentScript OriginKind = "contentScript"
	OriginPopup         OriginKind = "popup"
	OriginSidePanel     OriginKind = "sidePanel"
)

// Sender carries the verified identity of the sending context. Messages from
// a content script are implicitly scoped to the sender's tab; popup and side
// panel have no tab of their own and must name one explicitly when an
// operation needs it.
type Sender struct {
	Origin OriginKind
	TabID  int
	HasTab bool
}

// ContentScriptSender builds a Sender for the content script owning tabID.
func ContentScriptSender(tabID int) Sender {
	return Sender{Origin: OriginContentScript, TabID: tabID, HasTab: true}
}

// UISender builds a Sender for a tab-less UI surface.
func UISender(origin OriginKind) Sender {
	return Sender{Origin: origin}
}

// Message is the closed union of inbound requests. Every shape the
// coordinator accepts is one of the structs below; dispatch is an exhaustive
// type switch, so an unhandled shape is a compile-time smell rather than a
// silently dropped string action.
type Message interface {
	Action() string
	isMessage()
}

// Ping is the zero-payload liveness probe.
type Ping struct{}

// SignIn requests an interactive sign-in through the identity provider.
type SignIn struct{}

// SignOut clears the session.
type SignOut struct{}

// GetAuthState reads the current session state without I/O.
type GetAuthState struct{}

// ProcessText asks for a credibility analysis of scraped article text.
// Sent by content scripts; tab scope is implicit in the sender.
type ProcessText struct {
	URL         string `json:"url"`
	ArticleText string `json:"articleText"`
}

// ProcessMediaItem asks for analysis of one media element on the page.
// ItemID identifies the originating UI element so only it reacts to the
// outcome; tab scope is implicit in the sender.
type ProcessMediaItem struct {
	MediaURL  string    `json:"mediaUrl"`
	MediaKind MediaKind `json:"mediaKind"`
	ItemID    string    `json:"itemId"`
}

// GetResultForTab reads the stored artifacts for an explicitly named tab.
// Sent by popup and side panel, which have no implicit tab.
type GetResultForTab struct {
	TabID int `json:"tabId"`
}

func (Ping) Action() string             { return ActionPing }
func (SignIn) Action() string           { return ActionSignIn }
func (SignOut) Action() string          { return ActionSignOut }
func (GetAuthState) Action() string     { return ActionGetAuthState }
func (ProcessText) Action() string      { return ActionProcessText }
func (ProcessMediaItem) Action() string { return ActionProcessMediaItem }
func (GetResultForTab) Action() string  { return ActionGetResultForTab }

func (Ping) isMessage()             {}
func (SignIn) isMessage()           {}
func (SignOut) isMessage()          {}
func (GetAuthState) isMessage()     {}
func (ProcessText) isMessage()      {}
func (ProcessMediaItem) isMessage() {}
func (GetResultForTab) isMessage()  {}

// Action names as they appear on the wire.
const (
	ActionPing             = "ping"
	ActionSignIn           = "signIn"
	ActionSignOut          = "signOut"
	ActionGetAuthState     = "getAuthState"
	ActionProcessText      = "processText"
	ActionProcessMediaItem = "processMediaItem"
	ActionGetResultForTab  = "getResultForTab"
)

// Response is the closed union of answers to inbound messages.
type Response interface {
	isResponse()
}

// Ack answers a Ping.
type Ack struct {
	Alive bool `json:"alive"`
}

// SignInResponse reports the outcome of an interactive sign-in.
type SignInResponse struct {
	Success bool     `json:"success"`
	Profile *Profile `json:"profile,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// SignOutResponse reports that sign-out completed.
type SignOutResponse struct {
	Success bool `json:"success"`
}

// AuthStateResponse is the synchronous session snapshot.
type AuthStateResponse struct {
	IsSignedIn bool     `json:"isSignedIn"`
	Profile    *Profile `json:"profile,omitempty"`
}

// Text-processing statuses.
const (
	TextStatusSkipped           = "skipped"
	TextStatusProcessingStarted = "processingStarted"
	TextStatusError             = "error"
)

// ProcessTextResponse reports whether a text analysis was started.
type ProcessTextResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Media-processing statuses.
const (
	MediaStatusSuccess = "success"
	MediaStatusError   = "error"
)

// ProcessMediaResponse reports the outcome of one media-item analysis,
// tagged with the requesting element's identifier.
type ProcessMediaResponse struct {
	Status string `json:"status"`
	ItemID string `json:"itemId"`
	Error  string `json:"error,omitempty"`
}

// Read statuses for GetResultForTab.
const (
	ReadStatusSignedOut = "signedOut"
	ReadStatusNotFound  = "notFound"
	ReadStatusFound     = "found"
)

// TabResultResponse carries the stored artifacts for a tab, or the sentinel
// explaining their absence. SignedOut wins over NotFound: a signed-out tab is
// never reported as merely not analyzed yet.
type TabResultResponse struct {
	Status string       `json:"status"`
	Data   *TabSnapshot `json:"data,omitempty"`
}

func (Ack) isResponse()                  {}
func (SignInResponse) isResponse()       {}
func (SignOutResponse) isResponse()      {}
func (AuthStateResponse) isResponse()    {}
func (ProcessTextResponse) isResponse()  {}
func (ProcessMediaResponse) isResponse() {}
func (TabResultResponse) isResponse()    {}
