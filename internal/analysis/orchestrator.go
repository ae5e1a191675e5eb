package analysis

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/push"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/session"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/tabstate"
)

// ErrNoSession is returned when an analysis is requested without an active
// session. The router normally rejects these before they reach here.
var ErrNoSession = errors.New("authentication required")

// Orchestrator drives analysis pipelines: it issues the remote calls,
// applies the credential-invalid teardown rule, stores every outcome as a
// durable artifact, and pushes results to the contexts that care.
type Orchestrator struct {
	client       *Client
	session      *session.Manager
	store        *tabstate.Store
	bus          *push.Bus
	maxTextChars int
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(client *Client, sess *session.Manager, store *tabstate.Store, bus *push.Bus, maxTextChars int) *Orchestrator {
	return &Orchestrator{
		client:       client,
		session:      sess,
		store:        store,
		bus:          bus,
		maxTextChars: maxTextChars,
	}
}

// Truncate bounds article text deterministically. The identical truncated
// value feeds both the primary verdict and the dependent sentiment call, so
// both always score the same input. The cut lands on a rune boundary so the
// payload stays valid UTF-8.
func (o *Orchestrator) Truncate(text string) string {
	if len(text) <= o.maxTextChars {
		return text
	}
	cut := o.maxTextChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// AnalyzeText runs the text pipeline for a tab: primary verdict first, then
// the dependent sentiment/bias call over the identical truncated text. A
// dependent failure never retracts an already-stored text success.
func (o *Orchestrator) AnalyzeText(ctx context.Context, tabID int, pageURL, text string) error {
	credential, ok := o.session.Credential()
	if !ok {
		return ErrNoSession
	}
	truncated := o.Truncate(text)

	timer := logging.StartTimer(logging.CategoryAnalysis, fmt.Sprintf("text analysis tab=%d", tabID))
	verdict, err := o.client.AnalyzeText(ctx, credential, pageURL, truncated)
	timer.Stop()

	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			// Global teardown, then abort the whole pipeline: the
			// dependent call must not run with a dead credential.
			o.session.SignOut(ctx)
		}
		detail := FailureDetail(err)
		logging.AnalysisError("text analysis failed tab=%d: %s", tabID, detail)
		o.store.SetText(tabID, protocol.Fail[protocol.TextVerdict](detail))
		o.bus.Push(tabID, protocol.AnalysisError{TabID: tabID, Error: detail})
		return err
	}

	o.store.SetText(tabID, protocol.Ok(*verdict))
	o.bus.Push(tabID, protocol.ApplyHighlights{TabID: tabID, Highlights: verdict.Highlights})
	o.bus.Push(tabID, protocol.AnalysisComplete{TabID: tabID, Verdict: verdict})
	o.bus.Broadcast(protocol.AnalysisComplete{TabID: tabID, Verdict: verdict})
	logging.Analysis("text analysis complete tab=%d label=%s score=%.4f", tabID, verdict.Label, verdict.Score)

	o.analyzeSentiment(ctx, tabID, pageURL, truncated)
	return nil
}

// analyzeSentiment is the dependent leg of the text pipeline. Its outcome is
// stored and broadcast independently of the primary verdict.
func (o *Orchestrator) analyzeSentiment(ctx context.Context, tabID int, pageURL, truncated string) {
	credential, ok := o.session.Credential()
	if !ok {
		// Session vanished between the two legs; nothing to do.
		return
	}

	sb, err := o.client.AnalyzeSentiment(ctx, credential, pageURL, truncated)
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			o.session.SignOut(ctx)
		}
		detail := FailureDetail(err)
		logging.AnalysisError("sentiment analysis failed tab=%d: %s", tabID, detail)
		o.store.SetSentimentBias(tabID, protocol.Fail[protocol.SentimentBias](detail))
		o.bus.Broadcast(protocol.SentimentBiasError{TabID: tabID, Error: detail})
		return
	}

	o.store.SetSentimentBias(tabID, protocol.Ok(*sb))
	o.bus.Broadcast(protocol.SentimentBiasComplete{TabID: tabID, Result: sb})
	logging.Analysis("sentiment analysis complete tab=%d sentiment=%s", tabID, sb.Sentiment.Label)
}

// AnalyzeMedia runs one media item through the endpoint for its kind. Items
// are independent: concurrent analyses for the same tab neither block nor
// roll back one another.
func (o *Orchestrator) AnalyzeMedia(ctx context.Context, tabID int, itemID, mediaURL string, kind protocol.MediaKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown media kind %q", kind)
	}
	credential, ok := o.session.Credential()
	if !ok {
		return ErrNoSession
	}

	verdict, err := o.client.AnalyzeMedia(ctx, credential, kind, mediaURL)
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			// Credential is dead for everyone; the error itself stays
			// scoped to the requesting item.
			o.session.SignOut(ctx)
		}
		detail := FailureDetail(err)
		logging.AnalysisError("media analysis failed tab=%d item=%s: %s", tabID, itemID, detail)
		failure := protocol.Fail[protocol.MediaVerdict](detail)
		o.store.SetMediaItem(tabID, mediaURL, failure)
		o.bus.Push(tabID, protocol.AnalysisError{TabID: tabID, ItemID: itemID, Error: detail})
		o.bus.Broadcast(protocol.MediaItemUpdate{TabID: tabID, MediaURL: mediaURL, Result: failure})
		return err
	}

	result := protocol.Ok(*verdict)
	o.store.SetMediaItem(tabID, mediaURL, result)
	o.bus.Push(tabID, protocol.DisplayMediaAnalysis{TabID: tabID, ItemID: itemID, Verdict: verdict})
	o.bus.Broadcast(protocol.MediaItemUpdate{TabID: tabID, MediaURL: mediaURL, Result: result})
	logging.Analysis("media analysis complete tab=%d item=%s kind=%s", tabID, itemID, kind)
	return nil
}
