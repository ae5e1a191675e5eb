// Package router dispatches inbound messages to the component that owns
// them. Every message gets exactly one reply: either computed inline or
// delivered later over a single-shot channel when the work is asynchronous.
package router

import (
	"context"

	"github.com/google/uuid"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/analysis"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/push"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/session"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/tabstate"
)

const authRequiredDetail = "authentication required"

// Outcome is the reply contract for one dispatched message. Exactly one of
// Sync and Async is set; an async channel delivers exactly one response and
// is then closed.
type Outcome struct {
	Sync  protocol.Response
	Async <-chan protocol.Response
}

func reply(resp protocol.Response) Outcome {
	return Outcome{Sync: resp}
}

// Router owns message dispatch. It validates, answers what it can answer
// itself, and hands analysis work to the orchestrator on fresh goroutines so
// dispatch never blocks on remote calls.
type Router struct {
	session       *session.Manager
	store         *tabstate.Store
	orch          *analysis.Orchestrator
	bus           *push.Bus
	minTextLength int
}

// New wires a router.
func New(sess *session.Manager, store *tabstate.Store, orch *analysis.Orchestrator, bus *push.Bus, minTextLength int) *Router {
	return &Router{
		session:       sess,
		store:         store,
		orch:          orch,
		bus:           bus,
		minTextLength: minTextLength,
	}
}

// Dispatch routes one message. Analysis work spawned by a message is
// detached from ctx and runs to completion or failure on its own; ctx only
// bounds how long a caller waits for the reply.
func (r *Router) Dispatch(ctx context.Context, sender protocol.Sender, msg protocol.Message) Outcome {
	id := uuid.NewString()[:8]
	logging.RouterDebug("[%s] dispatch %s from %s", id, msg.Action(), sender.Origin)

	switch m := msg.(type) {
	case protocol.Ping:
		return reply(protocol.Ack{Alive: true})
	case protocol.SignIn:
		return r.signIn(ctx, id)
	case protocol.SignOut:
		return r.signOut(ctx, id)
	case protocol.GetAuthState:
		signedIn, profile := r.session.AuthState()
		return reply(protocol.AuthStateResponse{IsSignedIn: signedIn, Profile: profile})
	case protocol.ProcessText:
		return r.processText(ctx, id, sender, m)
	case protocol.ProcessMediaItem:
		return r.processMediaItem(ctx, id, sender, m)
	case protocol.GetResultForTab:
		status, snap := r.store.Read(m.TabID)
		return reply(protocol.TabResultResponse{Status: status, Data: snap})
	}
	// Unreachable while the union stays closed; the decoder rejects unknown
	// actions before they get here.
	logging.RouterWarn("[%s] unhandled message %T", id, msg)
	return reply(protocol.Ack{Alive: true})
}

func (r *Router) signIn(ctx context.Context, id string) Outcome {
	ch := make(chan protocol.Response, 1)
	go func() {
		defer close(ch)
		profile, err := r.session.SignIn(ctx)
		if err != nil {
			logging.Router("[%s] sign-in failed: %v", id, err)
			ch <- protocol.SignInResponse{Error: err.Error()}
			return
		}
		ch <- protocol.SignInResponse{Success: true, Profile: profile}
	}()
	return Outcome{Async: ch}
}

func (r *Router) signOut(ctx context.Context, id string) Outcome {
	ch := make(chan protocol.Response, 1)
	go func() {
		defer close(ch)
		r.session.SignOut(ctx)
		logging.Router("[%s] signed out", id)
		ch <- protocol.SignOutResponse{Success: true}
	}()
	return Outcome{Async: ch}
}

func (r *Router) processText(ctx context.Context, id string, sender protocol.Sender, m protocol.ProcessText) Outcome {
	if !sender.HasTab {
		return reply(protocol.ProcessTextResponse{Status: protocol.TextStatusError, Error: "no tab associated with sender"})
	}
	if len(m.ArticleText) < r.minTextLength {
		logging.RouterDebug("[%s] tab %d text below threshold (%d chars)", id, sender.TabID, len(m.ArticleText))
		return reply(protocol.ProcessTextResponse{Status: protocol.TextStatusSkipped})
	}
	if !r.session.IsSignedIn() {
		r.bus.Push(sender.TabID, protocol.AnalysisError{TabID: sender.TabID, Error: authRequiredDetail})
		return reply(protocol.ProcessTextResponse{Status: protocol.TextStatusError, Error: authRequiredDetail})
	}

	r.store.GetOrCreate(sender.TabID)
	// The requester's context ends with its reply; the analysis must not.
	work := context.WithoutCancel(ctx)
	ch := make(chan protocol.Response, 1)
	go func() {
		defer close(ch)
		// The requester learns the work started; outcomes travel as
		// events and artifacts, not through this reply.
		ch <- protocol.ProcessTextResponse{Status: protocol.TextStatusProcessingStarted}
		if err := r.orch.AnalyzeText(work, sender.TabID, m.URL, m.ArticleText); err != nil {
			logging.Router("[%s] text analysis tab %d: %v", id, sender.TabID, err)
		}
	}()
	return Outcome{Async: ch}
}

func (r *Router) processMediaItem(ctx context.Context, id string, sender protocol.Sender, m protocol.ProcessMediaItem) Outcome {
	if !sender.HasTab {
		return reply(protocol.ProcessMediaResponse{Status: protocol.MediaStatusError, ItemID: m.ItemID, Error: "no tab associated with sender"})
	}
	if m.MediaURL == "" {
		return reply(protocol.ProcessMediaResponse{Status: protocol.MediaStatusError, ItemID: m.ItemID, Error: "missing mediaUrl"})
	}
	if !m.MediaKind.Valid() {
		return reply(protocol.ProcessMediaResponse{Status: protocol.MediaStatusError, ItemID: m.ItemID, Error: "unknown media kind"})
	}
	if !r.session.IsSignedIn() {
		r.bus.Push(sender.TabID, protocol.AnalysisError{TabID: sender.TabID, ItemID: m.ItemID, Error: authRequiredDetail})
		return reply(protocol.ProcessMediaResponse{Status: protocol.MediaStatusError, ItemID: m.ItemID, Error: authRequiredDetail})
	}

	r.store.GetOrCreate(sender.TabID)
	work := context.WithoutCancel(ctx)
	ch := make(chan protocol.Response, 1)
	go func() {
		defer close(ch)
		err := r.orch.AnalyzeMedia(work, sender.TabID, m.ItemID, m.MediaURL, m.MediaKind)
		if err != nil {
			logging.Router("[%s] media analysis tab %d item %s: %v", id, sender.TabID, m.ItemID, err)
			ch <- protocol.ProcessMediaResponse{Status: protocol.MediaStatusError, ItemID: m.ItemID, Error: analysis.FailureDetail(err)}
			return
		}
		ch <- protocol.ProcessMediaResponse{Status: protocol.MediaStatusSuccess, ItemID: m.ItemID}
	}()
	return Outcome{Async: ch}
}

// Await resolves an outcome to its single response, blocking on async work
// until ctx is done.
func Await(ctx context.Context, out Outcome) (protocol.Response, error) {
	if out.Async == nil {
		return out.Sync, nil
	}
	select {
	case resp, ok := <-out.Async:
		if !ok {
			return nil, context.Canceled
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
