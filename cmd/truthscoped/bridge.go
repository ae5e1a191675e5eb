package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/push"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/router"
)

const maxMessageBytes = 1 << 20

// bridge is the local HTTP surface remote contexts talk to. Messages arrive
// as JSON envelopes on /v1/message; push and broadcast events stream out over
// server-sent events on /v1/events.
type bridge struct {
	router *router.Router
	bus    *push.Bus
	mux    *http.ServeMux
}

func newBridge(rtr *router.Router, bus *push.Bus) *bridge {
	b := &bridge{router: rtr, bus: bus, mux: http.NewServeMux()}
	b.mux.HandleFunc("/v1/message", b.handleMessage)
	b.mux.HandleFunc("/v1/events", b.handleEvents)
	b.mux.HandleFunc("/healthz", b.handleHealth)
	return b
}

func (b *bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// senderFromRequest reconstructs the sending context from request headers.
// Absent headers mean a tab-less UI surface.
func senderFromRequest(r *http.Request) (protocol.Sender, error) {
	origin := protocol.OriginKind(r.Header.Get("X-Truthscope-Origin"))
	switch origin {
	case "":
		origin = protocol.OriginPopup
	case protocol.OriginContentScript, protocol.OriginPopup, protocol.OriginSidePanel:
	default:
		return protocol.Sender{}, fmt.Errorf("unknown origin %q", origin)
	}

	rawTab := r.Header.Get("X-Truthscope-Tab")
	if origin == protocol.OriginContentScript {
		tabID, err := strconv.Atoi(rawTab)
		if err != nil {
			return protocol.Sender{}, fmt.Errorf("content script sender needs a numeric X-Truthscope-Tab header")
		}
		return protocol.ContentScriptSender(tabID), nil
	}
	return protocol.UISender(origin), nil
}

func (b *bridge) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	sender, err := senderFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := protocol.DecodeMessage(body)
	if err != nil {
		logging.BridgeDebug("rejected message from %s: %v", sender.Origin, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := b.router.Dispatch(r.Context(), sender, msg)
	resp, err := router.Await(r.Context(), out)
	if err != nil {
		writeError(w, http.StatusGatewayTimeout, "request cancelled before the reply arrived")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.BridgeError("failed to write response: %v", err)
	}
}

// handleEvents streams bus traffic as server-sent events. A tab query
// parameter scopes the stream to that tab's pushes plus broadcasts; without
// one the stream carries broadcasts only.
func (b *bridge) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var sub *push.Subscription
	if rawTab := r.URL.Query().Get("tab"); rawTab != "" {
		tabID, err := strconv.Atoi(rawTab)
		if err != nil {
			http.Error(w, "tab must be numeric", http.StatusBadRequest)
			return
		}
		sub = b.bus.SubscribeTab(tabID)
	} else {
		sub = b.bus.SubscribeBroadcast()
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case env, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := protocol.EncodeEvent(env.Event)
			if err != nil {
				logging.BridgeError("failed to encode event %s: %v", env.Event.Type(), err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", env.ID, env.Event.Type(), payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (b *bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"alive":true}`))
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": detail})
}
