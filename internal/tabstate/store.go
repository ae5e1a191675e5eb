// Package tabstate owns the per-tab accumulated analysis artifacts. The
// in-memory map is the source of truth for the life of the process; an
// optional sqlite journal mirrors every artifact for after-the-fact
// inspection. Fields of a tab record are upserted independently: a later
// failure never erases an earlier success of a different field.
package tabstate

import (
	"sync"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

// SessionChecker reports whether a session is currently active. Read consults
// it before anything else: a signed-out tab must never be reported as merely
// not analyzed yet.
type SessionChecker func() bool

// Store holds analysis artifacts keyed by tab identifier. Records are created
// lazily and never evicted while the process lives.
type Store struct {
	mu       sync.RWMutex
	tabs     map[int]*record
	signedIn SessionChecker
	journal  *Journal
}

type record struct {
	text      *protocol.Result[protocol.TextVerdict]
	media     map[string]protocol.Result[protocol.MediaVerdict]
	sentiment *protocol.Result[protocol.SentimentBias]
}

// NewStore creates a store. journal may be nil to disable journaling.
func NewStore(signedIn SessionChecker, journal *Journal) *Store {
	return &Store{
		tabs:     make(map[int]*record),
		signedIn: signedIn,
		journal:  journal,
	}
}

// GetOrCreate ensures a record exists for the tab.
func (s *Store) GetOrCreate(tabID int) {
	s.mu.Lock()
	s.getOrCreateLocked(tabID)
	s.mu.Unlock()
}

func (s *Store) getOrCreateLocked(tabID int) *record {
	r, ok := s.tabs[tabID]
	if !ok {
		r = &record{media: make(map[string]protocol.Result[protocol.MediaVerdict])}
		s.tabs[tabID] = r
		logging.StoreDebug("created record for tab %d", tabID)
	}
	return r
}

// SetText upserts the text verdict for a tab.
func (s *Store) SetText(tabID int, res protocol.Result[protocol.TextVerdict]) {
	s.mu.Lock()
	r := s.getOrCreateLocked(tabID)
	r.text = &res
	s.mu.Unlock()

	logging.Store("tab %d text result stored ok=%v", tabID, res.OK)
	s.journalText(tabID, res)
}

// SetMediaItem upserts one media artifact keyed by its URL. Other items and
// unrelated fields are untouched.
func (s *Store) SetMediaItem(tabID int, mediaURL string, res protocol.Result[protocol.MediaVerdict]) {
	s.mu.Lock()
	r := s.getOrCreateLocked(tabID)
	r.media[mediaURL] = res
	s.mu.Unlock()

	logging.Store("tab %d media item stored url=%s ok=%v", tabID, mediaURL, res.OK)
	s.journalMedia(tabID, mediaURL, res)
}

// SetSentimentBias upserts the dependent sentiment/bias result.
func (s *Store) SetSentimentBias(tabID int, res protocol.Result[protocol.SentimentBias]) {
	s.mu.Lock()
	r := s.getOrCreateLocked(tabID)
	r.sentiment = &res
	s.mu.Unlock()

	logging.Store("tab %d sentiment/bias stored ok=%v", tabID, res.OK)
	s.journalSentiment(tabID, res)
}

// Read returns the stored artifacts for a tab, or the sentinel explaining
// their absence. The signed-out check runs before the presence check.
func (s *Store) Read(tabID int) (string, *protocol.TabSnapshot) {
	if s.signedIn != nil && !s.signedIn() {
		return protocol.ReadStatusSignedOut, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.tabs[tabID]
	if !ok {
		return protocol.ReadStatusNotFound, nil
	}
	return protocol.ReadStatusFound, r.snapshot()
}

// snapshot deep-copies the record so callers never alias store internals.
func (r *record) snapshot() *protocol.TabSnapshot {
	snap := &protocol.TabSnapshot{}
	if r.text != nil {
		t := *r.text
		snap.TextResult = &t
	}
	if r.sentiment != nil {
		sb := *r.sentiment
		snap.SentimentBias = &sb
	}
	if len(r.media) > 0 {
		snap.MediaItems = make(map[string]protocol.Result[protocol.MediaVerdict], len(r.media))
		for url, res := range r.media {
			snap.MediaItems[url] = res
		}
	}
	return snap
}

// TabCount reports how many tab records exist.
func (s *Store) TabCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tabs)
}

// Journal failures are logged, never escalated: the in-memory state already
// holds the artifact and the contract does not depend on the mirror.

func (s *Store) journalText(tabID int, res protocol.Result[protocol.TextVerdict]) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordText(tabID, res); err != nil {
		logging.StoreWarn("journal write failed for tab %d text: %v", tabID, err)
	}
}

func (s *Store) journalMedia(tabID int, mediaURL string, res protocol.Result[protocol.MediaVerdict]) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordMedia(tabID, mediaURL, res); err != nil {
		logging.StoreWarn("journal write failed for tab %d media %s: %v", tabID, mediaURL, err)
	}
}

func (s *Store) journalSentiment(tabID int, res protocol.Result[protocol.SentimentBias]) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordSentiment(tabID, res); err != nil {
		logging.StoreWarn("journal write failed for tab %d sentiment: %v", tabID, err)
	}
}
