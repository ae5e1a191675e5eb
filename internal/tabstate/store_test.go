package tabstate

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

func alwaysSignedIn() bool { return true }

func TestRead_SignedOutBeforeNotFound(t *testing.T) {
	signedIn := false
	s := NewStore(func() bool { return signedIn }, nil)

	// Never-analyzed tab, no session: signedOut wins.
	status, _ := s.Read(42)
	if status != protocol.ReadStatusSignedOut {
		t.Fatalf("status = %s, want signedOut", status)
	}

	// Same tab after sign-in and before analysis: notFound.
	signedIn = true
	status, _ = s.Read(42)
	if status != protocol.ReadStatusNotFound {
		t.Fatalf("status = %s, want notFound", status)
	}

	// Even a tab with data reads signedOut once the session is gone.
	s.SetText(42, protocol.Ok(protocol.TextVerdict{Label: "LABEL_0", Score: 0.9}))
	signedIn = false
	status, _ = s.Read(42)
	if status != protocol.ReadStatusSignedOut {
		t.Fatalf("status with data but no session = %s, want signedOut", status)
	}
}

func TestUpserts_AreIndependent(t *testing.T) {
	s := NewStore(alwaysSignedIn, nil)

	s.SetText(7, protocol.Ok(protocol.TextVerdict{Label: "LABEL_1", Score: 0.91, Highlights: []string{"X"}}))
	s.SetSentimentBias(7, protocol.Fail[protocol.SentimentBias]("sentiment endpoint unreachable"))

	status, snap := s.Read(7)
	if status != protocol.ReadStatusFound {
		t.Fatalf("status = %s", status)
	}
	if snap.TextResult == nil || !snap.TextResult.OK {
		t.Fatal("text success must survive a later sentiment failure")
	}
	if snap.SentimentBias == nil || snap.SentimentBias.OK {
		t.Fatal("sentiment failure must be stored alongside the text success")
	}
	if snap.TextResult.Value.Score != 0.91 {
		t.Errorf("text verdict mutated: %+v", snap.TextResult.Value)
	}
}

func TestMediaItems_DoNotClobberEachOther(t *testing.T) {
	s := NewStore(alwaysSignedIn, nil)

	var wg sync.WaitGroup
	urls := []string{"https://x/a.png", "https://x/b.png"}
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			s.SetMediaItem(7, url, protocol.Ok(protocol.MediaVerdict{
				Kind:       protocol.MediaImage,
				Summary:    url,
				Confidence: float64(i),
			}))
		}(i, url)
	}
	wg.Wait()

	_, snap := s.Read(7)
	if len(snap.MediaItems) != 2 {
		t.Fatalf("media items = %d, want 2", len(snap.MediaItems))
	}
	for _, url := range urls {
		if _, ok := snap.MediaItems[url]; !ok {
			t.Errorf("missing entry for %s", url)
		}
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewStore(alwaysSignedIn, nil)
	s.SetMediaItem(1, "https://x/a.png", protocol.Fail[protocol.MediaVerdict]("boom"))

	_, first := s.Read(1)
	first.MediaItems["https://x/injected.png"] = protocol.Ok(protocol.MediaVerdict{})

	_, second := s.Read(1)
	want := map[string]protocol.Result[protocol.MediaVerdict]{
		"https://x/a.png": protocol.Fail[protocol.MediaVerdict]("boom"),
	}
	if diff := cmp.Diff(want, second.MediaItems); diff != "" {
		t.Errorf("snapshot aliasing detected (-want +got):\n%s", diff)
	}
}

func TestFailureArtifactsAreDurable(t *testing.T) {
	s := NewStore(alwaysSignedIn, nil)
	s.SetMediaItem(3, "https://x/v.mp4", protocol.Fail[protocol.MediaVerdict]("paid tier required"))

	// A UI surface opened after the fact still retrieves the failure.
	_, snap := s.Read(3)
	res, ok := snap.MediaItems["https://x/v.mp4"]
	if !ok {
		t.Fatal("failure artifact missing")
	}
	if res.OK || res.Error != "paid tier required" {
		t.Errorf("unexpected artifact: %+v", res)
	}
}

func TestStoreSurvivesJournalFailure(t *testing.T) {
	j, err := OpenJournal(filepath.Join(t.TempDir(), "artifacts.db"))
	if err != nil {
		t.Fatal(err)
	}
	j.Close() // journal writes will now fail

	s := NewStore(alwaysSignedIn, j)
	s.SetText(9, protocol.Ok(protocol.TextVerdict{Label: "LABEL_0", Score: 0.8}))

	status, snap := s.Read(9)
	if status != protocol.ReadStatusFound || snap.TextResult == nil {
		t.Fatal("in-memory store must not be poisoned by a dead journal")
	}
}

func TestGetOrCreate_LazyAndStable(t *testing.T) {
	s := NewStore(alwaysSignedIn, nil)
	if s.TabCount() != 0 {
		t.Fatal("store should start empty")
	}
	s.GetOrCreate(5)
	s.GetOrCreate(5)
	if s.TabCount() != 1 {
		t.Errorf("tab count = %d, want 1", s.TabCount())
	}
}
