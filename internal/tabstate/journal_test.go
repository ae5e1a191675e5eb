package tabstate

import (
	"path/filepath"
	"testing"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := OpenJournal(filepath.Join(t.TempDir(), "artifacts.db"))
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndReadBack(t *testing.T) {
	j := openTestJournal(t)

	verdict := protocol.TextVerdict{Label: "LABEL_1", Score: 0.93, Highlights: []string{"claim"}}
	if err := j.RecordText(7, protocol.Ok(verdict)); err != nil {
		t.Fatal(err)
	}

	got, err := j.TextArtifact(7)
	if err != nil {
		t.Fatal(err)
	}
	if !got.OK || got.Value.Label != "LABEL_1" || got.Value.Score != 0.93 {
		t.Errorf("read back %+v", got)
	}
}

func TestJournal_UpsertReplaces(t *testing.T) {
	j := openTestJournal(t)

	if err := j.RecordText(7, protocol.Fail[protocol.TextVerdict]("transient")); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordText(7, protocol.Ok(protocol.TextVerdict{Label: "LABEL_0", Score: 0.88})); err != nil {
		t.Fatal(err)
	}

	n, err := j.ArtifactCount(7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("artifact count = %d, want 1 (upsert, not append)", n)
	}
	got, err := j.TextArtifact(7)
	if err != nil {
		t.Fatal(err)
	}
	if !got.OK {
		t.Errorf("latest write should win: %+v", got)
	}
}

func TestJournal_MediaItemsKeyedByURL(t *testing.T) {
	j := openTestJournal(t)

	if err := j.RecordMedia(3, "https://x/a.png", protocol.Ok(protocol.MediaVerdict{Kind: protocol.MediaImage})); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordMedia(3, "https://x/b.png", protocol.Fail[protocol.MediaVerdict]("denied")); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordSentiment(3, protocol.Ok(protocol.SentimentBias{})); err != nil {
		t.Fatal(err)
	}

	n, err := j.ArtifactCount(3)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("artifact count = %d, want 3", n)
	}
}
