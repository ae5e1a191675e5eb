package tabstate

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/protocol"
)

// Artifact field kinds as stored in the journal.
const (
	fieldText      = "text"
	fieldMedia     = "media"
	fieldSentiment = "sentiment"
)

// Journal mirrors every stored artifact into SQLite so verdicts survive for
// inspection after the fact. The store treats it as strictly best-effort.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenJournal initializes the journal database at the given path.
func OpenJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		tab_id     INTEGER NOT NULL,
		field      TEXT NOT NULL,
		media_url  TEXT NOT NULL DEFAULT '',
		ok         INTEGER NOT NULL,
		payload    TEXT,
		error      TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (tab_id, field, media_url)
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_tab ON artifacts(tab_id);
	`
	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// RecordText journals a text verdict artifact.
func (j *Journal) RecordText(tabID int, res protocol.Result[protocol.TextVerdict]) error {
	return j.upsert(tabID, fieldText, "", res.OK, res.Value, res.Error)
}

// RecordMedia journals one media artifact keyed by URL.
func (j *Journal) RecordMedia(tabID int, mediaURL string, res protocol.Result[protocol.MediaVerdict]) error {
	return j.upsert(tabID, fieldMedia, mediaURL, res.OK, res.Value, res.Error)
}

// RecordSentiment journals the sentiment/bias artifact.
func (j *Journal) RecordSentiment(tabID int, res protocol.Result[protocol.SentimentBias]) error {
	return j.upsert(tabID, fieldSentiment, "", res.OK, res.Value, res.Error)
}

func (j *Journal) upsert(tabID int, field, mediaURL string, ok bool, payload any, errDetail string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact payload: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err = j.db.Exec(`
		INSERT INTO artifacts (tab_id, field, media_url, ok, payload, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(tab_id, field, media_url) DO UPDATE SET
			ok = excluded.ok,
			payload = excluded.payload,
			error = excluded.error,
			updated_at = CURRENT_TIMESTAMP`,
		tabID, field, mediaURL, boolToInt(ok), string(data), errDetail)
	if err != nil {
		return fmt.Errorf("failed to upsert artifact: %w", err)
	}
	return nil
}

// ArtifactCount reports how many artifacts the journal holds for a tab.
func (j *Journal) ArtifactCount(tabID int) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM artifacts WHERE tab_id = ?`, tabID).Scan(&n)
	return n, err
}

// TextArtifact reads back the journaled text verdict for a tab.
func (j *Journal) TextArtifact(tabID int) (protocol.Result[protocol.TextVerdict], error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var (
		ok        int
		payload   string
		errDetail sql.NullString
	)
	row := j.db.QueryRow(
		`SELECT ok, payload, error FROM artifacts WHERE tab_id = ? AND field = ?`,
		tabID, fieldText)
	if err := row.Scan(&ok, &payload, &errDetail); err != nil {
		return protocol.Result[protocol.TextVerdict]{}, err
	}

	var verdict protocol.TextVerdict
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		return protocol.Result[protocol.TextVerdict]{}, fmt.Errorf("corrupt journal payload: %w", err)
	}
	res := protocol.Result[protocol.TextVerdict]{OK: ok == 1, Value: verdict}
	if errDetail.Valid {
		res.Error = errDetail.String
	}
	return res, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
