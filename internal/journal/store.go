package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fieldmark/framebot/internal/bot"
)

// Store persists journal entries to SQLite. Appends are ordered per client
// by insertion; entries are never updated after insert.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the journal database at path and
// applies pending schema migrations.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. The schema must already be
// migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for reporting queries.
func (s *Store) DB() *sql.DB { return s.db }

// Append inserts one entry.
func (s *Store) Append(e *Entry) error {
	probs, err := json.Marshal(e.Predicted.Probabilities)
	if err != nil {
		return fmt.Errorf("marshal probabilities: %w", err)
	}
	phases, err := json.Marshal(e.Phases)
	if err != nil {
		return fmt.Errorf("marshal phase durations: %w", err)
	}
	var meta []byte
	if len(e.Metadata) > 0 {
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO journal_entries (
			id, ts_unix_nanos, client_id, frame_id, episode_id,
			action_mask, reward, value_estimate, confidence,
			probabilities, phase_durations, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID.String(),
		e.Timestamp.UnixNano(),
		e.ClientID.String(),
		e.FrameID.String(),
		e.EpisodeID.String(),
		int64(e.Action),
		e.Reward,
		e.Predicted.ValueEstimate,
		e.Predicted.Confidence,
		string(probs),
		string(phases),
		nullableText(meta),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry %s: %w", e.ID, err)
	}
	return nil
}

func nullableText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func (s *Store) Flush() error { return nil }

func (s *Store) Close() error { return s.db.Close() }

// Recent returns up to limit entries for a client, oldest first. A zero
// client UUID returns entries across all clients.
func (s *Store) Recent(clientID uuid.UUID, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, ts_unix_nanos, client_id, frame_id, episode_id,
		       action_mask, reward, value_estimate, confidence,
		       probabilities, phase_durations, metadata
		FROM journal_entries
	`
	args := []any{}
	if clientID != uuid.Nil {
		query += ` WHERE client_id = ?`
		args = append(args, clientID.String())
	}
	query += ` ORDER BY ts_unix_nanos DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountForClient returns the number of persisted entries for a client.
func (s *Store) CountForClient(clientID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM journal_entries WHERE client_id = ?`,
		clientID.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count journal entries: %w", err)
	}
	return n, nil
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		id, client, frame, episode string
		tsNanos, mask              int64
		reward, value, conf        float64
		probsJSON, phasesJSON      string
		metaJSON                   sql.NullString
	)
	if err := rows.Scan(&id, &tsNanos, &client, &frame, &episode,
		&mask, &reward, &value, &conf,
		&probsJSON, &phasesJSON, &metaJSON); err != nil {
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}

	e := &Entry{
		Timestamp: time.Unix(0, tsNanos).UTC(),
		Action:    bot.ButtonMask(mask),
		Reward:    float32(reward),
	}
	e.Predicted.ValueEstimate = float32(value)
	e.Predicted.Confidence = float32(conf)

	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse entry id: %w", err)
	}
	if e.ClientID, err = uuid.Parse(client); err != nil {
		return nil, fmt.Errorf("parse client id: %w", err)
	}
	if e.FrameID, err = uuid.Parse(frame); err != nil {
		return nil, fmt.Errorf("parse frame id: %w", err)
	}
	if e.EpisodeID, err = uuid.Parse(episode); err != nil {
		return nil, fmt.Errorf("parse episode id: %w", err)
	}
	if err = json.Unmarshal([]byte(probsJSON), &e.Predicted.Probabilities); err != nil {
		return nil, fmt.Errorf("parse probabilities: %w", err)
	}
	if err = json.Unmarshal([]byte(phasesJSON), &e.Phases); err != nil {
		return nil, fmt.Errorf("parse phase durations: %w", err)
	}
	if metaJSON.Valid {
		if err = json.Unmarshal([]byte(metaJSON.String), &e.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata: %w", err)
		}
	}
	return e, nil
}
