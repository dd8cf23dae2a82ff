package server

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"termlens/protocol"
)

var ErrFrameNotFound = errors.New("server: frame not found")

// FrameRecord is one stored frame.
type FrameRecord struct {
	Session   string // canonical UUID text
	Frame     uint64
	Timestamp time.Time
	CursorX   int
	CursorY   int
	Screen    string
}

// SessionSummary describes the stored history of one session.
type SessionSummary struct {
	Session string
	Frames  int64
	First   time.Time
	Last    time.Time
}

// StoreConfig holds configuration for the frame store.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string
	// BatchSize is the number of frames to accumulate before flushing.
	// Default: 64.
	BatchSize int
	// FlushEvery is how long to wait before flushing a partial batch.
	// Default: 500ms.
	FlushEvery time.Duration
	// QueueSize is the size of the async recording channel. Default: 512.
	QueueSize int
}

// DefaultStoreConfig returns sensible defaults.
func DefaultStoreConfig(path string) StoreConfig {
	return StoreConfig{
		Path:       path,
		BatchSize:  64,
		FlushEvery: 500 * time.Millisecond,
		QueueSize:  512,
	}
}

const frameSchema = `
-- Published frames, one row per frame
CREATE TABLE IF NOT EXISTS frames (
    id INTEGER PRIMARY KEY,
    session TEXT NOT NULL,        -- canonical UUID text
    frame INTEGER NOT NULL,       -- emulator change counter
    unix_micro INTEGER NOT NULL,
    cursor_x INTEGER NOT NULL,
    cursor_y INTEGER NOT NULL,
    screen TEXT NOT NULL
);

-- Index for per-session lookup
CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session, frame);

-- Index for time-based navigation
CREATE INDEX IF NOT EXISTS idx_frames_time ON frames(unix_micro);
`

const frameFTSSchema = `
-- FTS5 virtual table with trigram tokenizer so any substring of a
-- screen can be matched (paths, flags, fragments of output)
CREATE VIRTUAL TABLE IF NOT EXISTS frames_text USING fts5(
    screen,
    content='frames',
    content_rowid='id',
    tokenize='trigram'
);

-- Triggers to keep FTS5 in sync
CREATE TRIGGER IF NOT EXISTS frames_ai AFTER INSERT ON frames BEGIN
    INSERT INTO frames_text(rowid, screen) VALUES (new.id, new.screen);
END;

CREATE TRIGGER IF NOT EXISTS frames_au AFTER UPDATE ON frames BEGIN
    INSERT INTO frames_text(frames_text, rowid, screen) VALUES ('delete', old.id, old.screen);
    INSERT INTO frames_text(rowid, screen) VALUES (new.id, new.screen);
END;

CREATE TRIGGER IF NOT EXISTS frames_ad AFTER DELETE ON frames BEGIN
    INSERT INTO frames_text(frames_text, rowid, screen) VALUES ('delete', old.id, old.screen);
END;
`

// FrameStore persists published frames to SQLite and serves full-text
// search over them. Writes are batched on a background goroutine.
type FrameStore struct {
	config StoreConfig
	db     *sql.DB

	batchChan chan FrameRecord
	stopCh    chan struct{}
	doneCh    chan struct{}
	flushCh   chan chan struct{}

	mu sync.RWMutex
}

// OpenFrameStore opens (or creates) a frame store with default settings.
func OpenFrameStore(path string) (*FrameStore, error) {
	return OpenFrameStoreWithConfig(DefaultStoreConfig(path))
}

// OpenFrameStoreWithConfig opens a frame store with custom configuration.
func OpenFrameStoreWithConfig(config StoreConfig) (*FrameStore, error) {
	if config.BatchSize <= 0 {
		config.BatchSize = 64
	}
	if config.FlushEvery <= 0 {
		config.FlushEvery = 500 * time.Millisecond
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 512
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := config.Path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=cache_size(-8000)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(frameSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.Exec(frameFTSSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create FTS schema: %w", err)
	}

	fs := &FrameStore{
		config:    config,
		db:        db,
		batchChan: make(chan FrameRecord, config.QueueSize),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		flushCh:   make(chan chan struct{}),
	}
	go fs.batchWriter()
	return fs, nil
}

// Record queues one published frame for storage. When the queue is full
// the frame is dropped; history is best-effort, live delivery is not.
func (fs *FrameStore) Record(sessionID [16]byte, frame protocol.Frame) {
	rec := FrameRecord{
		Session:   uuid.UUID(sessionID).String(),
		Frame:     frame.Frame,
		Timestamp: time.UnixMicro(frame.UnixMicro),
		CursorX:   int(frame.CursorX),
		CursorY:   int(frame.CursorY),
		Screen:    frame.Screen,
	}
	select {
	case fs.batchChan <- rec:
	default:
	}
}

// batchWriter batches queued frames and flushes them periodically.
func (fs *FrameStore) batchWriter() {
	defer close(fs.doneCh)

	batch := make([]FrameRecord, 0, fs.config.BatchSize)
	timer := time.NewTimer(fs.config.FlushEvery)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		fs.flushBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-fs.batchChan:
			batch = append(batch, rec)
			if len(batch) >= fs.config.BatchSize {
				flush()
				timer.Reset(fs.config.FlushEvery)
			}

		case <-timer.C:
			flush()
			timer.Reset(fs.config.FlushEvery)

		case done := <-fs.flushCh:
			// Manual flush request, drain the queue first.
			draining := true
			for draining {
				select {
				case rec := <-fs.batchChan:
					batch = append(batch, rec)
				default:
					draining = false
				}
			}
			flush()
			close(done)

		case <-fs.stopCh:
			// Drain the queue and flush before exit.
			for {
				select {
				case rec := <-fs.batchChan:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flushBatch writes a batch of frames in a single transaction.
func (fs *FrameStore) flushBatch(batch []FrameRecord) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tx, err := fs.db.Begin()
	if err != nil {
		log.Printf("server: frame store begin failed: %v", err)
		return
	}

	stmt, err := tx.Prepare("INSERT INTO frames (session, frame, unix_micro, cursor_x, cursor_y, screen) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		log.Printf("server: frame store prepare failed: %v", err)
		tx.Rollback()
		return
	}
	defer stmt.Close()

	for _, rec := range batch {
		if _, err := stmt.Exec(rec.Session, rec.Frame, rec.Timestamp.UnixMicro(), rec.CursorX, rec.CursorY, rec.Screen); err != nil {
			log.Printf("server: frame store insert failed: %v", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("server: frame store commit failed: %v", err)
	}
}

// Search finds frames whose screen contains the term, newest first.
// Queries shorter than three characters fall back to LIKE because the
// trigram tokenizer cannot match them.
func (fs *FrameStore) Search(term string, limit int) ([]FrameRecord, error) {
	return fs.search(term, "", limit)
}

// SearchSession is Search restricted to one session.
func (fs *FrameStore) SearchSession(sessionID [16]byte, term string, limit int) ([]FrameRecord, error) {
	return fs.search(term, uuid.UUID(sessionID).String(), limit)
}

func (fs *FrameStore) search(term, session string, limit int) ([]FrameRecord, error) {
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var rows *sql.Rows
	var err error

	sessionFilter := ""
	args := []interface{}{}
	if len(term) < 3 {
		likePattern := "%" + strings.ReplaceAll(strings.ReplaceAll(term, "%", "\\%"), "_", "\\_") + "%"
		args = append(args, likePattern)
		if session != "" {
			sessionFilter = "AND session = ? "
			args = append(args, session)
		}
		args = append(args, limit)
		rows, err = fs.db.Query(`
			SELECT session, frame, unix_micro, cursor_x, cursor_y, screen
			FROM frames
			WHERE screen LIKE ? ESCAPE '\' `+sessionFilter+`
			ORDER BY unix_micro DESC
			LIMIT ?
		`, args...)
	} else {
		// Double quotes make the term a literal substring match, which
		// keeps shell-ish queries like "ls -la" intact.
		quoted := `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
		args = append(args, quoted)
		if session != "" {
			sessionFilter = "AND f.session = ? "
			args = append(args, session)
		}
		args = append(args, limit)
		rows, err = fs.db.Query(`
			SELECT f.session, f.frame, f.unix_micro, f.cursor_x, f.cursor_y, f.screen
			FROM frames_text
			JOIN frames f ON f.id = frames_text.rowid
			WHERE frames_text MATCH ? `+sessionFilter+`
			ORDER BY f.unix_micro DESC
			LIMIT ?
		`, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	return scanFrameRecords(rows)
}

func scanFrameRecords(rows *sql.Rows) ([]FrameRecord, error) {
	var records []FrameRecord
	for rows.Next() {
		var rec FrameRecord
		var micro int64
		if err := rows.Scan(&rec.Session, &rec.Frame, &micro, &rec.CursorX, &rec.CursorY, &rec.Screen); err != nil {
			continue
		}
		rec.Timestamp = time.UnixMicro(micro)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FrameAt returns the stored frame with the given emulator frame number.
func (fs *FrameStore) FrameAt(sessionID [16]byte, frame uint64) (FrameRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var rec FrameRecord
	var micro int64
	err := fs.db.QueryRow(`
		SELECT session, frame, unix_micro, cursor_x, cursor_y, screen
		FROM frames
		WHERE session = ? AND frame = ?
		ORDER BY unix_micro DESC
		LIMIT 1
	`, uuid.UUID(sessionID).String(), frame).Scan(&rec.Session, &rec.Frame, &micro, &rec.CursorX, &rec.CursorY, &rec.Screen)
	if err == sql.ErrNoRows {
		return FrameRecord{}, ErrFrameNotFound
	}
	if err != nil {
		return FrameRecord{}, err
	}
	rec.Timestamp = time.UnixMicro(micro)
	return rec, nil
}

// Sessions summarises the stored history, most recently active first.
func (fs *FrameStore) Sessions() ([]SessionSummary, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	rows, err := fs.db.Query(`
		SELECT session, COUNT(*), MIN(unix_micro), MAX(unix_micro)
		FROM frames
		GROUP BY session
		ORDER BY MAX(unix_micro) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var first, last int64
		if err := rows.Scan(&s.Session, &s.Frames, &first, &last); err != nil {
			continue
		}
		s.First = time.UnixMicro(first)
		s.Last = time.UnixMicro(last)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Flush blocks until all queued frames are written.
func (fs *FrameStore) Flush() {
	done := make(chan struct{})
	select {
	case fs.flushCh <- done:
		<-done
	case <-fs.stopCh:
	}
}

// Close flushes queued frames and closes the database.
func (fs *FrameStore) Close() error {
	close(fs.stopCh)
	<-fs.doneCh
	return fs.db.Close()
}

// NewStoreSink adapts a FrameStore into an EventSink that records every
// published frame and flushes when a session ends.
func NewStoreSink(store *FrameStore) EventSink {
	return storeSink{store: store}
}

type storeSink struct {
	store *FrameStore
}

func (s storeSink) SessionStarted(*Session, string) {}

func (s storeSink) FramePublished(session *Session, frame protocol.Frame) {
	s.store.Record(session.ID(), frame)
}

func (s storeSink) InputForwarded(*Session, int) {}

func (s storeSink) SessionEnded(*Session) {
	s.store.Flush()
}
