package server

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"termlens/protocol"
)

func testFrame(frame uint64, micro int64, screen string) protocol.Frame {
	return protocol.Frame{
		Frame:         frame,
		UnixMicro:     micro,
		CursorX:       0,
		CursorY:       0,
		CursorVisible: true,
		Screen:        screen,
	}
}

func TestFrameStoreRecordAndSearch(t *testing.T) {
	store, err := OpenFrameStoreWithConfig(StoreConfig{
		Path:       filepath.Join(t.TempDir(), "frames.db"),
		BatchSize:  2,
		FlushEvery: 50 * time.Millisecond,
		QueueSize:  16,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	sessionA := uuid.New()
	sessionB := uuid.New()
	base := time.Now().UnixMicro()

	store.Record(sessionA, testFrame(1, base, "hello world\nsecond line"))
	store.Record(sessionB, testFrame(1, base+1000, "goodbye moon"))
	store.Record(sessionA, testFrame(2, base+2000, "hello again"))
	store.Flush()

	hits, err := store.Search("hello", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Frame != 2 || hits[1].Frame != 1 {
		t.Fatalf("expected newest first, got frames %d, %d", hits[0].Frame, hits[1].Frame)
	}
	if hits[0].Session != sessionA.String() {
		t.Fatalf("unexpected session %q", hits[0].Session)
	}

	hits, err = store.SearchSession(sessionB, "moon", 10)
	if err != nil {
		t.Fatalf("search session: %v", err)
	}
	if len(hits) != 1 || hits[0].Session != sessionB.String() {
		t.Fatalf("expected one hit for session B, got %+v", hits)
	}

	if hits, err = store.Search("absent-term", 10); err != nil || len(hits) != 0 {
		t.Fatalf("expected no hits, got %v (%v)", hits, err)
	}
}

func TestFrameStoreShortQueryUsesLike(t *testing.T) {
	store, err := OpenFrameStore(filepath.Join(t.TempDir(), "frames.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	session := uuid.New()
	store.Record(session, testFrame(1, time.Now().UnixMicro(), "a%b_c"))
	store.Flush()

	// Under three characters the trigram index cannot match; the LIKE
	// fallback must, and the wildcard characters are escaped.
	hits, err := store.Search("%b", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit via LIKE fallback, got %d", len(hits))
	}

	if hits, err = store.Search("zq", 10); err != nil || len(hits) != 0 {
		t.Fatalf("expected no hits for absent pair, got %v (%v)", hits, err)
	}
}

func TestFrameStoreFrameAt(t *testing.T) {
	store, err := OpenFrameStore(filepath.Join(t.TempDir(), "frames.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	session := uuid.New()
	base := time.Now().UnixMicro()
	store.Record(session, testFrame(7, base, "seventh"))
	store.Record(session, testFrame(8, base+1000, "eighth"))
	store.Flush()

	rec, err := store.FrameAt(session, 7)
	if err != nil {
		t.Fatalf("frame at: %v", err)
	}
	if rec.Screen != "seventh" || rec.Frame != 7 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Timestamp.UnixMicro() != base {
		t.Fatalf("timestamp not preserved: %d != %d", rec.Timestamp.UnixMicro(), base)
	}

	if _, err := store.FrameAt(session, 99); err != ErrFrameNotFound {
		t.Fatalf("expected ErrFrameNotFound, got %v", err)
	}
}

func TestFrameStoreSessions(t *testing.T) {
	store, err := OpenFrameStore(filepath.Join(t.TempDir(), "frames.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	older := uuid.New()
	newer := uuid.New()
	base := time.Now().UnixMicro()
	store.Record(older, testFrame(1, base, "old session"))
	store.Record(older, testFrame(2, base+500, "old session again"))
	store.Record(newer, testFrame(1, base+1000, "new session"))
	store.Flush()

	summaries, err := store.Sessions()
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(summaries))
	}
	if summaries[0].Session != newer.String() {
		t.Fatalf("expected most recent session first")
	}
	if summaries[1].Frames != 2 {
		t.Fatalf("expected 2 frames for older session, got %d", summaries[1].Frames)
	}
}

func TestFrameStoreTimerFlush(t *testing.T) {
	store, err := OpenFrameStoreWithConfig(StoreConfig{
		Path:       filepath.Join(t.TempDir(), "frames.db"),
		BatchSize:  100, // never reached
		FlushEvery: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	store.Record(uuid.New(), testFrame(1, time.Now().UnixMicro(), "timer flushed"))

	waitFor(t, 2*time.Second, func() bool {
		hits, err := store.Search("timer flushed", 1)
		return err == nil && len(hits) == 1
	})
}

func TestFrameStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.db")
	session := uuid.New()

	store, err := OpenFrameStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.Record(session, testFrame(1, time.Now().UnixMicro(), "durable content"))
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := OpenFrameStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	hits, err := reopened.Search("durable", 10)
	if err != nil {
		t.Fatalf("search after reopen: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected persisted frame, got %d hits", len(hits))
	}
}
