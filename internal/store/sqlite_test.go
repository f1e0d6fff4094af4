// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers thread CRUD, message ordering/limiting, and invocation audit

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestCreateAndGetThread(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	thread := &Thread{
		ID:        "thread-123",
		Title:     "check the repo status",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := store.CreateThread(ctx, thread); err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	got, err := store.GetThread(ctx, "thread-123")
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if got.ID != thread.ID {
		t.Errorf("ID = %q, want %q", got.ID, thread.ID)
	}
	if got.Title != thread.Title {
		t.Errorf("Title = %q, want %q", got.Title, thread.Title)
	}
	if !got.CreatedAt.Equal(thread.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, thread.CreatedAt)
	}
}

func TestCreateThread_Duplicate(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	thread := &Thread{ID: "dup", Title: "first", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	if err := store.CreateThread(ctx, thread); err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if err := store.CreateThread(ctx, thread); !errors.Is(err, ErrDuplicateThread) {
		t.Errorf("second CreateThread = %v, want ErrDuplicateThread", err)
	}
}

func TestGetThread_NotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.GetThread(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetThread = %v, want ErrNotFound", err)
	}
}

func TestListThreads_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		thread := &Thread{
			ID:        fmt.Sprintf("t-%d", i),
			Title:     fmt.Sprintf("thread %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateThread(ctx, thread); err != nil {
			t.Fatalf("CreateThread failed: %v", err)
		}
	}

	threads, err := store.ListThreads(ctx, 2)
	if err != nil {
		t.Fatalf("ListThreads failed: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	if threads[0].ID != "t-2" || threads[1].ID != "t-1" {
		t.Errorf("order = %s, %s; want t-2, t-1", threads[0].ID, threads[1].ID)
	}
}

func TestTouchThread(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Second)
	thread := &Thread{ID: "touch-me", Title: "x", CreatedAt: created, UpdatedAt: created}
	if err := store.CreateThread(ctx, thread); err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	later := created.Add(time.Hour)
	if err := store.TouchThread(ctx, "touch-me", later); err != nil {
		t.Fatalf("TouchThread failed: %v", err)
	}

	got, err := store.GetThread(ctx, "touch-me")
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}

	if err := store.TouchThread(ctx, "missing", later); !errors.Is(err, ErrNotFound) {
		t.Errorf("TouchThread on missing thread = %v, want ErrNotFound", err)
	}
}

func TestSaveAndGetMessages(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	thread := &Thread{ID: "t1", Title: "msgs", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateThread(ctx, thread); err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	msgs := []*Message{
		{ID: "m1", ThreadID: "t1", Role: RoleUser, Content: "run git status", CreatedAt: base},
		{ID: "m2", ThreadID: "t1", Role: RoleAssistant, Content: "", CreatedAt: base.Add(time.Second)},
		{ID: "m3", ThreadID: "t1", Role: RoleTool, Content: "Tool Output (stdout): clean",
			ToolName: "git/git_status", ToolCallID: "call-1", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, m := range msgs {
		if err := store.SaveMessage(ctx, m); err != nil {
			t.Fatalf("SaveMessage(%s) failed: %v", m.ID, err)
		}
	}

	got, err := store.GetThreadMessages(ctx, "t1", 0)
	if err != nil {
		t.Fatalf("GetThreadMessages failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	// Chronological order, oldest first
	for i, m := range got {
		if m.ID != msgs[i].ID {
			t.Errorf("message %d = %s, want %s", i, m.ID, msgs[i].ID)
		}
	}
	if got[2].ToolName != "git/git_status" {
		t.Errorf("ToolName = %q, want git/git_status", got[2].ToolName)
	}
	if got[2].ToolCallID != "call-1" {
		t.Errorf("ToolCallID = %q, want call-1", got[2].ToolCallID)
	}
	// Nullable fields stay empty on plain messages
	if got[0].ToolName != "" || got[0].ToolCallID != "" {
		t.Errorf("user message has tool fields: %q %q", got[0].ToolName, got[0].ToolCallID)
	}
}

func TestGetThreadMessages_Limit(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	thread := &Thread{ID: "t1", Title: "limit", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateThread(ctx, thread); err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		msg := &Message{
			ID:        fmt.Sprintf("m%d", i),
			ThreadID:  "t1",
			Role:      RoleUser,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := store.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("SaveMessage failed: %v", err)
		}
	}

	// The 2 most recent, still in chronological order
	got, err := store.GetThreadMessages(ctx, "t1", 2)
	if err != nil {
		t.Fatalf("GetThreadMessages failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d messages, want 2", len(got))
	}
	if got[0].ID != "m3" || got[1].ID != "m4" {
		t.Errorf("order = %s, %s; want m3, m4", got[0].ID, got[1].ID)
	}
}

func TestRecordAndListInvocations(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	thread := &Thread{ID: "t1", Title: "audit", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := store.CreateThread(ctx, thread); err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	invs := []*Invocation{
		{ID: "inv-1", ThreadID: "t1", ToolName: "terminal/execute_command",
			ParamsJSON: `{"command":"echo hi"}`, ExitCode: 0,
			StartedAt: base, FinishedAt: base.Add(time.Second)},
		{ID: "inv-2", ThreadID: "t1", ToolName: "git/git_status",
			ParamsJSON: `{"path":"."}`, ExitCode: 128, Error: "not a git repository",
			StartedAt: base.Add(2 * time.Second), FinishedAt: base.Add(3 * time.Second)},
	}
	for _, inv := range invs {
		if err := store.RecordInvocation(ctx, inv); err != nil {
			t.Fatalf("RecordInvocation(%s) failed: %v", inv.ID, err)
		}
	}

	got, err := store.ListInvocations(ctx, "t1", 0)
	if err != nil {
		t.Fatalf("ListInvocations failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d invocations, want 2", len(got))
	}
	if got[0].ID != "inv-1" || got[1].ID != "inv-2" {
		t.Errorf("order = %s, %s; want inv-1, inv-2", got[0].ID, got[1].ID)
	}
	if got[0].Error != "" {
		t.Errorf("inv-1 Error = %q, want empty", got[0].Error)
	}
	if got[1].ExitCode != 128 || got[1].Error != "not a git repository" {
		t.Errorf("inv-2 = exit %d, error %q", got[1].ExitCode, got[1].Error)
	}
}
