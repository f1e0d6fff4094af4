// ABOUTME: Store interface and data types for orchestrator persistence
// ABOUTME: Threads, their messages, and an audit trail of tool invocations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateThread is returned when trying to create a thread that already exists
var ErrDuplicateThread = errors.New("thread already exists")

// Thread represents one conversation with the orchestrator
type Thread struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message role constants, matching the decision loop's roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single message within a thread for audit/history purposes
type Message struct {
	ID         string
	ThreadID   string
	Role       string // "user", "assistant", "tool"
	Content    string
	ToolName   string // For tool results: the unique tool name
	ToolCallID string // Links a tool result to the call that requested it
	CreatedAt  time.Time
}

// Invocation is one audited tool run: what was asked, how it ended
type Invocation struct {
	ID         string
	ThreadID   string
	ToolName   string
	ParamsJSON string
	ExitCode   int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store is the persistence interface used by the chat API. The SQLite
// implementation is the only one shipped; tests substitute in-memory fakes.
type Store interface {
	// Thread operations
	CreateThread(ctx context.Context, thread *Thread) error
	GetThread(ctx context.Context, id string) (*Thread, error)
	ListThreads(ctx context.Context, limit int) ([]*Thread, error)
	TouchThread(ctx context.Context, id string, updatedAt time.Time) error

	// Message operations
	SaveMessage(ctx context.Context, msg *Message) error
	GetThreadMessages(ctx context.Context, threadID string, limit int) ([]*Message, error)

	// Invocation audit
	RecordInvocation(ctx context.Context, inv *Invocation) error
	ListInvocations(ctx context.Context, threadID string, limit int) ([]*Invocation, error)

	// Close releases the underlying database
	Close() error
}
