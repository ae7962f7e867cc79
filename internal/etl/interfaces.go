package etl

import (
	"context"

	"github.com/BartekS5/zabbix-audit/pkg/models"
)

// AuditSource reads history records from the monitoring database.
type AuditSource interface {
	EnsureRoutineInstalled(ctx context.Context, name string) error
	Extract(ctx context.Context, entityID int64, cursor models.Cursor, limit int) ([]models.AuditRecord, error)
}

// EventSink is a session with the event-forwarding service.
type EventSink interface {
	ResolveStream(ctx context.Context, name string) (Stream, error)
	Close() error
}

// Stream is a named index, topic or collection on a sink.
type Stream interface {
	Name() string
	OpenChannel(ctx context.Context, meta models.EventMetadata) (Channel, error)
}

// Channel transmits single events. Send returns only after the sink
// accepted the event. Close must be safe to call more than once.
type Channel interface {
	Send(ctx context.Context, event []byte) error
	Close() error
}

// CheckpointStore persists the cursor between runs.
type CheckpointStore interface {
	Load() (models.Cursor, error)
	Save(c models.Cursor) error
}
