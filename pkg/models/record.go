package models

import (
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Cursor identifies the last audit record confirmed as delivered.
// Zero means "nothing delivered yet".
type Cursor int64

func (c Cursor) String() string {
	return strconv.FormatInt(int64(c), 10)
}

// AuditRecord is one history row as returned by the extraction routine.
// Nullable columns are pointers; nil renders as None on the wire.
type AuditRecord struct {
	Timestamp     time.Time
	HostName      *string
	ItemID        *int64
	Value         *apd.Decimal
	Unit          *string
	ItemType      *int64
	ItemName      *string
	ItemKey       *string
	ItemDelay     *string
	ItemHistory   *string
	ItemValueType *int64

	// ActionID is the resumable cursor field. Zero when the routine
	// does not project one.
	ActionID Cursor

	// OldValue and NewValue are only projected by change-audit routines.
	OldValue *string
	NewValue *string
}

// EventMetadata tags every event written to a sink channel.
type EventMetadata struct {
	SourceType string
	Source     string
	Host       string
}
