package etl

import (
	"context"
	"errors"
	"time"

	"github.com/BartekS5/zabbix-audit/internal/checkpoint"
	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/cockroachdb/apd/v3"
)

type fakeSource struct {
	installErr   error
	installCalls int
	installed    map[string]bool

	batch      []models.AuditRecord
	extractErr error
	gotCursor  models.Cursor
	gotLimit   int
	gotEntity  int64
}

func (f *fakeSource) EnsureRoutineInstalled(_ context.Context, name string) error {
	f.installCalls++
	if f.installErr != nil {
		return f.installErr
	}
	if f.installed == nil {
		f.installed = map[string]bool{}
	}
	f.installed[name] = true
	return nil
}

func (f *fakeSource) Extract(_ context.Context, entityID int64, cursor models.Cursor, limit int) ([]models.AuditRecord, error) {
	f.gotEntity, f.gotCursor, f.gotLimit = entityID, cursor, limit
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	var out []models.AuditRecord
	for _, r := range f.batch {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeSink struct {
	resolveErr error
	openErr    error
	channel    *fakeChannel
	resolved   []string
	meta       models.EventMetadata
	closed     bool
}

func (f *fakeSink) ResolveStream(_ context.Context, name string) (Stream, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	f.resolved = append(f.resolved, name)
	return &fakeStream{sink: f, name: name}, nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

type fakeStream struct {
	sink *fakeSink
	name string
}

func (s *fakeStream) Name() string { return s.name }

func (s *fakeStream) OpenChannel(_ context.Context, meta models.EventMetadata) (Channel, error) {
	if s.sink.openErr != nil {
		return nil, s.sink.openErr
	}
	s.sink.meta = meta
	if s.sink.channel == nil {
		s.sink.channel = &fakeChannel{}
	}
	return s.sink.channel, nil
}

// fakeChannel fails the send with index failAt (1-based) when set.
type fakeChannel struct {
	sent     [][]byte
	failAt   int
	closeErr error
	closes   int
}

func (c *fakeChannel) Send(_ context.Context, event []byte) error {
	if c.failAt > 0 && len(c.sent)+1 == c.failAt {
		return errors.New("connection reset by peer")
	}
	c.sent = append(c.sent, append([]byte(nil), event...))
	return nil
}

func (c *fakeChannel) Close() error {
	c.closes++
	return c.closeErr
}

type memCheckpoint struct {
	cursor  models.Cursor
	present bool
	loadErr error
	saveErr error
	saves   []models.Cursor
}

func (m *memCheckpoint) Load() (models.Cursor, error) {
	if m.loadErr != nil {
		return 0, m.loadErr
	}
	if !m.present {
		return 0, checkpoint.ErrNotFound
	}
	return m.cursor, nil
}

func (m *memCheckpoint) Save(c models.Cursor) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves = append(m.saves, c)
	m.cursor, m.present = c, true
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

func record(id models.Cursor) models.AuditRecord {
	return models.AuditRecord{
		Timestamp:     time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC),
		HostName:      strPtr("host1"),
		ItemID:        intPtr(42),
		Value:         apd.New(35, -1),
		Unit:          strPtr("%"),
		ItemType:      intPtr(1),
		ItemName:      strPtr("itemName"),
		ItemKey:       strPtr("system.cpu.util"),
		ItemDelay:     strPtr("1m"),
		ItemHistory:   strPtr("90d"),
		ItemValueType: intPtr(0),
		ActionID:      id,
	}
}

func records(ids ...models.Cursor) []models.AuditRecord {
	out := make([]models.AuditRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, record(id))
	}
	return out
}
