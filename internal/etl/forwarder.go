package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
)

// Forwarder writes a batch to an open channel, in order.
type Forwarder struct {
	Channel     Channel
	Transformer *Transformer
	Log         *logger.Logger
	DryRun      bool
}

func NewForwarder(ch Channel, log *logger.Logger, dryRun bool) *Forwarder {
	return &Forwarder{
		Channel:     ch,
		Transformer: NewTransformer(),
		Log:         log,
		DryRun:      dryRun,
	}
}

// Forward sends every record and returns the cursor of the last one, or 0
// for an empty batch. The first failed send aborts the rest of the batch;
// records already sent stay at the sink. A dry run only logs.
func (f *Forwarder) Forward(ctx context.Context, batch []models.AuditRecord) (models.Cursor, error) {
	var last models.Cursor
	for i, rec := range batch {
		event := f.Transformer.Event(rec)
		line := strings.TrimSuffix(string(event), EventTerminator)
		if f.DryRun {
			f.Log.Infof("[DRY RUN] %s", line)
			last = rec.ActionID
			continue
		}

		f.Log.Infof("%s", line)
		if err := f.Channel.Send(ctx, event); err != nil {
			return 0, fmt.Errorf("%w: record %d of %d (cursor %d): %w", ErrDelivery, i+1, len(batch), rec.ActionID, err)
		}
		last = rec.ActionID
	}
	return last, nil
}
