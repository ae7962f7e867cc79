package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BartekS5/zabbix-audit/internal/checkpoint"
	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
)

// RunOptions parameterize one synchronization run.
type RunOptions struct {
	EntityID    int64
	PageSize    int
	RoutineName string
	StreamName  string
	Metadata    models.EventMetadata
	// Override, when set, replaces the persisted cursor for this run only.
	Override *models.Cursor
	DryRun   bool
}

// Result summarizes a finished run.
type Result struct {
	StartCursor models.Cursor
	Extracted   int
	Forwarded   int
	NewCursor   models.Cursor
	Saved       bool
}

type Pipeline struct {
	Source      AuditSource
	Sink        EventSink
	Checkpoints CheckpointStore
	Validator   *Validator
	Log         *logger.Logger
	Options     RunOptions
}

func NewPipeline(src AuditSource, sink EventSink, store CheckpointStore, opts RunOptions, log *logger.Logger) *Pipeline {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.RoutineName == "" {
		opts.RoutineName = DefaultRoutineName
	}
	return &Pipeline{
		Source:      src,
		Sink:        sink,
		Checkpoints: store,
		Validator:   NewValidator(),
		Log:         log,
		Options:     opts,
	}
}

// Run performs one extract-forward-checkpoint cycle. The checkpoint is
// written only after every record of the batch was accepted by the sink.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	var res Result
	startTime := time.Now()

	res.StartCursor = p.startCursor()
	p.Log.Infof("Continue from event %d", res.StartCursor)

	if err := p.Source.EnsureRoutineInstalled(ctx, p.Options.RoutineName); err != nil {
		p.Log.Errorf("Bootstrap failed: %v", err)
		return res, err
	}

	stream, err := p.Sink.ResolveStream(ctx, p.Options.StreamName)
	if err != nil {
		p.Log.Errorf("Resolving stream %s failed: %v", p.Options.StreamName, err)
		return res, err
	}
	ch, err := stream.OpenChannel(ctx, p.Options.Metadata)
	if err != nil {
		p.Log.Errorf("Opening channel to %s failed: %v", stream.Name(), err)
		return res, err
	}
	defer ch.Close()

	batch, err := p.Source.Extract(ctx, p.Options.EntityID, res.StartCursor, p.Options.PageSize)
	if err != nil {
		p.Log.Errorf("Extraction failed at cursor %d: %v", res.StartCursor, err)
		return res, err
	}
	res.Extracted = len(batch)

	if len(batch) == 0 {
		p.Log.Infof("No new events for entity %d", p.Options.EntityID)
		return res, nil
	}

	replays, err := p.Validator.ValidateBatch(batch, res.StartCursor)
	if err != nil {
		p.Log.Errorf("Rejected batch: %v", err)
		return res, err
	}
	if replays > 0 {
		p.Log.Warnf("%d of %d events are at or below cursor %d and will be sent again", replays, len(batch), res.StartCursor)
	}

	forwarder := NewForwarder(ch, p.Log, p.Options.DryRun)
	newCursor, err := forwarder.Forward(ctx, batch)
	if err != nil {
		p.Log.Errorf("Forwarding failed, checkpoint left at %d: %v", res.StartCursor, err)
		return res, err
	}
	if err := ch.Close(); err != nil {
		p.Log.Errorf("Closing channel failed, checkpoint left at %d: %v", res.StartCursor, err)
		return res, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	res.Forwarded = len(batch)
	res.NewCursor = newCursor

	p.Log.Infof("%d events was added to index[%s] in %s", len(batch), stream.Name(), time.Since(startTime).Round(time.Millisecond))

	if p.Options.DryRun {
		p.Log.Infof("[DRY RUN] Would save checkpoint %d", newCursor)
		return res, nil
	}
	if newCursor == 0 {
		p.Log.Warnf("Batch carried no cursor; checkpoint not advanced")
		return res, nil
	}

	if err := p.Checkpoints.Save(newCursor); err != nil {
		p.Log.Warnf("Can't write checkpoint, next run will resend from %d: %v", res.StartCursor, fmt.Errorf("%w: %w", ErrCheckpointIO, err))
		return res, nil
	}
	res.Saved = true
	p.Log.Debugf("Checkpoint advanced to %d", newCursor)
	return res, nil
}

func (p *Pipeline) startCursor() models.Cursor {
	if p.Options.Override != nil {
		return *p.Options.Override
	}

	c, err := p.Checkpoints.Load()
	switch {
	case err == nil:
		return c
	case errors.Is(err, checkpoint.ErrNotFound):
		p.Log.Warnf("No checkpoint yet, starting from 0")
	case errors.Is(err, checkpoint.ErrCorrupt):
		p.Log.Warnf("Can't read checkpoint, starting from 0: %v", err)
	default:
		p.Log.Warnf("Can't read checkpoint, starting from 0: %v", fmt.Errorf("%w: %w", ErrCheckpointIO, err))
	}
	return 0
}
