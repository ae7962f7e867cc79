package cli

import (
	"context"
	"fmt"

	"github.com/BartekS5/zabbix-audit/internal/checkpoint"
	"github.com/BartekS5/zabbix-audit/internal/config"
	"github.com/BartekS5/zabbix-audit/internal/etl"
	"github.com/BartekS5/zabbix-audit/pkg/database"
	"github.com/BartekS5/zabbix-audit/pkg/logger"
	"github.com/BartekS5/zabbix-audit/pkg/models"
)

func runSync(ctx context.Context, cfg *config.Config, override *models.Cursor) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := logger.INFO
	if cfg.Run.Verbose {
		level = logger.DEBUG
	}
	log, err := logger.Open(cfg.Run.LogFile, level)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer log.Close()

	definition, err := config.LoadRoutineDefinition(cfg.Run.RoutineFile)
	if err != nil {
		return err
	}
	dialect, err := etl.DialectFor(cfg.Source.Driver)
	if err != nil {
		return err
	}

	if cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Run.Timeout)
		defer cancel()
	}

	driver := database.DriverPostgres
	if dialect.Name() == "sqlserver" {
		driver = database.DriverSQLServer
	}
	db, err := database.ConnectSQL(ctx, driver, cfg.SourceDSN())
	if err != nil {
		log.Errorf("%v", err)
		return fmt.Errorf("%w: %w", etl.ErrConnectivity, err)
	}
	defer db.Close()
	log.Debugf("Connected to %s source %s", dialect.Name(), cfg.Source.Host)

	source := etl.NewSQLSource(db, dialect, cfg.Run.PageSize, log)
	source.Definition = definition

	sink, closeSink, err := openSink(ctx, cfg, log)
	if err != nil {
		log.Errorf("%v", err)
		return err
	}
	defer closeSink()

	pipeline := etl.NewPipeline(source, sink, checkpoint.New(cfg.Run.CheckpointFile), etl.RunOptions{
		EntityID:    cfg.Source.EntityID,
		PageSize:    cfg.Run.PageSize,
		RoutineName: cfg.Run.RoutineName,
		StreamName:  cfg.Sink.Index,
		Metadata: models.EventMetadata{
			SourceType: cfg.Run.SourceType,
			Source:     cfg.Run.Source,
			Host:       cfg.Run.EventHost,
		},
		Override: override,
		DryRun:   cfg.Run.DryRun,
	}, log)

	_, err = pipeline.Run(ctx)
	return err
}

// openSink connects the configured sink. The returned func releases it.
func openSink(ctx context.Context, cfg *config.Config, log *logger.Logger) (etl.EventSink, func(), error) {
	switch cfg.Sink.Kind {
	case config.SinkKafka:
		sink, err := etl.NewKafkaSink(ctx, etl.KafkaOptions{
			Brokers:  cfg.KafkaBrokers(),
			Username: cfg.Sink.User,
			Password: cfg.Sink.Password,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() { sink.Close() }, nil

	case config.SinkMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI())
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", etl.ErrConnectivity, err)
		}
		sink := etl.NewMongoSink(client, cfg.Sink.Database, log)
		return sink, func() {
			sink.Close()
			if err := database.DisconnectMongo(client); err != nil {
				log.Warnf("MongoDB disconnect: %v", err)
			}
		}, nil

	default:
		sink, err := etl.NewSplunkSink(ctx, etl.SplunkOptions{
			BaseURL:  cfg.SplunkURL(),
			Username: cfg.Sink.User,
			Password: cfg.Sink.Password,
			Insecure: cfg.Sink.Insecure,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() { sink.Close() }, nil
	}
}
