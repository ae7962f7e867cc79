package cli

import (
	"fmt"

	"github.com/BartekS5/zabbix-audit/internal/config"
	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/spf13/cobra"
)

func NewSyncCmd() *cobra.Command {
	cfg := config.FromEnv()
	var resume int64

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Forward the next page of history records and advance the checkpoint",
		RunE: func(c *cobra.Command, args []string) error {
			var override *models.Cursor
			if c.Flags().Changed("continue") {
				if resume < 0 {
					return fmt.Errorf("--continue must not be negative, got %d", resume)
				}
				v := models.Cursor(resume)
				override = &v
			}
			return runSync(c.Context(), cfg, override)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Source.Driver, "zdriver", cfg.Source.Driver, "Zabbix DB engine: postgres or sqlserver")
	f.StringVar(&cfg.Source.Host, "zhost", cfg.Source.Host, "Zabbix DB host")
	f.IntVar(&cfg.Source.Port, "zport", cfg.Source.Port, "Zabbix DB port (driver default when 0)")
	f.StringVar(&cfg.Source.Database, "zdb", cfg.Source.Database, "Zabbix DB name")
	f.StringVar(&cfg.Source.User, "zuser", cfg.Source.User, "Zabbix DB user")
	f.StringVar(&cfg.Source.Password, "zpass", cfg.Source.Password, "Zabbix DB password")
	f.StringVar(&cfg.Source.SSLMode, "zsslmode", cfg.Source.SSLMode, "PostgreSQL sslmode")
	f.Int64Var(&cfg.Source.EntityID, "zhostid", cfg.Source.EntityID, "Zabbix host id (from inventory)")

	f.StringVar(&cfg.Sink.Kind, "sink", cfg.Sink.Kind, "Event sink: splunk, kafka or mongo")
	f.StringVar(&cfg.Sink.Host, "shost", cfg.Sink.Host, "Sink host (comma separated brokers for kafka)")
	f.IntVar(&cfg.Sink.Port, "sport", cfg.Sink.Port, "Sink port (8089 splunk, 9092 kafka, 27017 mongo when 0)")
	f.StringVar(&cfg.Sink.Scheme, "sscheme", cfg.Sink.Scheme, "Splunk management scheme")
	f.StringVar(&cfg.Sink.Index, "sindex", cfg.Sink.Index, "Index name (topic for kafka, collection for mongo)")
	f.StringVar(&cfg.Sink.User, "suser", cfg.Sink.User, "Sink user")
	f.StringVar(&cfg.Sink.Password, "spass", cfg.Sink.Password, "Sink password")
	f.StringVar(&cfg.Sink.Database, "sdb", cfg.Sink.Database, "MongoDB database holding the collection")
	f.BoolVar(&cfg.Sink.Insecure, "insecure", cfg.Sink.Insecure, "Skip TLS verification of the Splunk certificate")

	f.StringVar(&cfg.Run.EventHost, "host", cfg.Run.EventHost, "Name of host shown on forwarded events")
	f.StringVar(&cfg.Run.SourceType, "source-type", cfg.Run.SourceType, "Sourcetype of forwarded events")
	f.StringVar(&cfg.Run.Source, "source", cfg.Run.Source, "Source of forwarded events")
	f.Int64Var(&resume, "continue", 0, "Cursor to continue from, overriding the checkpoint for this run")
	f.StringVar(&cfg.Run.CheckpointFile, "checkpoint-file", cfg.Run.CheckpointFile, "File holding the last delivered cursor")
	f.IntVarP(&cfg.Run.PageSize, "page-size", "b", cfg.Run.PageSize, "Records forwarded per run")
	f.StringVar(&cfg.Run.RoutineName, "routine-name", cfg.Run.RoutineName, "Name of the extraction routine")
	f.StringVar(&cfg.Run.RoutineFile, "routine-file", cfg.Run.RoutineFile, "File with a custom routine definition")
	f.DurationVar(&cfg.Run.Timeout, "timeout", cfg.Run.Timeout, "Deadline for the whole run")
	f.StringVar(&cfg.Run.LogFile, "log-file", cfg.Run.LogFile, "Also append logs to this file")
	f.BoolVar(&cfg.Run.DryRun, "dry-run", false, "Extract and log events without sending or checkpointing")
	f.BoolVarP(&cfg.Run.Verbose, "verbose", "v", false, "Debug logging")

	return cmd
}
