package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/BartekS5/zabbix-audit/internal/checkpoint"
	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/spf13/cobra"
)

func NewCheckpointCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or reset the stored cursor",
	}
	cmd.PersistentFlags().StringVar(&path, "checkpoint-file", checkpoint.DefaultPath, "File holding the last delivered cursor")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored cursor",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			store := checkpoint.New(path)
			cur, err := store.Load()
			switch {
			case err == nil:
				fmt.Fprintln(c.OutOrStdout(), cur)
			case errors.Is(err, checkpoint.ErrNotFound):
				fmt.Fprintf(c.OutOrStdout(), "0 (no checkpoint at %s)\n", store.Path())
			case errors.Is(err, checkpoint.ErrCorrupt):
				fmt.Fprintf(c.OutOrStdout(), "0 (%v)\n", err)
			default:
				return err
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <cursor>",
		Short: "Overwrite the stored cursor",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || n < 0 {
				return fmt.Errorf("cursor must be a non-negative integer, got %q", args[0])
			}
			store := checkpoint.New(path)
			if err := store.Save(models.Cursor(n)); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "checkpoint set to %d in %s\n", n, store.Path())
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
