package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/telemetry"
)

const defaultDBPath = "~/.permctl/stats.sqlite"

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Prints screen-view statistics recorded in the event store.",
		Long: `Prints how many screen-view events were recorded per permission group and
category. Events are recorded by "permctl categorize --record" and by the
server when TELEMETRY_STORE points at the same file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := dbPath(cmd)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("database file not found: %s", path)
				}
				return err
			}

			store, err := telemetry.OpenStore(path)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.Counts(context.Background())
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No screen views recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "GROUP\tCATEGORY\tEVENTS\tSCREENS\t")
			var events int
			for _, c := range counts {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t\n", c.GroupName, c.Category, c.Events, c.Screens)
				events += c.Events
			}
			fmt.Fprintf(w, "TOTAL\t\t%d\t\t\n", events)
			return w.Flush()
		},
	}
}

// dbPath resolves the --db flag, expanding a leading ~
func dbPath(cmd *cobra.Command) (string, error) {
	raw, _ := cmd.Flags().GetString("db")
	path, err := homedir.Expand(raw)
	if err != nil {
		return "", fmt.Errorf("invalid --db path %q: %w", raw, err)
	}
	return path, nil
}

func openStore(cmd *cobra.Command) (*telemetry.Store, error) {
	path, err := dbPath(cmd)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return telemetry.OpenStore(path)
}
