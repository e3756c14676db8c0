package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/shared/id"
)

type categorizeOutput struct {
	Group         string                   `json:"group"`
	SDK           int                      `json:"sdk"`
	ShowSystem    bool                     `json:"show_system"`
	HasSystemApps bool                     `json:"has_system_apps"`
	View          permapps.CategorizedView `json:"view"`
}

func newCategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Prints the categorized app list of a permission group.",
		Long: `Prints the apps a permission group screen lists, bucketed into allowed,
allowed in foreground, ask and denied. The group may be given in short form
("camera") or in full ("android.permission-group.CAMERA").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("group")
			showSystem, _ := cmd.Flags().GetBool("show-system")
			format, _ := cmd.Flags().GetString("format")
			record, _ := cmd.Flags().GetBool("record")

			group, err := resolveGroup(name)
			if err != nil {
				return err
			}

			s, err := openSession(cmd, record)
			if err != nil {
				return err
			}
			defer s.close()

			m, err := s.manager.Model(group)
			if err != nil {
				return err
			}
			m.UpdateShowSystem(showSystem)

			view, ok := m.Categorized().Get()
			if !ok {
				return fmt.Errorf("%s: no package data", group)
			}
			hasSystem, _ := m.HasSystemApps().Get()

			if record {
				n, err := m.LogScreenViewed(context.Background(), id.NewSessionID(), id.NewViewID())
				if err != nil {
					return err
				}
				s.logger.Debug("Recorded screen view", zap.String("group", group), zap.Int("events", n))
			}

			out := categorizeOutput{
				Group:         group,
				SDK:           s.device.SDK(),
				ShowSystem:    showSystem,
				HasSystemApps: hasSystem,
				View:          view,
			}

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			case "table":
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tUSER\tPACKAGE\t")
				for _, c := range permgroup.Categories {
					for _, key := range view.Bucket(c) {
						fmt.Fprintf(w, "%s\t%d\t%s\t\n", c, key.User, key.PackageName)
					}
				}
				return w.Flush()
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringP("group", "g", "", "Permission group")
	cmd.Flags().Bool("show-system", false, "Include system apps")
	cmd.Flags().String("format", "json", "Output format. Available: json, table")
	cmd.Flags().Bool("record", false, "Record the screen view in the event store (see --db)")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}
