package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/fixture"
)

func newGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "Lists the permission groups that have a screen.",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, g := range permapps.KnownGroups() {
				fmt.Fprintln(cmd.OutOrStdout(), g)
			}
			return nil
		},
	}
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Rewrites a device fixture in another format.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("fixture")
			to, _ := cmd.Flags().GetString("to")
			if path == "" {
				return fmt.Errorf("--fixture is required")
			}

			f, err := fixture.Load(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("fixture file not found: %s", path)
				}
				return err
			}
			data, err := fixture.Encode(f, fixture.Format(strings.ToLower(to)))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().String("to", string(fixture.FormatTOML), "Target format. Available: yaml, toml")
	return cmd
}
