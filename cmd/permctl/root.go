package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/permcontroller/internal/domain/permapps"
	"github.com/GriffinCanCode/permcontroller/internal/domain/permgroup"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/fixture"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/logging"
	"github.com/GriffinCanCode/permcontroller/internal/infrastructure/telemetry"
	"github.com/GriffinCanCode/permcontroller/internal/platform"
)

const defaultSDK = 34

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "permctl",
		Short: "Inspect permission group screens of a simulated device.",
		Long: `permctl loads a device fixture and prints what the permission controller
would list on a permission group screen, without starting the server.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringP("fixture", "f", "", "Device fixture file (.yaml, .yml or .toml)")
	root.PersistentFlags().Int("sdk", defaultSDK, "SDK level when the fixture does not set one")
	root.PersistentFlags().StringP("loglevel", "l", "error", "Set log level. Available: debug, info, warn, error")
	root.PersistentFlags().String("db", defaultDBPath, "Screen-view event store")

	root.AddCommand(newCategorizeCmd(), newGroupsCmd(), newConvertCmd(), newStatsCmd())
	return root
}

// session is a loaded device with its feeds and model manager
type session struct {
	device  *platform.Device
	feeds   *platform.Feeds
	manager *permapps.Manager
	store   *telemetry.Store
	logger  *logging.Logger
}

// openSession loads the fixture. With record set, screen views are also
// written to the event store named by --db.
func openSession(cmd *cobra.Command, record bool) (*session, error) {
	path, _ := cmd.Flags().GetString("fixture")
	if path == "" {
		return nil, fmt.Errorf("--fixture is required")
	}
	sdk, _ := cmd.Flags().GetInt("sdk")
	level, _ := cmd.Flags().GetString("loglevel")

	logger, err := logging.New(logging.Config{Level: level, OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, err
	}

	f, err := fixture.Load(path)
	if err != nil {
		return nil, err
	}
	device, err := f.Device(sdk, logger.Logger)
	if err != nil {
		return nil, err
	}

	var (
		sink  telemetry.Sink = telemetry.NewLogSink(logger.Logger)
		store *telemetry.Store
	)
	if record {
		if store, err = openStore(cmd); err != nil {
			return nil, err
		}
		sink = telemetry.Multi{sink, store}
	}

	feeds := platform.NewFeeds(device, logger.Logger)
	feeds.Start()
	manager := permapps.NewManager(feeds.Env(sink, logger.Logger))

	logger.Debug("Loaded device fixture",
		zap.String("path", path),
		zap.Int("sdk", device.SDK()),
		zap.Int("packages", len(device.Snapshots())),
	)
	return &session{device: device, feeds: feeds, manager: manager, store: store, logger: logger}, nil
}

func (s *session) close() {
	s.manager.Close()
	s.feeds.Stop()
	_ = s.store.Close()
	_ = s.logger.Sync()
}

func resolveGroup(name string) (string, error) {
	group, ok := permgroup.Resolve(name)
	if !ok {
		return "", fmt.Errorf("%q: %w", name, permapps.ErrUnknownGroup)
	}
	return group, nil
}
