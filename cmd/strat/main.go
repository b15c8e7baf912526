// Package main implements the strat CLI: match start, calibration, and
// single manual operations against the motion board or the built-in
// simulator.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"holonomic-strategy/strat"
)

var (
	configPath string
	colorName  string
	useSim     bool
	logLevel   string

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "strat",
	Short:   "Strategy runner for the competition robot",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (STRAT_* env vars override)")
	rootCmd.PersistentFlags().StringVar(&colorName, "color", "red", "starting side: red or blue")
	rootCmd.PersistentFlags().BoolVar(&useSim, "sim", false, "drive the built-in simulator instead of the motion board")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zap log level")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(giftCmd)
}

// setup builds the shared pieces every subcommand needs. The returned
// cleanup closes the bridge and telemetry endpoint.
func setup() (*strat.Strategy, *zap.Logger, strat.Color, func(), error) {
	cfg, err := strat.LoadConfig(configPath)
	if err != nil {
		return nil, nil, 0, nil, err
	}
	color, err := strat.ParseColor(colorName)
	if err != nil {
		return nil, nil, 0, nil, err
	}
	logger, err := strat.NewLogger(logLevel)
	if err != nil {
		return nil, nil, 0, nil, err
	}

	var motion strat.MotionController
	var bridge *strat.Bridge
	if useSim {
		motion = strat.NewSim(nil)
	} else {
		bridge, err = strat.DialBridge(cfg.Bridge)
		if err != nil {
			return nil, nil, 0, nil, fmt.Errorf("connect motion board: %w", err)
		}
		motion = bridge
	}

	tel := strat.NewTelemetry()
	if cfg.Telemetry.Enabled {
		tel.Serve(cfg.Telemetry.Addr, logger)
	}

	cleanup := func() {
		_ = tel.Close()
		if bridge != nil {
			_ = bridge.Close()
		}
		_ = logger.Sync()
	}
	return strat.NewStrategy(cfg, motion, logger, tel), logger, color, cleanup, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a match and block until it finishes",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, logger, color, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := s.Begin(ctx, color); err != nil {
			logger.Error("match aborted", zap.Error(err))
			return err
		}
		return nil
	},
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Re-seed the odometry with the start pose without starting a match",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, color, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		s.Calibrate(color)
		return nil
	},
}

var giftCmd = &cobra.Command{
	Use:   "gift N",
	Short: "Run a single manual gift attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("gift index: %w", err)
		}

		s, _, color, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		s.Calibrate(color)
		return s.DoGift(n)
	},
}
