// Package cli implements the volsa command tree.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tamzrod/volsa/internal/config"
	"github.com/tamzrod/volsa/internal/device"
	"github.com/tamzrod/volsa/internal/midi"
	"github.com/tamzrod/volsa/internal/proto"
)

var (
	// Global flags
	cfgFile    string
	cooldownMs int
	verbosity  int

	// Shared state set during PersistentPreRun
	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "volsa",
	Short:         "Manage samples on a Korg Volca Sample 2 over MIDI SysEx",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cmd.Flags().Changed("cooldown") {
			cfg.ChunkCooldownMs = cooldownMs
		}

		level := zerolog.InfoLevel
		switch {
		case verbosity == 1:
			level = zerolog.DebugLevel
		case verbosity > 1:
			level = zerolog.TraceLevel
		}
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		logger = zerolog.New(output).Level(level).With().Timestamp().Logger()

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().IntVar(&cooldownMs, "cooldown", config.Default().ChunkCooldownMs,
		"pause between outgoing SysEx chunks in milliseconds")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase log verbosity (-v debug, -vv trace)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDevice builds the MIDI transport and performs the handshake. The
// returned closer releases the transport.
func openDevice() (*device.Device, func(), error) {
	tr, err := midi.New()
	if err != nil {
		return nil, nil, err
	}
	dev, err := device.New(tr, device.Config{
		DeviceName:    cfg.DeviceName,
		ChunkCooldown: cfg.ChunkCooldown(),
		Logger:        &logger,
	})
	if err != nil {
		tr.Close()
		return nil, nil, err
	}
	if err := dev.Connect(); err != nil {
		tr.Close()
		return nil, nil, err
	}
	return dev, func() { dev.Close() }, nil
}

// parseSlot parses and range-checks a slot argument.
func parseSlot(arg string) (byte, error) {
	no, err := strconv.Atoi(arg)
	if err != nil || no < 0 || no >= proto.NumSlots {
		return 0, fmt.Errorf("sample slot must be a number in [0, %d]: %q",
			proto.NumSlots-1, arg)
	}
	return byte(no), nil
}

// confirm asks a yes/no question on the terminal and loops until it gets
// an answer.
func confirm(question string) (bool, error) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s [Y/N]: ", question)
		if !scanner.Scan() {
			return false, scanner.Err()
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
	}
}
