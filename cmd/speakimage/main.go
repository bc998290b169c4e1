package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/alkime/speakimage/internal/audio"
	"github.com/alkime/speakimage/internal/config"
	"github.com/alkime/speakimage/internal/keyring"
	"github.com/alkime/speakimage/internal/logger"
	"github.com/alkime/speakimage/internal/server"
	"github.com/alkime/speakimage/internal/session"
	"github.com/alkime/speakimage/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/malgo"
)

// CLI defines the speakimage command structure.
type CLI struct {
	// Default command (runs when no subcommand given)
	Serve ServeCmd `cmd:"" default:"1" help:"Serve the browser control panel"`

	// Subcommands
	Record  RecordCmd  `cmd:"" help:"Record from the local microphone in a terminal UI"`
	Devices DevicesCmd `cmd:"" help:"List available audio devices"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

// ServeCmd runs the HTTP server.
type ServeCmd struct{}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup structured logging
	log := logger.SetupLogger(cfg)

	apiKey := keyring.Resolve(keyring.OpenAI, cfg.OpenAIAPIKey)
	if apiKey == "" {
		return missingKeyError()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(ctx, cfg, apiKey, log)
	if err != nil {
		return err
	}

	log.Info("Starting speakimage server",
		"env", cfg.Env,
		"port", cfg.Port,
		"image_dir", cfg.ImageDir,
		"image_model", cfg.ImageModel,
		"s3_mirror", cfg.S3.Endpoint != "",
	)

	if err := server.Run(ctx, server.New(cfg, log, deps)); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// RecordCmd runs the terminal front-end against the local microphone.
type RecordCmd struct {
	LogFile string `flag:"" optional:"" help:"Write logs to this file (the terminal is owned by the UI)"`
}

// Run executes the record command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *RecordCmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, closeLog, err := recordLogger(c.LogFile, logger.Level(cfg))
	if err != nil {
		return err
	}
	defer closeLog()

	apiKey := keyring.Resolve(keyring.OpenAI, cfg.OpenAIAPIKey)
	if apiKey == "" {
		return missingKeyError()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildDeps(ctx, cfg, apiKey, log)
	if err != nil {
		return err
	}

	dataC := make(chan []byte, 64)

	dev := audio.NewDevice(&audio.DeviceConfig{
		Format:          malgo.FormatS16,
		SampleRate:      cfg.SampleRate,
		CaptureChannels: audio.DefaultChannels,
	})

	if err := dev.CaptureInto(ctx, dataC); err != nil {
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	// always dealloc when we're done
	defer func() {
		dev.Dealloc(ctx)
		log.Debug("Audio device deallocated")
	}()

	capture, err := audio.NewCapture(dataC, cfg.MaxAudioBytes-audio.WAVHeaderSize)
	if err != nil {
		return fmt.Errorf("failed to create audio capture: %w", err)
	}

	if err := capture.Start(ctx); err != nil {
		return fmt.Errorf("failed to start audio capture: %w", err)
	}

	ctrl := session.NewController(deps.Transcriber, deps.Illustrator, deps.Store, nil, log)

	model := tui.New(ctrl, tui.Controls{
		Mic:       audio.NewMicSwitch(ctx, dev, log),
		Size:      capture,
		Levels:    capture.Levels(),
		Recording: wavRecording{capture: capture, sampleRate: cfg.SampleRate},
	}, tui.Config{
		Context: ctx,
		Cancel:  cancel,
	})

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	cancel()
	capture.Wait()

	if m, ok := final.(tui.Model); ok && m.State().HasImage() {
		fmt.Printf("\nlast image: %s\n", m.State().ImagePath)
	}

	fmt.Println("\nfinished. bye!")

	return nil
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	adev := audio.NewDevice(nil)
	devices, err := adev.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey   SetKeyCmd   `cmd:"" help:"Store an API key in system keychain"`
	ListKeys ListKeysCmd `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai" help:"Service name (openai)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if keyring.IsSet(apiKey) {
			fmt.Printf("%s: configured\n", apiKey.DisplayName())
		} else {
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'speakimage config set-key <service> <key>' to configure.")
	}

	return nil
}

func main() {
	// Set up text-based logger for CLI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("speakimage"),
		kong.Description("Describe a picture out loud and get it generated."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}

func missingKeyError() error {
	return errors.New("missing OpenAI API key: set OPENAI_API_KEY or run 'speakimage config set-key openai <key>'")
}
