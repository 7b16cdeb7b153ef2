package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/signbridge/glovepipe/pkg/audio"
	"github.com/signbridge/glovepipe/pkg/console"
	"github.com/signbridge/glovepipe/pkg/kv"
	"github.com/signbridge/glovepipe/pkg/pipeline"
	"github.com/signbridge/glovepipe/pkg/recorder"
	"github.com/signbridge/glovepipe/pkg/sensor"
	"github.com/signbridge/glovepipe/pkg/storage"
	"github.com/signbridge/glovepipe/pkg/tts"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gesture-to-speech pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)
		return run(cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cfg Config) error {
	log := slog.Default()

	store, err := storage.NewLocal(filepath.Join(cfg.DataDir, "cache"))
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}
	sessionStore, err := storage.NewLocal(filepath.Join(cfg.DataDir, "data"))
	if err != nil {
		return fmt.Errorf("open data store: %w", err)
	}

	index, err := kv.NewBadger(kv.BadgerOptions{Dir: filepath.Join(cfg.DataDir, "index")})
	if err != nil {
		return fmt.Errorf("open cache index: %w", err)
	}
	defer index.Close()

	var synth tts.Synthesizer
	if cfg.TTSEndpoint != "" {
		synth = tts.NewClient(
			cfg.TTSEndpoint,
			os.Getenv("GLOVEPIPE_TTS_APP_ID"),
			os.Getenv("GLOVEPIPE_TTS_ACCESS_KEY"),
			tts.WithVoice(cfg.TTSVoice),
		)
	} else {
		log.Warn("no tts endpoint configured, speech limited to cached files")
		synth = tts.SynthesizeFunc(func(ctx context.Context, text, locale string, w io.Writer) error {
			return tts.ErrNotConnected
		})
	}
	cache := tts.NewCache(store, index, synth)

	player := audio.NewDevice()
	defer player.Close()

	sessions := recorder.NewLogger(sessionStore)

	p, err := pipeline.New(cfg.Pipeline, pipeline.Options{
		// Sensor drivers attach through the collaborator interfaces; a
		// host build without them runs flex-less and inertia-less.
		Bus:      sensor.NopBus{},
		Recorder: sessions,
		Sessions: sessions,
		Cache:    cache,
		Link:     tts.StaticLink{},
		Player:   player,
	})
	if err != nil {
		return err
	}

	conIn, closer, err := consoleInput(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	con := console.New(conIn, os.Stdout)
	p.SetCommands(con.Commands())
	go con.Run()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("pipeline starting", "data_dir", cfg.DataDir)
	p.Run(ctx)
	log.Info("pipeline stopped")
	return nil
}

// consoleInput picks the operator console transport.
func consoleInput(cfg Config) (io.Reader, io.Closer, error) {
	if cfg.SerialPort == "" {
		return os.Stdin, nil, nil
	}
	port, err := console.Serial(cfg.SerialPort, cfg.SerialBaud)
	if err != nil {
		return nil, nil, err
	}
	return port, port, nil
}
