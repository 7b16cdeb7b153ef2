// Package commands implements the glovepipe CLI.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/natefinch/lumberjack"
	"github.com/spf13/cobra"

	"github.com/signbridge/glovepipe/pkg/pipeline"
)

var (
	flagConfig  string
	flagVerbose bool
)

// Config is the on-disk configuration for the glovepipe daemon.
type Config struct {
	// DataDir is the root for the speech cache, recorder sessions, and the
	// cache index.
	DataDir string `yaml:"data_dir"`

	// LogFile, when set, routes logs to a rotating file instead of stderr.
	LogFile string `yaml:"log_file"`

	// SerialPort, when set, attaches the operator console to a serial
	// port instead of stdin (e.g. /dev/ttyUSB0).
	SerialPort string `yaml:"serial_port"`
	SerialBaud int    `yaml:"serial_baud"`

	// TTSEndpoint is the websocket speech-synthesis endpoint. Credentials
	// come from the environment: GLOVEPIPE_TTS_APP_ID and
	// GLOVEPIPE_TTS_ACCESS_KEY.
	TTSEndpoint string `yaml:"tts_endpoint"`
	TTSVoice    string `yaml:"tts_voice"`

	// Pipeline holds the realtime tunables.
	Pipeline pipeline.Config `yaml:"pipeline"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:    filepath.Join(home, ".glovepipe"),
		SerialBaud: 115200,
		TTSVoice:   "en_female_amanda",
		Pipeline:   pipeline.Default(),
	}
}

// loadConfig reads the YAML config file, falling back to defaults when the
// file does not exist. A .env file beside the config is honored for secrets.
func loadConfig() (Config, error) {
	cfg := defaultConfig()

	path := flagConfig
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".glovepipe", "config.yaml")
	}

	// Best effort; missing .env is fine.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// setupLogging installs the process-wide slog handler.
func setupLogging(cfg Config) {
	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
		}
	}
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

var rootCmd = &cobra.Command{
	Use:           "glovepipe",
	Short:         "Sign-language glove runtime: gestures in, spoken words out",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}
