package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// config is the resolved CLI configuration. Precedence: flags, then
// TMXIMPORT_* environment variables (optionally from .env), then the config
// file, then defaults.
type config struct {
	Root     string
	Out      string
	Format   string
	Workers  int
	CacheMB  int
	Slice    bool
	AtlasOut string
	Strict   bool

	LogLevel  string
	LogFile   string
	LogJSON   bool
	LogMaxMB  int
	LogMaxAge int
}

const envPrefix = "TMXIMPORT"

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tmximport", pflag.ContinueOnError)
	fs.String("config", "", "config file (default ./tmximport.yaml if present)")
	fs.String("root", "", "directory map paths are relative to")
	fs.StringP("out", "o", "", "output directory; empty or - writes to stdout")
	fs.StringP("format", "f", "json", "output format: json or spew")
	fs.IntP("workers", "j", 0, "layers and chunks decoded in parallel (0 = GOMAXPROCS)")
	fs.Int("cache-mb", 64, "document cache size in MiB")
	fs.Bool("slice", false, "load tileset images and slice them into an ebiten atlas")
	fs.String("atlas-out", "", "write the sliced atlas as TexturePacker JSON (needs --slice)")
	fs.Bool("strict", false, "exit non-zero when any diagnostic has error severity")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-file", "", "also write logs to this file, rotated")
	fs.Bool("log-json", false, "log as JSON")
	fs.Int("log-max-mb", 10, "rotate the log file after this many MiB")
	fs.Int("log-max-age", 28, "days to keep rotated log files")
	return fs
}

// loadConfig parses args and merges every configuration source. It returns
// the remaining positional arguments (the map paths).
func loadConfig(args []string, usage io.Writer) (*config, []string, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	fs := newFlagSet()
	fs.SetOutput(usage)
	fs.Usage = func() {
		fmt.Fprintln(usage, "usage: tmximport [flags] map.tmx...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("tmximport")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	cfg := &config{
		Root:      v.GetString("root"),
		Out:       v.GetString("out"),
		Format:    strings.ToLower(v.GetString("format")),
		Workers:   v.GetInt("workers"),
		CacheMB:   v.GetInt("cache-mb"),
		Slice:     v.GetBool("slice"),
		AtlasOut:  v.GetString("atlas-out"),
		Strict:    v.GetBool("strict"),
		LogLevel:  v.GetString("log-level"),
		LogFile:   v.GetString("log-file"),
		LogJSON:   v.GetBool("log-json"),
		LogMaxMB:  v.GetInt("log-max-mb"),
		LogMaxAge: v.GetInt("log-max-age"),
	}
	if cfg.Format != "json" && cfg.Format != "spew" {
		return nil, nil, fmt.Errorf("unknown format %q", cfg.Format)
	}
	if cfg.AtlasOut != "" && !cfg.Slice {
		return nil, nil, errors.New("--atlas-out needs --slice")
	}
	return cfg, fs.Args(), nil
}

// newLogger builds the CLI logger. The returned closer flushes the rotated
// log file, if any.
func newLogger(cfg *config, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	log.SetOutput(stderr)
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxMB,
			MaxAge:     cfg.LogMaxAge,
			MaxBackups: 3,
		}
		log.SetOutput(io.MultiWriter(stderr, rotator))
		closer = rotator
	}
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
