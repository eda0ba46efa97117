package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/services"
)

const (
	app       = "atscheck"
	envPrefix = "ATS"
)

// Actual version can be specified in build command.
var version = "unknown"

type cliConfig struct {
	Debug        bool          `mapstructure:"debug"`
	LogJSON      bool          `mapstructure:"log-json"`
	JSON         bool          `mapstructure:"json"`
	AI           bool          `mapstructure:"ai"`
	GeminiAPIKey string        `mapstructure:"gemini-api-key"`
	GeminiModel  string        `mapstructure:"gemini-model"`
	MinInterval  time.Duration `mapstructure:"ai-min-interval"`
	MaxRetries   int           `mapstructure:"ai-max-retries"`
	MaxFileSize  int64         `mapstructure:"max-file-size"`
	FetchTimeout time.Duration `mapstructure:"fetch-timeout"`
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(viper.New())
}

// newRootCmdFor builds the command tree with flags and ATS_ environment
// variables bound to v.
func newRootCmdFor(v *viper.Viper) *cobra.Command {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           app,
		Short:         "atscheck scores resumes the way applicant tracking systems read them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.BoolP("debug", "d", false, "verbose/debug output")
	flags.Bool("log-json", false, "json format for logging")
	flags.Bool("json", false, "print results as JSON")
	flags.Bool("ai", false, "augment results with Gemini (needs ATS_GEMINI_API_KEY)")
	flags.String("gemini-api-key", "", "Gemini API key")
	flags.String("gemini-model", "gemini-2.5-flash", "Gemini model")
	flags.Duration("ai-min-interval", time.Second, "minimum spacing between AI calls")
	flags.Int("ai-max-retries", 3, "attempts per AI request")
	flags.Int64("max-file-size", services.DefaultMaxFileSize, "largest accepted resume in bytes")
	flags.Duration("fetch-timeout", 15*time.Second, "timeout for fetching a job posting URL")

	for _, name := range []string{
		"debug", "log-json", "json", "ai", "gemini-api-key", "gemini-model",
		"ai-min-interval", "ai-max-retries", "max-file-size", "fetch-timeout",
	} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	_ = v.BindEnv("gemini-api-key", "ATS_GEMINI_API_KEY", "GEMINI_API_KEY")

	root.AddCommand(
		newAnalyzeCmd(v),
		newMatchCmd(v),
		newBatchCmd(v),
		newVersionCmd(),
	)
	return root
}

func loadConfig(v *viper.Viper) (*cliConfig, error) {
	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read configuration")
	}
	return &cfg, nil
}

// runner holds what every command needs once flags are resolved.
type runner struct {
	cfg       *cliConfig
	extractor services.DocumentExtractor
	fetcher   services.JobFetcher
	analyzer  services.AnalyzerService
	log       *zap.Logger
}

func newRunner(ctx context.Context, v *viper.Viper) (*runner, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()
	if cfg.Debug {
		log, err = logger.New(cfg.LogJSON, true)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build logger")
		}
	}

	var augmenter services.Augmenter
	if cfg.AI {
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("--ai needs a Gemini API key (set ATS_GEMINI_API_KEY)")
		}
		gemini, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "", log)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize Gemini")
		}
		augmenter = services.NewAugmenter(gemini, nil, services.AugmenterConfig{
			MinInterval:    cfg.MinInterval,
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: time.Second,
		}, log)
	}

	r := &runner{
		cfg:       cfg,
		extractor: services.NewDocumentExtractor(cfg.MaxFileSize),
		fetcher:   services.NewJobFetcher(cfg.FetchTimeout, log),
		log:       log,
	}
	r.analyzer = services.NewAnalyzerService(r.extractor, augmenter, r.fetcher, nil, nil, nil, log)
	return r, nil
}

// jobDescription resolves --job: an http(s) URL is fetched, anything else is
// read as a file.
func (r *runner) jobDescription(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", nil
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		text, err := r.fetcher.FetchJobDescription(ctx, source)
		if err != nil {
			return "", errors.Wrapf(err, "failed to fetch job posting %s", source)
		}
		return text, nil
	}

	raw, err := os.ReadFile(source)
	if err != nil {
		return "", errors.Wrap(err, "failed to read job description")
	}
	return string(raw), nil
}

func (r *runner) analyzeFile(ctx context.Context, path, jobDescription string) (*services.AnalysisOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read resume")
	}

	outcome, err := r.analyzer.Analyze(ctx, services.AnalyzeInput{
		Data:           data,
		FileName:       path,
		JobDescription: jobDescription,
		UseAI:          r.cfg.AI,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to analyze %s", path)
	}
	return outcome, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}
