// Package cli wires configuration, backends, the download service and the
// interactive driver behind a cobra command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ytget/yt-cli/internal/config"
	"github.com/ytget/yt-cli/internal/download"
	"github.com/ytget/yt-cli/internal/logging"
	"github.com/ytget/yt-cli/internal/model"
	"github.com/ytget/yt-cli/internal/mux"
	"github.com/ytget/yt-cli/internal/platform"
	"github.com/ytget/yt-cli/internal/ui"
)

// AppName is the command name
const AppName = "yt-cli"

// Flag names
const (
	FlagConfig         = "config"
	FlagDir            = "dir"
	FlagBackend        = "backend"
	FlagLang           = "lang"
	FlagSort           = "sort"
	FlagRefetchOnError = "refetch-on-error"
	FlagLogLevel       = "log-level"
	FlagTimeout        = "timeout"
	FlagInstallYTDLP   = "install-ytdlp"
	FlagSaveConfig     = "save-config"
	FlagReveal         = "reveal"
	FlagOutputTemplate = "output-template"
)

type options struct {
	configPath     string
	dir            string
	backend        string
	lang           string
	sort           string
	refetchOnError bool
	logLevel       string
	timeout        time.Duration
	installYTDLP   bool
	saveConfig     bool
	reveal         bool
	outputTemplate string
}

// Execute runs the root command and returns the process exit code.
// SIGINT and SIGTERM cancel the running operation.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand(version).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// NewRootCommand builds the yt-cli command
func NewRootCommand(version string) *cobra.Command {
	cmd, _ := newRootCommand(version)
	return cmd
}

func newRootCommand(version string) (*cobra.Command, *options) {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Interactively pick a quality and download a YouTube video",
		Long: `yt-cli asks for a video link, lists the available video formats and
downloads the chosen one merged with the best m4a audio track.

Settings are read from a YAML file; flags override it for one run.`,
		Example:       AppName + " --dir ~/Videos --sort numeric",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, FlagConfig, "", "config file (default "+defaultConfigHint()+")")
	flags.StringVarP(&opts.dir, FlagDir, "d", "", "download directory (default: current directory)")
	flags.StringVar(&opts.backend, FlagBackend, "", "extraction backend: ytdlp or native")
	flags.StringVar(&opts.lang, FlagLang, "", "interface language: en, ru, pt or system")
	flags.StringVar(&opts.sort, FlagSort, "", "format order: lexical or numeric")
	flags.BoolVar(&opts.refetchOnError, FlagRefetchOnError, false, "list formats again after a failed download")
	flags.StringVar(&opts.logLevel, FlagLogLevel, "", "log level: panic, fatal, error, warn, info, debug, trace")
	flags.DurationVar(&opts.timeout, FlagTimeout, 0, "timeout per listing or download, 0 for none")
	flags.BoolVar(&opts.installYTDLP, FlagInstallYTDLP, false, "download yt-dlp if it is not installed")
	flags.BoolVar(&opts.saveConfig, FlagSaveConfig, false, "write the effective settings back to the config file")
	flags.BoolVar(&opts.reveal, FlagReveal, false, "open the containing folder after each download")
	flags.StringVarP(&opts.outputTemplate, FlagOutputTemplate, "o", "", "output file name template, e.g. \"%(title)s.%(ext)s\"")

	return cmd, opts
}

func defaultConfigHint() string {
	path, err := config.DefaultPath()
	if err != nil {
		return "$XDG_CONFIG_HOME/" + config.AppDirName + "/" + config.ConfigFileName
	}
	return path
}

func run(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()

	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}

	logger := logging.New(cmd.ErrOrStderr(), settings.GetLogLevel())
	log := logger.WithField("component", "cli")

	if opts.saveConfig {
		if err := settings.Save(); err != nil {
			return err
		}
		log.WithField("path", settings.Path()).Info("Settings saved")
	}

	if opts.installYTDLP {
		if err := platform.InstallYTDLP(ctx, logger); err != nil {
			return err
		}
	}

	backend, err := newBackend(settings, logger)
	if err != nil {
		return err
	}

	service := download.NewService(backend, download.Options{
		SortOrder:      settings.GetSortOrder(),
		RefetchOnError: settings.GetRefetchOnError(),
		AudioExt:       settings.GetAudioFormat(),
		MergeFormat:    settings.GetMergeOutputFormat(),
		Template:       settings.GetFilenameTemplate(),
		Timeout:        settings.GetTimeout(),
	}, logger)

	loc := ui.NewLocalization()
	if err := loc.SetLanguage(settings.GetLanguage()); err != nil {
		return err
	}

	outputDir := settings.GetDownloadDirectory()
	log.WithFields(logrus.Fields{
		"backend": backend.Name(),
		"dir":     outputDir,
		"lang":    loc.GetCurrentLanguage(),
		"config":  settings.Path(),
	}).Debug("Starting")

	out := cmd.OutOrStdout()
	driver := ui.NewDriver(cmd.InOrStdin(), out, service, outputDir, loc, logger)
	driver.SetShowProgress(logging.IsTerminalWriter(out))
	driver.SetRevealOnComplete(settings.GetAutoRevealOnComplete())

	if err := driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadSettings reads the config file and applies the flags that were set
func loadSettings(cmd *cobra.Command, opts *options) (*config.Settings, error) {
	path := opts.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed(FlagDir) {
		settings.SetDownloadDirectory(opts.dir)
	}
	if flags.Changed(FlagBackend) {
		if err := settings.SetBackend(opts.backend); err != nil {
			return nil, fmt.Errorf("--%s: %w", FlagBackend, err)
		}
	}
	if flags.Changed(FlagLang) {
		if err := settings.SetLanguage(opts.lang); err != nil {
			return nil, fmt.Errorf("--%s: %w", FlagLang, err)
		}
	}
	if flags.Changed(FlagSort) {
		if err := settings.SetSortOrder(opts.sort); err != nil {
			return nil, fmt.Errorf("--%s: %w", FlagSort, err)
		}
	}
	if flags.Changed(FlagRefetchOnError) {
		settings.SetRefetchOnError(opts.refetchOnError)
	}
	if flags.Changed(FlagLogLevel) {
		if err := settings.SetLogLevel(opts.logLevel); err != nil {
			return nil, fmt.Errorf("--%s: %w", FlagLogLevel, err)
		}
	}
	if flags.Changed(FlagTimeout) {
		settings.SetTimeout(opts.timeout)
	}
	if flags.Changed(FlagReveal) {
		settings.SetAutoRevealOnComplete(opts.reveal)
	}
	if flags.Changed(FlagOutputTemplate) {
		settings.SetFilenameTemplate(opts.outputTemplate)
	}
	return settings, nil
}

// newBackend creates the configured extraction backend
func newBackend(settings *config.Settings, logger *logrus.Logger) (download.Backend, error) {
	switch settings.GetBackend() {
	case platform.BackendYTDLP:
		return platform.NewYTDLPBackend(settings.GetYTDLPPath(), logger), nil
	case platform.BackendNative:
		platform.RouteLibraryLogs(logger)
		merger := mux.NewService(settings.GetFFmpegPath(), logger)
		merger.SetUpdateCallback(func(task *model.MergeTask) {
			logger.WithFields(logrus.Fields{
				"component": "mux",
				"task":      task.ID,
				"status":    task.Status,
				"percent":   task.Percent,
			}).Trace("Merge progress")
		})
		if !merger.Available() {
			logger.WithField("component", "cli").
				Warn("ffmpeg not found, the native backend will download single-file formats only")
		}
		return platform.NewNativeBackend(settings.GetTimeout(), merger, logger), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, settings.GetBackend())
}
