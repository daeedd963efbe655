package platform

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-cli/internal/model"
)

// Backend names
const (
	BackendYTDLP  = "ytdlp"
	BackendNative = "native"
)

// ProgressFrequency is how often yt-dlp progress is reported
const ProgressFrequency = 500 * time.Millisecond

// YTDLPBackend drives the yt-dlp executable through go-ytdlp
type YTDLPBackend struct {
	executable string
	log        logrus.FieldLogger
}

// NewYTDLPBackend creates a backend. An empty executable lets go-ytdlp
// resolve yt-dlp from its cache or PATH.
func NewYTDLPBackend(executable string, log logrus.FieldLogger) *YTDLPBackend {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &YTDLPBackend{
		executable: executable,
		log:        log.WithField("component", BackendYTDLP),
	}
}

// Name returns the backend identifier
func (b *YTDLPBackend) Name() string {
	return BackendYTDLP
}

// InstallYTDLP downloads a yt-dlp build into go-ytdlp's cache when none is
// available yet
func InstallYTDLP(ctx context.Context, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("install yt-dlp: %w", err)
	}
	log.WithFields(logrus.Fields{
		"component":  BackendYTDLP,
		"executable": resolved.Executable,
		"version":    resolved.Version,
	}).Info("yt-dlp ready")
	return nil
}

// command returns a quiet yt-dlp command with warnings suppressed
func (b *YTDLPBackend) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		NoPlaylist()
	if b.executable != "" {
		cmd.SetExecutable(b.executable)
	}
	return cmd
}

// ExtractInfo queries metadata only, without fetching any media
func (b *YTDLPBackend) ExtractInfo(ctx context.Context, url string) (*model.VideoInfo, error) {
	cmd := b.command().
		FlatPlaylist().
		SkipDownload().
		DumpSingleJSON()

	b.log.WithField("url", url).Debug("extracting formats")
	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp extract: %w", err)
	}

	info, err := ParseInfoJSON([]byte(result.Stdout))
	if err != nil {
		return nil, err
	}
	b.log.WithFields(logrus.Fields{"id": info.ID, "formats": len(info.Formats)}).Debug("formats extracted")
	return info, nil
}

// Fetch downloads the selection and returns the final file path when yt-dlp
// reports it
func (b *YTDLPBackend) Fetch(ctx context.Context, req model.FetchRequest, progress func(model.Progress)) (string, error) {
	template := req.Template
	if template == "" {
		template = model.DefaultTitleTemplate
	}
	mergeFormat := req.MergeFormat
	if mergeFormat == "" {
		mergeFormat = model.DefaultMergeFormat
	}

	cmd := b.command().
		Format(req.Selector.String()).
		Output(filepath.Join(req.OutputDir, template)).
		MergeOutputFormat(mergeFormat).
		PrintJSON()

	if progress != nil {
		cmd.ProgressFunc(ProgressFrequency, func(update ytdlp.ProgressUpdate) {
			p := model.Progress{
				DownloadedBytes: int64(update.DownloadedBytes),
				TotalBytes:      int64(update.TotalBytes),
			}
			if update.Info != nil && update.Info.Title != nil {
				p.Title = *update.Info.Title
			}
			progress(p)
		})
	}

	b.log.WithFields(logrus.Fields{"url": req.URL, "format": req.Selector.String()}).Debug("starting download")
	result, err := cmd.Run(ctx, req.URL)
	if err != nil {
		return "", fmt.Errorf("yt-dlp download: %w", err)
	}

	return b.outputPath(result, mergeFormat), nil
}

// outputPath extracts the written file from the post-download info dict
func (b *YTDLPBackend) outputPath(result *ytdlp.Result, mergeFormat string) string {
	if result == nil {
		return ""
	}

	var path string
	if infos, err := result.GetExtractedInfo(); err == nil && len(infos) > 0 && infos[0].Filename != nil {
		path = *infos[0].Filename
	} else {
		path = FilenameFromInfoJSON([]byte(result.Stdout))
	}
	if path == "" {
		return ""
	}

	// the reported name can predate the merge step
	merged := trimExt(path) + "." + mergeFormat
	if found, err := FindFileWithFallback(merged); err == nil {
		return found
	}
	if found, err := FindFileWithFallback(path); err == nil {
		return found
	}
	return path
}

func trimExt(path string) string {
	return path[:len(path)-len(filepath.Ext(path))]
}
