package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ytget/ytdlp/client"
	"github.com/ytget/ytdlp/errs"
	"github.com/ytget/ytdlp/types"
	ytget "github.com/ytget/ytdlp/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/yt-cli/internal/model"
	"github.com/ytget/yt-cli/internal/mux"
)

// MIME types mapped to container extensions
const (
	MimeVideoMP4  = "video/mp4"
	MimeAudioMP4  = "audio/mp4"
	MimeVideoWebM = "video/webm"
	MimeAudioWebM = "audio/webm"
	MimeAudioPref = "audio/"

	ExtM4A  = "m4a"
	ExtMP4  = "mp4"
	ExtWebM = "webm"

	partialPrefix = ".yt-cli-"
)

// NativeBackend extracts and downloads with the pure-Go ytget/ytdlp library.
// The library fetches one stream per call, so video+audio selections are
// fetched separately and muxed with ffmpeg.
type NativeBackend struct {
	timeout time.Duration
	merger  mux.Merger
	log     logrus.FieldLogger
}

// NewNativeBackend creates a backend. A zero timeout keeps the library's
// client default.
func NewNativeBackend(timeout time.Duration, merger mux.Merger, log logrus.FieldLogger) *NativeBackend {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NativeBackend{
		timeout: timeout,
		merger:  merger,
		log:     log.WithField("component", BackendNative),
	}
}

// Name returns the backend identifier
func (b *NativeBackend) Name() string {
	return BackendNative
}

// RouteLibraryLogs redirects the standard library logger, which the ytdlp
// library writes its diagnostics to, into logger at debug level. Below
// debug the output is discarded so it never interleaves with the prompts.
func RouteLibraryLogs(logger *logrus.Logger) {
	stdlog.SetFlags(0)
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		stdlog.SetOutput(io.Discard)
		return
	}
	stdlog.SetOutput(logger.WithField("component", BackendNative).WriterLevel(logrus.DebugLevel))
}

// downloader returns a library downloader with its own HTTP client. The
// library mutates the client's transport, so clients are never shared
// between concurrent downloads.
func (b *NativeBackend) downloader() *ytget.Downloader {
	return ytget.New().WithHTTPClient(b.newHTTPClient())
}

func (b *NativeBackend) newHTTPClient() *http.Client {
	return client.NewWith(client.Config{Timeout: b.timeout}).HTTPClient
}

// ExtractInfo resolves video metadata and the full format list
func (b *NativeBackend) ExtractInfo(ctx context.Context, url string) (*model.VideoInfo, error) {
	_, info, err := b.downloader().ResolveURL(ctx, url)
	if err != nil {
		return nil, describeLibraryError(err)
	}

	out := &model.VideoInfo{ID: info.ID, Title: info.Title}
	for _, f := range info.Formats {
		out.Formats = append(out.Formats, convertFormat(f))
	}
	return out, nil
}

// Fetch downloads the chosen video itag and the best matching audio itag in
// parallel, then merges them. When no audio of the requested extension exists
// or ffmpeg is unavailable it falls back to a single "best" download.
func (b *NativeBackend) Fetch(ctx context.Context, req model.FetchRequest, progress func(model.Progress)) (string, error) {
	template := req.Template
	if template == "" {
		template = model.DefaultTitleTemplate
	}
	mergeFormat := req.MergeFormat
	if mergeFormat == "" {
		mergeFormat = model.DefaultMergeFormat
	}

	audio, hasAudio := BestAudio(req.Formats, req.Selector.AudioExt)
	if !hasAudio || b.merger == nil || !b.merger.Available() {
		b.log.WithFields(logrus.Fields{"audio": hasAudio, "url": req.URL}).Info("merge unavailable, using fallback selector")
		return b.fetchFallback(ctx, req, template, mergeFormat, progress)
	}

	videoTmp := filepath.Join(req.OutputDir, partialPrefix+req.Format.ID+".video."+req.Format.Ext)
	audioTmp := filepath.Join(req.OutputDir, partialPrefix+audio.ID+".audio."+audio.Ext)
	defer os.Remove(videoTmp)
	defer os.Remove(audioTmp)

	tracker := newProgressTracker(progress)

	var (
		title   string
		titleMu sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, stream := range []struct {
		itag string
		path string
	}{
		{req.Format.ID, videoTmp},
		{audio.ID, audioTmp},
	} {
		g.Go(func() error {
			info, err := b.downloader().
				WithFormat("itag="+stream.itag, "").
				WithOutputPath(stream.path).
				WithProgress(tracker.reporter(stream.itag)).
				Download(gctx, req.URL)
			if err != nil {
				return fmt.Errorf("stream %s: %w", stream.itag, describeLibraryError(err))
			}
			titleMu.Lock()
			if title == "" {
				title = info.Title
			}
			titleMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	output := filepath.Join(req.OutputDir, ExpandTemplate(template, title, req.Format.ID, mergeFormat))
	tracker.merging()
	if _, err := b.merger.Merge(ctx, videoTmp, audioTmp, output); err != nil {
		return "", fmt.Errorf("merge streams: %w", err)
	}
	return output, nil
}

// fetchFallback downloads the library's "best" progressive format
func (b *NativeBackend) fetchFallback(ctx context.Context, req model.FetchRequest, template, ext string, progress func(model.Progress)) (string, error) {
	tmp := filepath.Join(req.OutputDir, partialPrefix+"best."+ext)
	defer os.Remove(tmp)

	selector := req.Selector.Fallback
	if selector == "" {
		selector = model.DefaultFallback
	}

	tracker := newProgressTracker(progress)
	info, err := b.downloader().
		WithFormat(selector, ext).
		WithOutputPath(tmp).
		WithProgress(tracker.reporter("best")).
		Download(ctx, req.URL)
	if err != nil {
		return "", describeLibraryError(err)
	}

	output := filepath.Join(req.OutputDir, ExpandTemplate(template, info.Title, info.ID, ext))
	if err := os.Rename(tmp, output); err != nil {
		return "", fmt.Errorf("rename download: %w", err)
	}
	return output, nil
}

// BestAudio picks the highest bitrate audio-only format with the given
// extension. An empty extension accepts any audio format.
func BestAudio(formats []model.Format, ext string) (model.Format, bool) {
	var best model.Format
	found := false
	for _, f := range formats {
		if !f.IsAudioOnly() {
			continue
		}
		if ext != "" && f.Ext != ext {
			continue
		}
		if !found || f.Bitrate > best.Bitrate {
			best = f
			found = true
		}
	}
	return best, found
}

// convertFormat maps a library format onto a format descriptor
func convertFormat(f types.Format) model.Format {
	resolution := f.Quality
	if strings.HasPrefix(strings.ToLower(f.MimeType), MimeAudioPref) {
		resolution = model.ResolutionAudioOnly
	}
	out := model.NewFormat(strconv.Itoa(f.Itag), ExtFromMime(f.MimeType), resolution)
	out.Height = model.ParseHeight(f.Quality)
	out.Bitrate = f.Bitrate
	return out
}

// ExtFromMime returns the file extension (without dot) for a MIME type
func ExtFromMime(mime string) string {
	base := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(base, ";"); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	switch base {
	case "":
		return model.UnknownLabel
	case MimeVideoMP4:
		return ExtMP4
	case MimeAudioMP4:
		return ExtM4A
	case MimeVideoWebM, MimeAudioWebM:
		return ExtWebM
	}
	if parts := strings.Split(base, "/"); len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return model.UnknownLabel
}

// describeLibraryError adds a readable reason to the library's sentinel
// errors while keeping them matchable with errors.Is
func describeLibraryError(err error) error {
	reasons := []struct {
		target error
		reason string
	}{
		{errs.ErrPrivate, "the video is private"},
		{errs.ErrAgeRestricted, "the video requires sign-in (age restricted)"},
		{errs.ErrGeoBlocked, "the video is not available in this region"},
		{errs.ErrRateLimited, "the site is rate limiting requests, try again later"},
		{errs.ErrCipherFailed, "stream signature could not be deciphered"},
		{errs.ErrVideoUnavailable, "the video is unavailable"},
	}
	for _, r := range reasons {
		if errors.Is(err, r.target) {
			return fmt.Errorf("%s: %w", r.reason, err)
		}
	}
	return err
}

// progressTracker sums progress over concurrently downloaded streams
type progressTracker struct {
	mu      sync.Mutex
	streams map[string]model.Progress
	report  func(model.Progress)
}

func newProgressTracker(report func(model.Progress)) *progressTracker {
	return &progressTracker{streams: make(map[string]model.Progress), report: report}
}

func (t *progressTracker) reporter(stream string) func(ytget.Progress) {
	return func(p ytget.Progress) {
		if t.report == nil {
			return
		}
		t.mu.Lock()
		t.streams[stream] = model.Progress{DownloadedBytes: p.DownloadedSize, TotalBytes: p.TotalSize}
		var sum model.Progress
		for _, s := range t.streams {
			sum.DownloadedBytes += s.DownloadedBytes
			sum.TotalBytes += s.TotalBytes
		}
		t.mu.Unlock()
		t.report(sum)
	}
}

func (t *progressTracker) merging() {
	if t.report == nil {
		return
	}
	t.mu.Lock()
	var sum model.Progress
	for _, s := range t.streams {
		sum.DownloadedBytes += s.DownloadedBytes
		sum.TotalBytes += s.TotalBytes
	}
	t.mu.Unlock()
	sum.Merging = true
	t.report(sum)
}
