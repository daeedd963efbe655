package download

import (
	"context"

	"github.com/ytget/yt-cli/internal/model"
)

// Backend is an extraction/download engine.
type Backend interface {
	// Name identifies the backend in logs and config
	Name() string

	// ExtractInfo fetches metadata only, never media
	ExtractInfo(ctx context.Context, url string) (*model.VideoInfo, error)

	// Fetch downloads a selection and returns the written file path, or ""
	// when the backend cannot tell
	Fetch(ctx context.Context, req model.FetchRequest, progress func(model.Progress)) (string, error)
}

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))

	// ListFormats returns the video formats of url, best first
	ListFormats(ctx context.Context, url string) ([]model.Format, error)

	// Download fetches the format at index quality (clamped) into outputDir
	Download(ctx context.Context, url, outputDir string, quality int) (*model.DownloadTask, error)

	// GetAllTasks returns snapshots of every task of the session, oldest first
	GetAllTasks() []*model.DownloadTask
}

var _ Downloader = (*Service)(nil)
