package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DownloadTask represents a single download of one selected format
type DownloadTask struct {
	ID         string
	URL        string
	Status     TaskStatus
	Format     Format    // format actually used after index clamping
	Selector   string    // rendered format-selection expression
	Progress   float64   // 0.0 to 1.0
	Percent    int       // 0 to 100
	Speed      string    // human readable speed (e.g., "1.2 MB/s")
	ETASec     int       // ETA in seconds, -1 if unknown
	LastError  string    // last error message if any
	OutputDir  string    // directory the file is written to
	OutputPath string    // path to downloaded file, when known
	StartedAt  time.Time // when download started
	FinishedAt time.Time // when download finished
	Title      string    // video title
}

// MergeTask represents a single ffmpeg mux of a video and an audio stream
type MergeTask struct {
	ID         string
	VideoPath  string
	AudioPath  string
	OutputPath string
	Status     TaskStatus
	Progress   float64 // 0.0 to 1.0
	Percent    int     // 0 to 100
	LastError  string  // last error message if any
	StartedAt  time.Time
	FinishedAt time.Time
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (dt *DownloadTask) GetETAString() string {
	if dt.ETASec <= 0 {
		return "—"
	}

	hours := dt.ETASec / 3600
	minutes := (dt.ETASec % 3600) / 60
	seconds := dt.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}

	if dt.OutputPath != "" {
		filename := filepath.Base(strings.ReplaceAll(dt.OutputPath, "\\", "/"))
		if idx := strings.LastIndex(filename, "."); idx > 0 {
			filename = filename[:idx]
		}
		if filename != "" && filename != "." && filename != "/" {
			return filename
		}
	}

	return dt.URL
}

// Elapsed returns how long the task ran, or has been running so far
func (dt *DownloadTask) Elapsed() time.Duration {
	if dt.StartedAt.IsZero() {
		return 0
	}
	if dt.FinishedAt.IsZero() {
		return time.Since(dt.StartedAt)
	}
	return dt.FinishedAt.Sub(dt.StartedAt)
}
