package download

import (
	"errors"
	"fmt"

	"github.com/ytget/yt-cli/internal/model"
)

// ErrNoFormats is returned when a URL yields no downloadable video formats
var ErrNoFormats = errors.New("no video formats available")

// DownloadError reports a failed download together with the formats that
// were available, so callers can print them for diagnosis.
type DownloadError struct {
	URL     string
	Formats []model.Format
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// recoverError converts a recovered panic value into an error
func recoverError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("backend panic: %w", err)
	}
	return fmt.Errorf("backend panic: %v", r)
}
