package model

import "strings"

// Selector defaults
const (
	DefaultAudioExt      = "m4a"
	DefaultFallback      = "best"
	DefaultMergeFormat   = "mp4"
	DefaultTitleTemplate = "%(title)s.%(ext)s"
)

// Selector is a format-selection expression: one video format merged with
// the best audio track of a given extension, or a generic fallback when the
// merge is not possible.
type Selector struct {
	FormatID string
	AudioExt string
	Fallback string
}

// NewSelector builds a selector for the given video format id. Empty audio
// extension defaults to m4a.
func NewSelector(formatID, audioExt string) Selector {
	if audioExt == "" {
		audioExt = DefaultAudioExt
	}
	return Selector{
		FormatID: formatID,
		AudioExt: audioExt,
		Fallback: DefaultFallback,
	}
}

// String renders the yt-dlp syntax, e.g. "22+bestaudio[ext=m4a]/best"
func (s Selector) String() string {
	var b strings.Builder
	b.WriteString(s.FormatID)
	b.WriteString("+bestaudio")
	if s.AudioExt != "" {
		b.WriteString("[ext=")
		b.WriteString(s.AudioExt)
		b.WriteString("]")
	}
	if s.Fallback != "" {
		b.WriteString("/")
		b.WriteString(s.Fallback)
	}
	return b.String()
}

// FetchRequest is everything a backend needs to download one selection
type FetchRequest struct {
	URL         string
	OutputDir   string
	Template    string // file name template relative to OutputDir
	Selector    Selector
	MergeFormat string
	Format      Format   // the chosen video format
	Formats     []Format // full unfiltered list, for backends that pick audio themselves
}

// Progress is a single progress report from a backend
type Progress struct {
	DownloadedBytes int64
	TotalBytes      int64
	Title           string
	Merging         bool
}

// Percent returns completion in range 0..100, or -1 when the total is unknown
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return -1
	}
	pct := float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
