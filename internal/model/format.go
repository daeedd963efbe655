package model

import (
	"regexp"
	"sort"
	"strconv"
)

// Sentinel labels reported for stream variants
const (
	// ResolutionAudioOnly marks an audio-only stream variant
	ResolutionAudioOnly = "audio only"

	// UnknownLabel replaces a missing extension or resolution
	UnknownLabel = "?"
)

// SortOrder selects how format lists are ordered
type SortOrder string

const (
	// SortLexical compares resolution labels as plain strings, so "720p"
	// sorts above "1080p". This is the default ordering.
	SortLexical SortOrder = "lexical"

	// SortNumeric compares parsed heights, then bitrate
	SortNumeric SortOrder = "numeric"
)

var heightRe = regexp.MustCompile(`(?:^|x)([0-9]{2,4})p?`)

// Format describes one downloadable stream variant
type Format struct {
	ID         string // backend format id (yt-dlp format_id or itag)
	Ext        string // container extension
	Resolution string // resolution label as reported by the backend

	// Optional hints, zero when unknown
	Height  int
	Bitrate int
}

// IsAudioOnly reports whether the format carries no video
func (f Format) IsAudioOnly() bool {
	return f.Resolution == ResolutionAudioOnly
}

// String renders the format the way format lists are printed
func (f Format) String() string {
	return f.Resolution + " (" + f.Ext + ")"
}

// VideoInfo is the metadata returned by an extraction backend
type VideoInfo struct {
	ID      string
	Title   string
	Formats []Format
}

// NewFormat builds a descriptor, substituting UnknownLabel for empty fields
func NewFormat(id, ext, resolution string) Format {
	if ext == "" {
		ext = UnknownLabel
	}
	if resolution == "" {
		resolution = UnknownLabel
	}
	return Format{ID: id, Ext: ext, Resolution: resolution}
}

// VideoFormats returns the formats whose resolution is not audio-only.
// The input slice is not modified.
func VideoFormats(formats []Format) []Format {
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		if f.IsAudioOnly() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SortFormats sorts formats in place, highest first, using the given order.
// Unknown orders fall back to SortLexical.
func SortFormats(formats []Format, order SortOrder) {
	switch order {
	case SortNumeric:
		sort.SliceStable(formats, func(i, j int) bool {
			hi, hj := formats[i].height(), formats[j].height()
			if hi != hj {
				return hi > hj
			}
			return formats[i].Bitrate > formats[j].Bitrate
		})
	default:
		sort.SliceStable(formats, func(i, j int) bool {
			return formats[i].Resolution > formats[j].Resolution
		})
	}
}

// ParseSortOrder converts a config value into a SortOrder
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortLexical, SortNumeric:
		return SortOrder(s), true
	}
	return SortLexical, false
}

// ClampIndex limits a requested index to the last valid position of a list
// with n elements. Negative indexes map to 0.
func ClampIndex(index, n int) int {
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// height returns the explicit Height hint or parses one from the label
// ("720p", "1280x720", "1080p60").
func (f Format) height() int {
	if f.Height > 0 {
		return f.Height
	}
	return ParseHeight(f.Resolution)
}

// ParseHeight extracts the pixel height from a resolution label, 0 if absent
func ParseHeight(label string) int {
	matches := heightRe.FindAllStringSubmatch(label, -1)
	if len(matches) == 0 {
		return 0
	}
	// "1280x720" yields two matches; the height is the last one
	last := matches[len(matches)-1]
	v, err := strconv.Atoi(last[1])
	if err != nil {
		return 0
	}
	return v
}
