package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/ytget/yt-cli/internal/model"
)

// yt-dlp info JSON keys
const (
	keyID         = "id"
	keyTitle      = "title"
	keyType       = "_type"
	keyFormats    = "formats"
	keyFormatID   = "format_id"
	keyExt        = "ext"
	keyResolution = "resolution"
	keyHeight     = "height"
	keyWidth      = "width"
	keyVCodec     = "vcodec"
	keyTBR        = "tbr"
	keyFilename   = "filename"

	typePlaylist = "playlist"
	codecNone    = "none"
)

// ErrNoFormatList is returned when the info JSON carries no formats array,
// which is what yt-dlp reports for playlists in flat mode
var ErrNoFormatList = errors.New("no formats in extractor response")

// ParseInfoJSON parses the output of `yt-dlp --dump-single-json` into video
// metadata. Formats keep the order yt-dlp reported them in.
func ParseInfoJSON(data []byte) (*model.VideoInfo, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("empty extractor response")
	}
	// yt-dlp may print one JSON object per line; the info dict is the last one
	if idx := strings.LastIndex(trimmed, "\n{"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}

	parsed, err := gabs.ParseJSON([]byte(trimmed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse extractor response: %w", err)
	}

	info := &model.VideoInfo{
		ID:    stringAt(parsed, keyID),
		Title: stringAt(parsed, keyTitle),
	}

	if !parsed.Exists(keyFormats) {
		if stringAt(parsed, keyType) == typePlaylist {
			return nil, fmt.Errorf("%w: url points to a playlist", ErrNoFormatList)
		}
		return nil, ErrNoFormatList
	}

	for _, f := range parsed.S(keyFormats).Children() {
		id := stringAt(f, keyFormatID)
		if id == "" {
			continue
		}
		format := model.NewFormat(id, stringAt(f, keyExt), resolutionOf(f))
		format.Height = intAt(f, keyHeight)
		format.Bitrate = intAt(f, keyTBR)
		info.Formats = append(info.Formats, format)
	}

	return info, nil
}

// resolutionOf returns the reported resolution label. Older yt-dlp builds
// omit it, so it is derived from width/height and vcodec when missing.
func resolutionOf(f *gabs.Container) string {
	if res := stringAt(f, keyResolution); res != "" {
		return res
	}
	if stringAt(f, keyVCodec) == codecNone {
		return model.ResolutionAudioOnly
	}
	w, h := intAt(f, keyWidth), intAt(f, keyHeight)
	if w > 0 && h > 0 {
		return fmt.Sprintf("%dx%d", w, h)
	}
	if h > 0 {
		return fmt.Sprintf("%dp", h)
	}
	return ""
}

// FilenameFromInfoJSON returns the "filename" field of a post-download info
// dict, or "" if absent
func FilenameFromInfoJSON(data []byte) string {
	trimmed := strings.TrimSpace(string(data))
	if idx := strings.LastIndex(trimmed, "\n{"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	parsed, err := gabs.ParseJSON([]byte(trimmed))
	if err != nil {
		return ""
	}
	return stringAt(parsed, keyFilename)
}

func stringAt(c *gabs.Container, key string) string {
	v, ok := c.S(key).Data().(string)
	if !ok {
		return ""
	}
	return v
}

func intAt(c *gabs.Container, key string) int {
	switch v := c.S(key).Data().(type) {
	case float64:
		return int(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return int(f)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
