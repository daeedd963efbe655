package platform

// Package platform contains OS integration and external tooling glue:
// extraction backends (the yt-dlp executable via go-ytdlp, or the pure-Go
// ytget/ytdlp library), yt-dlp info JSON parsing, and filesystem helpers.
