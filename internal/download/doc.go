package download

// Package download implements the format listing and download pipeline on
// top of a pluggable extraction Backend (yt-dlp via go-ytdlp, or the pure-Go
// ytget/ytdlp library). It filters and orders formats, clamps the requested
// quality index, builds the format-selection expression, and tracks task
// lifecycle and progress for the terminal UI.
