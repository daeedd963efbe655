package mux

// Package mux merges separately downloaded video and audio streams into a
// single container by driving the ffmpeg executable. Streams are copied, not
// re-encoded; progress is derived from ffprobe's duration and ffmpeg's
// -progress output.
