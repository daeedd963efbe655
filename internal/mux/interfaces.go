package mux

import (
	"context"

	"github.com/ytget/yt-cli/internal/model"
)

// Merger defines the interface for the merge service.
type Merger interface {
	SetUpdateCallback(func(*model.MergeTask))
	Merge(ctx context.Context, videoPath, audioPath, outputPath string) (*model.MergeTask, error)
	Available() bool
}

var _ Merger = (*Service)(nil)
