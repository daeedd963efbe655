package ui

import (
	"testing"

	"github.com/ytget/yt-cli/internal/model"
)

func TestRenderProgress(t *testing.T) {
	loc := NewLocalization()

	tests := []struct {
		name string
		task model.DownloadTask
		want string
	}{
		{
			name: "downloading with speed and eta",
			task: model.DownloadTask{Status: model.TaskStatusDownloading, Format: model.Format{Resolution: "720p"}, Percent: 42, Speed: "1.2 MB/s", ETASec: 12},
			want: "Downloading 720p 42% · 1.2 MB/s · 00:12",
		},
		{
			name: "downloading without stats",
			task: model.DownloadTask{Status: model.TaskStatusDownloading, Percent: 0, ETASec: -1},
			want: "Downloading 0% · —",
		},
		{
			name: "merging",
			task: model.DownloadTask{Status: model.TaskStatusMerging, Format: model.Format{Resolution: "1080p"}, Percent: 100},
			want: "Merging 1080p 100%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderProgress(&tt.task, loc); got != tt.want {
				t.Errorf("renderProgress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectivePercent(t *testing.T) {
	tests := []struct {
		name string
		task model.DownloadTask
		want int
	}{
		{"percent set", model.DownloadTask{Percent: 37}, 37},
		{"from progress", model.DownloadTask{Progress: 0.69}, 69},
		{"tiny progress", model.DownloadTask{Progress: 0.001}, MinProgressPercent},
		{"completed", model.DownloadTask{Status: model.TaskStatusCompleted, Percent: 80}, MaxProgressPercent},
		{"over", model.DownloadTask{Percent: 140}, MaxProgressPercent},
		{"negative", model.DownloadTask{Percent: -3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := effectivePercent(&tt.task); got != tt.want {
				t.Errorf("effectivePercent() = %d, want %d", got, tt.want)
			}
		})
	}
}
