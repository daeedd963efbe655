package model

import (
	"testing"
	"time"
)

func TestDownloadTask_GetETAString(t *testing.T) {
	tests := []struct {
		etaSec   int
		expected string
	}{
		{-1, "—"},
		{0, "—"},
		{30, "00:30"},
		{90, "01:30"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{7323, "02:02:03"},
	}

	for _, test := range tests {
		task := &DownloadTask{ETASec: test.etaSec}
		result := task.GetETAString()
		if result != test.expected {
			t.Errorf("GetETAString() with ETASec=%d = %s, expected %s", test.etaSec, result, test.expected)
		}
	}
}

func TestDownloadTask_GetDisplayTitle(t *testing.T) {
	tests := []struct {
		title      string
		outputPath string
		url        string
		expected   string
	}{
		{"Video Title", "", "https://youtube.com/watch?v=123", "Video Title"},
		{"", "", "https://youtube.com/watch?v=123", "https://youtube.com/watch?v=123"},
		{"", "/tmp/downloads/My Clip.mp4", "https://youtube.com/watch?v=456", "My Clip"},
		{"", `C:\Videos\Other Clip.mp4`, "https://youtube.com/watch?v=789", "Other Clip"},
		{"https://youtube.com/watch?v=1", "", "https://youtube.com/watch?v=1", "https://youtube.com/watch?v=1"},
	}

	for _, test := range tests {
		task := &DownloadTask{
			Title:      test.title,
			OutputPath: test.outputPath,
			URL:        test.url,
		}
		result := task.GetDisplayTitle()
		if result != test.expected {
			t.Errorf("GetDisplayTitle() with title='%s', path='%s' = '%s', expected '%s'",
				test.title, test.outputPath, result, test.expected)
		}
	}
}

func TestDownloadTask_Elapsed(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	task := &DownloadTask{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	if got := task.Elapsed(); got != 90*time.Second {
		t.Errorf("Elapsed() = %v, expected 90s", got)
	}

	empty := &DownloadTask{}
	if got := empty.Elapsed(); got != 0 {
		t.Errorf("Elapsed() on unstarted task = %v, expected 0", got)
	}
}
