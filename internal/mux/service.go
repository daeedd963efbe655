package mux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-cli/internal/model"
)

// FFmpeg constants for muxing
const (
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	FastStartFlag       = "+faststart"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="
	TaskIDPrefix        = "merge-"

	// stderr lines kept for error reports
	maxErrorLines = 5
)

// ErrFFmpegNotFound is returned when the ffmpeg executable cannot be resolved
var ErrFFmpegNotFound = errors.New("ffmpeg not found")

// Service merges streams with ffmpeg
type Service struct {
	tasks       map[string]*model.MergeTask
	tasksMutex  sync.RWMutex
	onUpdate    func(*model.MergeTask)
	ffmpegPath  string
	ffprobePath string
	log         logrus.FieldLogger
}

// NewService creates a merge service. An empty ffmpegPath means "ffmpeg" on
// PATH; ffprobe is looked up next to the configured ffmpeg.
func NewService(ffmpegPath string, log logrus.FieldLogger) *Service {
	if ffmpegPath == "" {
		ffmpegPath = FFmpegCommand
	}
	ffprobePath := FFprobeCommand
	if dir := filepath.Dir(ffmpegPath); dir != "." {
		ffprobePath = filepath.Join(dir, FFprobeCommand+filepath.Ext(ffmpegPath))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		tasks:       make(map[string]*model.MergeTask),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         log.WithField("component", "mux"),
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.MergeTask)) {
	s.onUpdate = callback
}

// Available reports whether ffmpeg can be executed
func (s *Service) Available() bool {
	_, err := exec.LookPath(s.ffmpegPath)
	return err == nil
}

// Merge muxes videoPath and audioPath into outputPath and blocks until ffmpeg
// exits. Partial output is removed on failure or cancellation.
func (s *Service) Merge(ctx context.Context, videoPath, audioPath, outputPath string) (*model.MergeTask, error) {
	task := &model.MergeTask{
		ID:         generateTaskID(),
		VideoPath:  videoPath,
		AudioPath:  audioPath,
		OutputPath: outputPath,
		Status:     model.TaskStatusPending,
		StartedAt:  time.Now(),
	}

	s.tasksMutex.Lock()
	for _, t := range s.tasks {
		if t.OutputPath == outputPath && t.Status.IsActive() {
			s.tasksMutex.Unlock()
			return nil, fmt.Errorf("merge already in progress for file: %s", outputPath)
		}
	}
	s.tasks[task.ID] = task
	s.tasksMutex.Unlock()

	bin, err := exec.LookPath(s.ffmpegPath)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrFFmpegNotFound, s.ffmpegPath)
		s.setTaskError(task, err)
		return task, err
	}

	for _, p := range []string{videoPath, audioPath} {
		if _, err := os.Stat(p); err != nil {
			err = fmt.Errorf("merge input: %w", err)
			s.setTaskError(task, err)
			return task, err
		}
	}

	s.setStatus(task, model.TaskStatusStarting)

	duration, err := s.getDuration(ctx, videoPath)
	if err != nil {
		// progress becomes unknown but the merge itself can proceed
		s.log.WithError(err).WithField("task", task.ID).Debug("ffprobe failed")
	}

	s.setStatus(task, model.TaskStatusMerging)

	args := s.BuildFFmpegArgs(videoPath, audioPath, outputPath)
	cmd := exec.CommandContext(ctx, bin, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		err = fmt.Errorf("failed to create stderr pipe: %w", err)
		s.setTaskError(task, err)
		return task, err
	}

	s.log.WithFields(logrus.Fields{"task": task.ID, "output": outputPath}).Debug("starting ffmpeg")
	if err := cmd.Start(); err != nil {
		err = fmt.Errorf("failed to start ffmpeg: %w", err)
		s.setTaskError(task, err)
		return task, err
	}

	tail := s.monitorProgress(stderr, task, duration)
	err = cmd.Wait()

	switch {
	case ctx.Err() != nil:
		os.Remove(outputPath)
		s.tasksMutex.Lock()
		task.Status = model.TaskStatusStopped
		task.LastError = ctx.Err().Error()
		task.FinishedAt = time.Now()
		s.tasksMutex.Unlock()
		s.notifyUpdate(task)
		return task, ctx.Err()
	case err != nil:
		os.Remove(outputPath)
		if len(tail) > 0 {
			err = fmt.Errorf("ffmpeg failed: %w: %s", err, strings.Join(tail, "; "))
		} else {
			err = fmt.Errorf("ffmpeg failed: %w", err)
		}
		s.setTaskError(task, err)
		return task, err
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusCompleted
	task.Progress = 1.0
	task.Percent = 100
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	return task, nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func (s *Service) BuildFFmpegArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-y",            // Overwrite output file
		"-i", videoPath, // Video input
		"-i", audioPath, // Audio input
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy", // No re-encode
		"-movflags", FastStartFlag,
		"-progress", ProgressPipeTarget,
		"-nostats",
		outputPath,
	}
}

// getDuration gets the duration of a media file in seconds using ffprobe
func (s *Service) getDuration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	return parseDuration(string(output))
}

func parseDuration(output string) (float64, error) {
	duration, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return duration, nil
}

// monitorProgress consumes ffmpeg's stderr until EOF and returns the last
// non-progress lines for error reporting.
func (s *Service) monitorProgress(stderr io.Reader, task *model.MergeTask, totalDuration float64) []string {
	scanner := bufio.NewScanner(stderr)
	var tail []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, ProgressTimePrefix) {
			if !strings.Contains(line, "=") {
				tail = append(tail, line)
				if len(tail) > maxErrorLines {
					tail = tail[1:]
				}
			}
			continue
		}

		progress, ok := progressFromLine(line, totalDuration)
		if !ok {
			continue
		}

		s.tasksMutex.Lock()
		task.Progress = progress
		task.Percent = int(progress * 100)
		s.tasksMutex.Unlock()

		s.notifyUpdate(task)
	}

	return tail
}

// progressFromLine parses "out_time_us=123456" into a 0..1 fraction
func progressFromLine(line string, totalDuration float64) (float64, bool) {
	if totalDuration <= 0 {
		return 0, false
	}
	us, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}
	progress := float64(us) / 1000000.0 / totalDuration
	if progress > 1.0 {
		progress = 1.0
	}
	return progress, true
}

func (s *Service) setStatus(task *model.MergeTask, status model.TaskStatus) {
	s.tasksMutex.Lock()
	task.Status = status
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

// setTaskError sets an error state for a task
func (s *Service) setTaskError(task *model.MergeTask, err error) {
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.log.WithError(err).WithField("task", task.ID).Warn("merge failed")
	s.notifyUpdate(task)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.MergeTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

// generateTaskID generates a unique task ID using UUID v7 for time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
