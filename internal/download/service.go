package download

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-cli/internal/model"
	"github.com/ytget/yt-cli/internal/platform"
)

// Options tune how the service lists and downloads formats
type Options struct {
	SortOrder      model.SortOrder
	RefetchOnError bool          // list formats again for the failure report
	AudioExt       string        // audio extension for the selector, "m4a" by default
	MergeFormat    string        // merge container, "mp4" by default
	Template       string        // output file name template
	Timeout        time.Duration // per operation, 0 means none
}

// Service handles format listing and download operations
type Service struct {
	backend Backend
	opts    Options
	log     logrus.FieldLogger

	tasks      map[string]*model.DownloadTask
	tasksMutex sync.RWMutex

	notifyMutex sync.Mutex
	onUpdate    func(*model.DownloadTask) // callback for UI updates
}

// NewService creates a new download service over backend
func NewService(backend Backend, opts Options, log logrus.FieldLogger) *Service {
	if opts.AudioExt == "" {
		opts.AudioExt = model.DefaultAudioExt
	}
	if opts.MergeFormat == "" {
		opts.MergeFormat = model.DefaultMergeFormat
	}
	if opts.Template == "" {
		opts.Template = model.DefaultTitleTemplate
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		backend: backend,
		opts:    opts,
		log:     log.WithField("component", "download"),
		tasks:   make(map[string]*model.DownloadTask),
	}
}

// SetUpdateCallback sets the callback function for task updates. The
// callback receives a snapshot and is never invoked concurrently.
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.notifyMutex.Lock()
	s.onUpdate = callback
	s.notifyMutex.Unlock()
}

// ListFormats returns the video formats of url sorted by the configured
// order. On failure the list is empty and the error says why.
func (s *Service) ListFormats(ctx context.Context, url string) ([]model.Format, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	info, err := s.extract(ctx, url)
	if err != nil {
		return []model.Format{}, err
	}
	return s.videoFormats(info), nil
}

// Download fetches the format at position quality of the freshly listed
// formats into outputDir, merged with the best audio track. quality beyond
// the end of the list selects the last format.
func (s *Service) Download(ctx context.Context, url, outputDir string, quality int) (*model.DownloadTask, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	task := &model.DownloadTask{
		ID:        generateTaskID(),
		URL:       url,
		Status:    model.TaskStatusPending,
		ETASec:    -1,
		OutputDir: outputDir,
		StartedAt: time.Now(),
	}
	s.addTask(task)
	log := s.log.WithFields(logrus.Fields{"task": task.ID, "url": url})

	if err := platform.CreateDirectoryIfNotExists(outputDir); err != nil {
		diagnostics := []model.Format{}
		if ctx.Err() == nil {
			diagnostics, _ = s.ListFormats(ctx, url)
		}
		return task, s.fail(ctx, task, &DownloadError{URL: url, Formats: diagnostics, Err: err})
	}

	s.setStatus(task, model.TaskStatusStarting)

	info, err := s.extract(ctx, url)
	var formats []model.Format
	if err == nil {
		formats = s.videoFormats(info)
	}
	if len(formats) == 0 {
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrNoFormats, err)
		} else {
			err = ErrNoFormats
		}
		return task, s.fail(ctx, task, &DownloadError{URL: url, Formats: []model.Format{}, Err: err})
	}

	chosen := formats[model.ClampIndex(quality, len(formats))]
	if quality >= len(formats) {
		log.WithFields(logrus.Fields{"requested": quality, "available": len(formats)}).
			Info("Quality index out of range, using the last format")
	}
	selector := model.NewSelector(chosen.ID, s.opts.AudioExt)

	s.tasksMutex.Lock()
	task.Format = chosen
	task.Selector = selector.String()
	task.Title = info.Title
	task.Status = model.TaskStatusDownloading
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	req := model.FetchRequest{
		URL:         url,
		OutputDir:   outputDir,
		Template:    s.opts.Template,
		Selector:    selector,
		MergeFormat: s.opts.MergeFormat,
		Format:      chosen,
		Formats:     info.Formats,
	}
	log.WithFields(logrus.Fields{"format": chosen.ID, "selector": task.Selector}).Debug("Starting download")

	fetchStarted := time.Now()
	path, err := s.fetch(ctx, req, func(p model.Progress) {
		s.updateTaskProgress(task, p, fetchStarted)
	})
	if err != nil {
		log.WithError(err).Warn("Download failed")
		diagnostics := formats
		if s.opts.RefetchOnError && ctx.Err() == nil {
			diagnostics, _ = s.ListFormats(ctx, url)
		}
		return task, s.fail(ctx, task, &DownloadError{URL: url, Formats: diagnostics, Err: err})
	}

	if path == "" {
		path = filepath.Join(outputDir, platform.ExpandTemplate(s.opts.Template, info.Title, info.ID, s.opts.MergeFormat))
	}
	if found, ferr := platform.FindFileWithFallback(path); ferr == nil {
		path = found
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusCompleted
	task.Progress = 1.0
	task.Percent = 100
	task.ETASec = 0
	task.OutputPath = path
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	log.WithField("path", path).Info("Download completed")
	return task, nil
}

// GetAllTasks returns snapshots of all tasks, oldest first
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*model.DownloadTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		snapshot := *task
		tasks = append(tasks, &snapshot)
	}
	sortTasks(tasks)
	return tasks
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(ctx, s.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

// extract calls the backend, turning panics into errors
func (s *Service) extract(ctx context.Context, url string) (info *model.VideoInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, recoverError(r)
		}
		if err != nil {
			s.log.WithError(err).WithField("url", url).Warn("Failed to list formats")
		}
	}()

	info, err = s.backend.ExtractInfo(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("extract %s with %s: %w", url, s.backend.Name(), err)
	}
	if info == nil {
		return nil, fmt.Errorf("extract %s with %s: empty result", url, s.backend.Name())
	}
	return info, nil
}

// fetch calls the backend, turning panics into errors
func (s *Service) fetch(ctx context.Context, req model.FetchRequest, progress func(model.Progress)) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			path, err = "", recoverError(r)
		}
	}()
	return s.backend.Fetch(ctx, req, progress)
}

func (s *Service) videoFormats(info *model.VideoInfo) []model.Format {
	formats := model.VideoFormats(info.Formats)
	model.SortFormats(formats, s.opts.SortOrder)
	s.log.WithFields(logrus.Fields{"title": info.Title, "formats": len(formats)}).Debug("Listed formats")
	return formats
}

func (s *Service) addTask(task *model.DownloadTask) {
	s.tasksMutex.Lock()
	s.tasks[task.ID] = task
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

func (s *Service) setStatus(task *model.DownloadTask, status model.TaskStatus) {
	s.tasksMutex.Lock()
	task.Status = status
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

// fail records err on the task and returns it
func (s *Service) fail(ctx context.Context, task *model.DownloadTask, err *DownloadError) error {
	s.tasksMutex.Lock()
	if ctx.Err() != nil {
		task.Status = model.TaskStatusStopped
	} else {
		task.Status = model.TaskStatusError
	}
	task.LastError = err.Err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
	return err
}

// updateTaskProgress updates task progress from a backend report
func (s *Service) updateTaskProgress(task *model.DownloadTask, update model.Progress, started time.Time) {
	s.tasksMutex.Lock()

	if update.Merging {
		task.Status = model.TaskStatusMerging
	}

	// Update percentage
	if pct := update.Percent(); pct >= 0 {
		task.Percent = int(pct)
		task.Progress = pct / 100.0
	}

	// Calculate speed and ETA
	if elapsed := time.Since(started).Seconds(); elapsed > 0 && update.DownloadedBytes > 0 {
		bytesPerSecond := float64(update.DownloadedBytes) / elapsed
		task.Speed = humanize.Bytes(uint64(bytesPerSecond)) + "/s"
		if remaining := update.TotalBytes - update.DownloadedBytes; update.TotalBytes > 0 && remaining >= 0 {
			task.ETASec = int(float64(remaining) / bytesPerSecond)
		}
	}

	// Update title if available
	if update.Title != "" && task.Title == "" {
		task.Title = update.Title
	}
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}

// notifyUpdate calls the update callback with a snapshot of task
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	s.tasksMutex.RLock()
	snapshot := *task
	s.tasksMutex.RUnlock()

	s.notifyMutex.Lock()
	defer s.notifyMutex.Unlock()
	if s.onUpdate != nil {
		s.onUpdate(&snapshot)
	}
}

func sortTasks(tasks []*model.DownloadTask) {
	slices.SortStableFunc(tasks, func(a, b *model.DownloadTask) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// generateTaskID generates a unique, time ordered task ID
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "task-" + uuid.NewString()
	}
	return "task-" + id.String()
}
