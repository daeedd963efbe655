package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ytget/yt-cli/internal/model"
	"github.com/ytget/yt-cli/internal/platform"
)

// Config file location
const (
	AppDirName     = "yt-cli"
	ConfigFileName = "config.yaml"
	ConfigFilePerm = 0644
)

// Default values
const (
	DefaultBackend              = platform.BackendYTDLP
	DefaultLanguage             = "en"
	DefaultSortOrder            = model.SortLexical
	DefaultMergeOutputFormat    = model.DefaultMergeFormat
	DefaultAudioFormat          = model.DefaultAudioExt
	DefaultFilenameTemplate     = model.DefaultTitleTemplate
	DefaultLogLevel             = "warn"
	DefaultAutoRevealOnComplete = false
	MaxTimeout                  = 24 * time.Hour
)

// Validation errors
var (
	ErrInvalidBackend   = errors.New("invalid backend")
	ErrInvalidLanguage  = errors.New("invalid language")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrInvalidLogLevel  = errors.New("invalid log level")
)

// fileSettings is the on-disk layout; empty values mean "use the default"
type fileSettings struct {
	DownloadDirectory    string        `yaml:"download_directory,omitempty"`
	Backend              string        `yaml:"backend,omitempty"`
	Language             string        `yaml:"language,omitempty"`
	SortOrder            string        `yaml:"sort_order,omitempty"`
	RefetchOnError       bool          `yaml:"refetch_on_error,omitempty"`
	MergeOutputFormat    string        `yaml:"merge_output_format,omitempty"`
	AudioFormat          string        `yaml:"audio_format,omitempty"`
	FilenameTemplate     string        `yaml:"filename_template,omitempty"`
	YTDLPPath            string        `yaml:"ytdlp_path,omitempty"`
	FFmpegPath           string        `yaml:"ffmpeg_path,omitempty"`
	LogLevel             string        `yaml:"log_level,omitempty"`
	Timeout              time.Duration `yaml:"timeout,omitempty"`
	AutoRevealOnComplete bool          `yaml:"auto_reveal_on_complete,omitempty"`
}

// Settings manages application configuration backed by a YAML file
type Settings struct {
	mu         sync.RWMutex
	path       string
	workingDir string
	data       fileSettings
}

// NewSettings creates settings with defaults that will be saved to path.
// The working directory is captured once and serves as the default
// download directory.
func NewSettings(path string) *Settings {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	return &Settings{path: path, workingDir: wd}
}

// DefaultPath returns the per-user config file location
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, AppDirName, ConfigFileName), nil
}

// Load reads settings from path. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	s := NewSettings(path)
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) validate() error {
	if s.data.Backend != "" && !slices.Contains(s.GetBackendOptions(), s.data.Backend) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, s.data.Backend)
	}
	if _, ok := s.GetLanguageOptions()[s.data.Language]; s.data.Language != "" && !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, s.data.Language)
	}
	if s.data.SortOrder != "" {
		if _, ok := model.ParseSortOrder(s.data.SortOrder); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidSortOrder, s.data.SortOrder)
		}
	}
	if s.data.LogLevel != "" {
		if _, err := logrus.ParseLevel(s.data.LogLevel); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidLogLevel, s.data.LogLevel)
		}
	}
	return nil
}

// Save writes the settings back to their file, creating parent directories
func (s *Settings) Save() error {
	s.mu.RLock()
	raw, err := yaml.Marshal(&s.data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := platform.CreateDirectoryIfNotExists(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, ConfigFilePerm); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	return nil
}

// Path returns the file the settings are loaded from and saved to
func (s *Settings) Path() string {
	return s.path
}

// GetDownloadDirectory returns the configured download directory, the
// working directory at startup, or ~/Downloads, in that order
func (s *Settings) GetDownloadDirectory() string {
	s.mu.RLock()
	dir := s.data.DownloadDirectory
	s.mu.RUnlock()
	if dir != "" {
		return dir
	}
	if s.workingDir != "" {
		return s.workingDir
	}
	defaultDir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		return "."
	}
	return defaultDir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.mu.Lock()
	s.data.DownloadDirectory = dir
	s.mu.Unlock()
}

// GetBackend returns the extraction backend name
func (s *Settings) GetBackend() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Backend == "" {
		return DefaultBackend
	}
	return s.data.Backend
}

// SetBackend sets the extraction backend
func (s *Settings) SetBackend(backend string) error {
	if !slices.Contains(s.GetBackendOptions(), backend) {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, backend)
	}
	s.mu.Lock()
	s.data.Backend = backend
	s.mu.Unlock()
	return nil
}

// GetBackendOptions returns the available backends
func (s *Settings) GetBackendOptions() []string {
	return []string{platform.BackendYTDLP, platform.BackendNative}
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Language == "" {
		return DefaultLanguage
	}
	return s.data.Language
}

// SetLanguage sets the interface language
func (s *Settings) SetLanguage(lang string) error {
	if _, ok := s.GetLanguageOptions()[lang]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	s.mu.Lock()
	s.data.Language = lang
	s.mu.Unlock()
	return nil
}

// GetSortOrder returns how format lists are ordered
func (s *Settings) GetSortOrder() model.SortOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := model.ParseSortOrder(s.data.SortOrder)
	if !ok {
		return DefaultSortOrder
	}
	return order
}

// SetSortOrder sets the format list ordering
func (s *Settings) SetSortOrder(order string) error {
	if _, ok := model.ParseSortOrder(order); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSortOrder, order)
	}
	s.mu.Lock()
	s.data.SortOrder = order
	s.mu.Unlock()
	return nil
}

// GetRefetchOnError returns whether formats are listed again after a failed download
func (s *Settings) GetRefetchOnError() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.RefetchOnError
}

// SetRefetchOnError sets whether formats are listed again after a failed download
func (s *Settings) SetRefetchOnError(refetch bool) {
	s.mu.Lock()
	s.data.RefetchOnError = refetch
	s.mu.Unlock()
}

// GetMergeOutputFormat returns the container video and audio are merged into
func (s *Settings) GetMergeOutputFormat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.MergeOutputFormat == "" {
		return DefaultMergeOutputFormat
	}
	return s.data.MergeOutputFormat
}

// GetAudioFormat returns the preferred audio extension
func (s *Settings) GetAudioFormat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.AudioFormat == "" {
		return DefaultAudioFormat
	}
	return s.data.AudioFormat
}

// GetFilenameTemplate returns the filename template
func (s *Settings) GetFilenameTemplate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.FilenameTemplate == "" {
		return DefaultFilenameTemplate
	}
	return s.data.FilenameTemplate
}

// SetFilenameTemplate sets the filename template
func (s *Settings) SetFilenameTemplate(template string) {
	s.mu.Lock()
	s.data.FilenameTemplate = template
	s.mu.Unlock()
}

// GetYTDLPPath returns the yt-dlp executable, empty to search PATH
func (s *Settings) GetYTDLPPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.YTDLPPath
}

// GetFFmpegPath returns the ffmpeg executable, empty to search PATH
func (s *Settings) GetFFmpegPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.FFmpegPath
}

// GetLogLevel returns the log level
func (s *Settings) GetLogLevel() logrus.Level {
	s.mu.RLock()
	defer s.mu.RUnlock()
	level, err := logrus.ParseLevel(s.data.LogLevel)
	if s.data.LogLevel == "" || err != nil {
		level, _ = logrus.ParseLevel(DefaultLogLevel)
	}
	return level
}

// SetLogLevel sets the log level by name
func (s *Settings) SetLogLevel(level string) error {
	if _, err := logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
	s.mu.Lock()
	s.data.LogLevel = level
	s.mu.Unlock()
	return nil
}

// GetTimeout returns the per operation timeout, 0 for none
func (s *Settings) GetTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clampTimeout(s.data.Timeout)
}

// SetTimeout sets the per operation timeout
func (s *Settings) SetTimeout(timeout time.Duration) {
	s.mu.Lock()
	s.data.Timeout = clampTimeout(timeout)
	s.mu.Unlock()
}

// GetAutoRevealOnComplete returns whether to auto-reveal completed downloads
func (s *Settings) GetAutoRevealOnComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.AutoRevealOnComplete
}

// SetAutoRevealOnComplete sets whether to auto-reveal completed downloads
func (s *Settings) SetAutoRevealOnComplete(autoReveal bool) {
	s.mu.Lock()
	s.data.AutoRevealOnComplete = autoReveal
	s.mu.Unlock()
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"ru":     "Русский",
		"pt":     "Português",
	}
}

func clampTimeout(timeout time.Duration) time.Duration {
	if timeout < 0 {
		return 0
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}
