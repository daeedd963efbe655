package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-cli/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if settings.GetBackend() != DefaultBackend {
		t.Errorf("Expected default backend %s, got %s", DefaultBackend, settings.GetBackend())
	}
	if settings.GetLanguage() != DefaultLanguage {
		t.Errorf("Expected default language %s, got %s", DefaultLanguage, settings.GetLanguage())
	}
	if settings.GetSortOrder() != model.SortLexical {
		t.Errorf("Expected lexical sort order, got %s", settings.GetSortOrder())
	}
	if settings.GetRefetchOnError() {
		t.Error("Expected refetch_on_error to default to false")
	}
	if settings.GetMergeOutputFormat() != "mp4" || settings.GetAudioFormat() != "m4a" {
		t.Errorf("Unexpected media defaults %s/%s", settings.GetMergeOutputFormat(), settings.GetAudioFormat())
	}
	if settings.GetLogLevel() != logrus.WarnLevel {
		t.Errorf("Expected warn log level, got %s", settings.GetLogLevel())
	}
	if settings.GetTimeout() != 0 {
		t.Errorf("Expected no timeout, got %s", settings.GetTimeout())
	}
}

func TestDownloadDirectory(t *testing.T) {
	settings := NewSettings(filepath.Join(t.TempDir(), ConfigFileName))

	// Test default value
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if dir := settings.GetDownloadDirectory(); dir != wd {
		t.Errorf("Expected working directory %s, got %s", wd, dir)
	}

	// Test setting custom value
	customDir := "/custom/downloads"
	settings.SetDownloadDirectory(customDir)

	if dir := settings.GetDownloadDirectory(); dir != customDir {
		t.Errorf("Expected download directory %s, got %s", customDir, dir)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
download_directory: /srv/videos
backend: native
language: ru
sort_order: numeric
refetch_on_error: true
audio_format: webm
ytdlp_path: /opt/bin/yt-dlp
ffmpeg_path: /opt/bin/ffmpeg
log_level: debug
timeout: 90s
auto_reveal_on_complete: true
`)

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"download_directory", settings.GetDownloadDirectory(), "/srv/videos"},
		{"backend", settings.GetBackend(), "native"},
		{"language", settings.GetLanguage(), "ru"},
		{"sort_order", settings.GetSortOrder(), model.SortNumeric},
		{"refetch_on_error", settings.GetRefetchOnError(), true},
		{"audio_format", settings.GetAudioFormat(), "webm"},
		{"merge_output_format", settings.GetMergeOutputFormat(), "mp4"},
		{"ytdlp_path", settings.GetYTDLPPath(), "/opt/bin/yt-dlp"},
		{"ffmpeg_path", settings.GetFFmpegPath(), "/opt/bin/ffmpeg"},
		{"log_level", settings.GetLogLevel(), logrus.DebugLevel},
		{"timeout", settings.GetTimeout(), 90 * time.Second},
		{"auto_reveal_on_complete", settings.GetAutoRevealOnComplete(), true},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"backend", "backend: vlc\n", ErrInvalidBackend},
		{"language", "language: de\n", ErrInvalidLanguage},
		{"sort order", "sort_order: random\n", ErrInvalidSortOrder},
		{"log level", "log_level: loud\n", ErrInvalidLogLevel},
		{"syntax", "backend: [\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", AppDirName, ConfigFileName)
	settings := NewSettings(path)
	settings.SetDownloadDirectory("/data")
	if err := settings.SetLanguage("pt"); err != nil {
		t.Fatal(err)
	}
	settings.SetRefetchOnError(true)
	settings.SetTimeout(2 * time.Minute)
	if err := settings.SetBackend("native"); err != nil {
		t.Fatal(err)
	}

	if err := settings.Save(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected saved file, got %v", err)
	}
	if strings.Contains(string(raw), "ffmpeg_path") {
		t.Errorf("Expected unset keys to be omitted, got:\n%s", raw)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if loaded.GetDownloadDirectory() != "/data" || loaded.GetLanguage() != "pt" ||
		!loaded.GetRefetchOnError() || loaded.GetTimeout() != 2*time.Minute || loaded.GetBackend() != "native" {
		t.Errorf("Round trip lost values:\n%s", raw)
	}
}

func TestSetters_Validate(t *testing.T) {
	settings := NewSettings("")

	if err := settings.SetBackend("vlc"); !errors.Is(err, ErrInvalidBackend) {
		t.Errorf("Expected ErrInvalidBackend, got %v", err)
	}
	if err := settings.SetLanguage("de"); !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("Expected ErrInvalidLanguage, got %v", err)
	}
	if err := settings.SetSortOrder("random"); !errors.Is(err, ErrInvalidSortOrder) {
		t.Errorf("Expected ErrInvalidSortOrder, got %v", err)
	}
	if err := settings.SetLogLevel("loud"); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("Expected ErrInvalidLogLevel, got %v", err)
	}
	if settings.GetBackend() != DefaultBackend {
		t.Errorf("Invalid backend must not be stored, got %s", settings.GetBackend())
	}
	if settings.GetLanguage() != DefaultLanguage {
		t.Errorf("Invalid language must not be stored, got %s", settings.GetLanguage())
	}

	for _, backend := range settings.GetBackendOptions() {
		if err := settings.SetBackend(backend); err != nil {
			t.Errorf("Expected backend option %s to be accepted, got %v", backend, err)
		}
	}

	if err := settings.SetSortOrder("numeric"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if settings.GetSortOrder() != model.SortNumeric {
		t.Errorf("Expected numeric sort, got %s", settings.GetSortOrder())
	}
}

func TestFilenameTemplate(t *testing.T) {
	settings := NewSettings("")

	// Test default value
	if template := settings.GetFilenameTemplate(); template != DefaultFilenameTemplate {
		t.Errorf("Expected default template %s, got %s", DefaultFilenameTemplate, template)
	}

	// Test setting custom value
	customTemplate := "%(id)s.%(ext)s"
	settings.SetFilenameTemplate(customTemplate)
	if template := settings.GetFilenameTemplate(); template != customTemplate {
		t.Errorf("Expected template %s, got %s", customTemplate, template)
	}

	// Test empty template defaults back
	settings.SetFilenameTemplate("")
	if template := settings.GetFilenameTemplate(); template != DefaultFilenameTemplate {
		t.Errorf("Empty template should default to %s, got %s", DefaultFilenameTemplate, template)
	}
}

func TestTimeoutClamping(t *testing.T) {
	settings := NewSettings("")

	settings.SetTimeout(-time.Second)
	if settings.GetTimeout() != 0 {
		t.Errorf("Negative timeout should clamp to 0, got %s", settings.GetTimeout())
	}

	settings.SetTimeout(48 * time.Hour)
	if settings.GetTimeout() != MaxTimeout {
		t.Errorf("Timeout should clamp to %s, got %s", MaxTimeout, settings.GetTimeout())
	}
}

func TestGetLanguageOptions(t *testing.T) {
	settings := NewSettings("")
	options := settings.GetLanguageOptions()
	for _, lang := range []string{"system", "en", "ru", "pt"} {
		if _, ok := options[lang]; !ok {
			t.Errorf("Expected language option %s", lang)
		}
		if err := settings.SetLanguage(lang); err != nil {
			t.Errorf("Expected language option %s to be accepted, got %v", lang, err)
		}
	}
}

func TestAutoRevealOnComplete(t *testing.T) {
	settings := NewSettings("")
	if settings.GetAutoRevealOnComplete() != DefaultAutoRevealOnComplete {
		t.Errorf("Expected default %v", DefaultAutoRevealOnComplete)
	}
	settings.SetAutoRevealOnComplete(true)
	if !settings.GetAutoRevealOnComplete() {
		t.Error("Expected auto reveal to be enabled")
	}
}
