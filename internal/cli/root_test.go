package cli

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ytget/yt-cli/internal/config"
	"github.com/ytget/yt-cli/internal/model"
	"github.com/ytget/yt-cli/internal/platform"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func execute(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand("1.2.3")
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_QuitImmediately(t *testing.T) {
	path := writeConfig(t, "download_directory: "+t.TempDir()+"\n")

	out, _, err := execute(t, "q\n", "--config", path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "=== YouTube Video Downloader ===") || !strings.Contains(out, "Exiting...") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestRootCommand_Language(t *testing.T) {
	path := writeConfig(t, "")

	out, _, err := execute(t, "", "--config", path, "--lang", "ru")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "Выход...") {
		t.Errorf("Expected Russian prompts, got:\n%s", out)
	}
}

func TestRootCommand_Version(t *testing.T) {
	out, _, err := execute(t, "", "--version")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "1.2.3") {
		t.Errorf("Expected version in output, got %q", out)
	}
}

func TestRootCommand_Errors(t *testing.T) {
	path := writeConfig(t, "")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"invalid backend", []string{"--config", path, "--backend", "vlc"}, config.ErrInvalidBackend},
		{"invalid sort", []string{"--config", path, "--sort", "random"}, config.ErrInvalidSortOrder},
		{"invalid log level", []string{"--config", path, "--log-level", "loud"}, config.ErrInvalidLogLevel},
		{"invalid language", []string{"--config", path, "--lang", "de"}, config.ErrInvalidLanguage},
		{"broken config", []string{"--config", writeConfig(t, "backend: vlc\n")}, config.ErrInvalidBackend},
		{"positional args", []string{"--config", path, "https://youtu.be/x"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, "q\n", tt.args...)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadSettings_FlagsOverride(t *testing.T) {
	path := writeConfig(t, "backend: ytdlp\nsort_order: lexical\nlanguage: pt\n")

	cmd, opts := newRootCommand("dev")
	err := cmd.ParseFlags([]string{
		"--config", path,
		"-d", "/srv/videos",
		"--backend", "native",
		"--sort", "numeric",
		"--refetch-on-error",
		"--log-level", "debug",
		"--timeout", "30s",
		"--reveal",
		"-o", "%(id)s.%(ext)s",
	})
	if err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	settings, err := loadSettings(cmd, opts)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if settings.GetDownloadDirectory() != "/srv/videos" {
		t.Errorf("Expected dir override, got %s", settings.GetDownloadDirectory())
	}
	if settings.GetBackend() != platform.BackendNative {
		t.Errorf("Expected native backend, got %s", settings.GetBackend())
	}
	if settings.GetSortOrder() != model.SortNumeric {
		t.Errorf("Expected numeric sort, got %s", settings.GetSortOrder())
	}
	if !settings.GetRefetchOnError() {
		t.Error("Expected refetch on error")
	}
	if settings.GetTimeout() != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %s", settings.GetTimeout())
	}
	if !settings.GetAutoRevealOnComplete() {
		t.Error("Expected auto reveal")
	}
	if settings.GetFilenameTemplate() != "%(id)s.%(ext)s" {
		t.Errorf("Expected template override, got %s", settings.GetFilenameTemplate())
	}
	if settings.GetLanguage() != "pt" {
		t.Errorf("Expected unset flag to keep file value, got %s", settings.GetLanguage())
	}
}

func TestRootCommand_SaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yt-cli", config.ConfigFileName)

	_, _, err := execute(t, "q\n", "--config", path, "--sort", "numeric", "--save-config")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	settings, err := config.Load(path)
	if err != nil {
		t.Fatalf("Expected saved config to load, got %v", err)
	}
	if settings.GetSortOrder() != model.SortNumeric {
		t.Errorf("Expected saved sort order, got %s", settings.GetSortOrder())
	}
}

func TestNewBackend(t *testing.T) {
	w, flags := log.Writer(), log.Flags()
	t.Cleanup(func() {
		log.SetOutput(w)
		log.SetFlags(flags)
	})
	logger, _ := test.NewNullLogger()

	for _, name := range []string{platform.BackendYTDLP, platform.BackendNative} {
		settings := config.NewSettings("")
		if err := settings.SetBackend(name); err != nil {
			t.Fatal(err)
		}
		backend, err := newBackend(settings, logger)
		if err != nil {
			t.Fatalf("%s: expected no error, got %v", name, err)
		}
		if backend.Name() != name {
			t.Errorf("Expected backend %s, got %s", name, backend.Name())
		}
	}

	if log.Writer() != io.Discard {
		t.Error("Expected library logs to be discarded for the native backend")
	}
}
