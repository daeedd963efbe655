package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

// Operating system constants
const (
	OSDarwin  = "darwin"
	OSWindows = "windows"
	OSLinux   = "linux"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Command constants
const (
	OpenCommand     = "open"
	ExplorerCommand = "explorer"
	XDGOpenCommand  = "xdg-open"
)

// Command parameters
const (
	MacOSSelectFlag    = "-R"
	WindowsSelectParam = "/select,"
)

// File name limits
const (
	MaxFilenameLength = 120
	DefaultFileName   = "video"
	DefaultFileExt    = "mp4"
	MaxNameDifference = 10
)

// File extensions left behind by interrupted downloads
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

var unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if dirPath == "" {
		return errors.New("directory path is empty")
	}
	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dirPath)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// SafeFilename builds a cross-platform safe file name from a title and an
// extension given without the leading dot.
func SafeFilename(title, ext string) string {
	name := strings.TrimSpace(title)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		name = DefaultFileName
	}
	if len(name) > MaxFilenameLength {
		name = strings.TrimSpace(truncateUTF8(name, MaxFilenameLength))
	}
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = DefaultFileExt
	}
	return name + "." + ext
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// ExpandTemplate substitutes the %(title)s, %(id)s and %(ext)s fields of an
// output template. The title is sanitized for use as a file name.
func ExpandTemplate(template, title, id, ext string) string {
	safe := strings.TrimSuffix(SafeFilename(title, "x"), ".x")
	r := strings.NewReplacer(
		"%(title)s", safe,
		"%(id)s", id,
		"%(ext)s", ext,
	)
	return r.Replace(template)
}

// FindFileWithFallback returns filePath if it exists, otherwise the closest
// match with the same extension in the same directory. Downloaders sometimes
// tweak titles (trailing spaces, replaced characters), so exact paths can miss.
func FindFileWithFallback(filePath string) (string, error) {
	if filePath == "" {
		return "", fmt.Errorf("file path is empty")
	}

	if strings.HasPrefix(filePath, "http://") || strings.HasPrefix(filePath, "https://") {
		return "", fmt.Errorf("file path appears to be a URL: %s", filePath)
	}

	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil
	}

	dir := filepath.Dir(filePath)
	originalName := filepath.Base(filePath)
	originalExt := filepath.Ext(originalName)
	baseName := strings.TrimSuffix(originalName, originalExt)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || isPartialDownload(entry.Name()) {
			continue
		}
		entryExt := filepath.Ext(entry.Name())
		entryBase := strings.TrimSuffix(entry.Name(), entryExt)
		if entryExt == originalExt && isSimilarFileName(entryBase, baseName) {
			candidates = append(candidates, filepath.Join(dir, entry.Name()))
		}
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("file not found: %s", filePath)
	}

	sort.Strings(candidates)
	return candidates[0], nil
}

// isSimilarFileName checks if two file names are similar enough to be considered the same file
func isSimilarFileName(name1, name2 string) bool {
	clean1 := strings.TrimSpace(name1)
	clean2 := strings.TrimSpace(name2)

	if clean1 == clean2 {
		return true
	}

	for _, sep := range []string{"-", "_", " "} {
		if clean1 == sep+clean2 || clean1 == clean2+sep || clean2 == sep+clean1 || clean2 == clean1+sep {
			return true
		}
	}

	// truncated names
	if clean1 != "" && clean2 != "" && (strings.Contains(clean1, clean2) || strings.Contains(clean2, clean1)) {
		diff := len(clean1) - len(clean2)
		if diff < 0 {
			diff = -diff
		}
		return diff <= MaxNameDifference
	}

	return false
}

func isPartialDownload(name string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// RevealFile opens the system file manager at the given file
func RevealFile(filePath string) error {
	foundPath, err := FindFileWithFallback(filePath)
	if err != nil {
		return fmt.Errorf("file does not exist: %v", err)
	}

	absPath, err := filepath.Abs(foundPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case OSDarwin:
		cmd = exec.Command(OpenCommand, MacOSSelectFlag, absPath)
	case OSWindows:
		cmd = exec.Command(ExplorerCommand, WindowsSelectParam+absPath)
	case OSLinux:
		// selection is not standardized on Linux, open the parent directory
		cmd = exec.Command(XDGOpenCommand, filepath.Dir(absPath))
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	return cmd.Run()
}
