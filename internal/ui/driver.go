package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-cli/internal/download"
	"github.com/ytget/yt-cli/internal/model"
	"github.com/ytget/yt-cli/internal/platform"
)

// Driver runs the interactive prompt loop: ask for a URL, list its formats,
// ask for a quality index, download, and offer to continue.
type Driver struct {
	in        io.Reader
	out       io.Writer
	service   download.Downloader
	outputDir string
	loc       *Localization
	log       logrus.FieldLogger

	progress         *progressLine
	revealOnComplete bool
}

// NewDriver creates a driver reading answers from in and writing prompts to
// out. Files are downloaded into outputDir.
func NewDriver(in io.Reader, out io.Writer, service download.Downloader, outputDir string, loc *Localization, log logrus.FieldLogger) *Driver {
	if loc == nil {
		loc = NewLocalization()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &Driver{
		in:        in,
		out:       out,
		service:   service,
		outputDir: outputDir,
		loc:       loc,
		log:       log.WithField("component", "ui"),
		progress:  newProgressLine(out, loc, false),
	}
	service.SetUpdateCallback(d.progress.update)
	return d
}

// SetShowProgress enables the live progress line. Only useful when out is
// a terminal.
func (d *Driver) SetShowProgress(enabled bool) {
	d.progress.mu.Lock()
	d.progress.enabled = enabled
	d.progress.mu.Unlock()
}

// SetRevealOnComplete opens the containing folder after each download
func (d *Driver) SetRevealOnComplete(enabled bool) {
	d.revealOnComplete = enabled
}

// Run executes the prompt loop until the user quits, input ends, or ctx is
// cancelled. It returns ctx.Err() when interrupted and nil otherwise.
func (d *Driver) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines := d.readLines(done)

	fmt.Fprintln(d.out, d.loc.GetText(KeyAppTitle))
	fmt.Fprintln(d.out, d.loc.Textf(KeyDownloadDirectory, d.outputDir))
	defer fmt.Fprintf(d.out, "\n%s\n", d.loc.GetText(KeyExiting))
	defer d.logSummary()

	for {
		url, ok := d.prompt(ctx, lines, KeyEnterURL)
		if !ok {
			return ctx.Err()
		}
		if strings.EqualFold(url, QuitAnswer) {
			return nil
		}

		formats := d.listFormats(ctx, url)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(formats) == 0 {
			fmt.Fprintln(d.out, d.loc.GetText(KeyNoFormats))
			continue
		}
		d.printFormats(formats)

		quality, ok := d.askQuality(ctx, lines)
		if !ok {
			return ctx.Err()
		}

		d.download(ctx, url, quality)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		answer, ok := d.prompt(ctx, lines, KeyDownloadAnother)
		if !ok {
			return ctx.Err()
		}
		if !strings.EqualFold(answer, YesAnswer) {
			return nil
		}
	}
}

// readLines feeds input lines into a channel so prompts can be abandoned
// on cancellation. The channel is closed at end of input.
func (d *Driver) readLines(done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(d.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			d.log.WithError(err).Warn("Failed to read input")
		}
	}()
	return lines
}

// prompt prints the text for key and waits for one trimmed line. ok is
// false at end of input or on cancellation.
func (d *Driver) prompt(ctx context.Context, lines <-chan string, key string) (string, bool) {
	fmt.Fprintf(d.out, "\n%s", d.loc.GetText(key))
	select {
	case line, ok := <-lines:
		if !ok {
			fmt.Fprintln(d.out)
			return "", false
		}
		return strings.TrimSpace(line), true
	case <-ctx.Done():
		fmt.Fprintln(d.out)
		return "", false
	}
}

// askQuality repeats the quality prompt until a non-negative integer is
// entered. There is no upper bound; the downloader clamps it.
func (d *Driver) askQuality(ctx context.Context, lines <-chan string) (int, bool) {
	for {
		answer, ok := d.prompt(ctx, lines, KeyChooseQuality)
		if !ok {
			return 0, false
		}
		quality, err := parseQuality(answer)
		if err != nil {
			fmt.Fprintln(d.out, d.loc.GetText(KeyInvalidNumber))
			continue
		}
		if quality < 0 {
			fmt.Fprintln(d.out, d.loc.GetText(KeyNumberAtLeastZero))
			continue
		}
		return quality, true
	}
}

// parseQuality parses a quality index. Integers too large for int still
// mean "the last format" and saturate instead of failing.
func parseQuality(answer string) (int, error) {
	quality, err := strconv.Atoi(answer)
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		if strings.HasPrefix(answer, "-") {
			return math.MinInt, nil
		}
		return math.MaxInt, nil
	}
	return quality, err
}

func (d *Driver) listFormats(ctx context.Context, url string) []model.Format {
	if url == "" {
		return nil
	}
	formats, err := d.service.ListFormats(ctx, url)
	if err != nil {
		d.log.WithError(err).Debug("Listing formats failed")
	}
	return formats
}

func (d *Driver) printFormats(formats []model.Format) {
	fmt.Fprintf(d.out, "\n%s\n", d.loc.GetText(KeyAvailableFormats))
	for i, f := range formats {
		fmt.Fprintf(d.out, FormatLineFormat, i, f.String())
	}
}

func (d *Driver) download(ctx context.Context, url string, quality int) {
	task, err := d.service.Download(ctx, url, d.outputDir, quality)
	d.progress.finish()

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			fmt.Fprintf(d.out, "\n%s\n", d.loc.GetText(KeyDownloadStopped))
			return
		}
		fmt.Fprintf(d.out, "\n%s\n", d.loc.Textf(KeyDownloadFailed, err))

		var dlErr *download.DownloadError
		if errors.As(err, &dlErr) {
			d.printFormats(dlErr.Formats)
		}
		return
	}

	fmt.Fprintf(d.out, "\n%s\n", d.loc.Textf(KeyDownloadCompleted, task.Format.Resolution))
	d.log.WithFields(logrus.Fields{
		"title":   task.GetDisplayTitle(),
		"format":  task.Format.ID,
		"elapsed": task.Elapsed().Round(time.Millisecond),
	}).Info("Download finished")
	if task.OutputPath == "" {
		return
	}
	fmt.Fprintln(d.out, d.loc.Textf(KeySavedTo, task.OutputPath))
	if d.revealOnComplete {
		if err := platform.RevealFile(task.OutputPath); err != nil {
			d.log.WithError(err).WithField("path", task.OutputPath).Warn("Failed to reveal file")
		}
	}
}

// logSummary reports what the session did once the loop ends
func (d *Driver) logSummary() {
	var finished, completed int
	tasks := d.service.GetAllTasks()
	for _, task := range tasks {
		if task.Status.IsFinished() {
			finished++
		}
		if task.Status == model.TaskStatusCompleted {
			completed++
		}
	}
	d.log.WithFields(logrus.Fields{
		"tasks":     len(tasks),
		"finished":  finished,
		"completed": completed,
	}).Debug("Session ended")
}
