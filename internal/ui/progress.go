package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ytget/yt-cli/internal/model"
)

// progressLine redraws a single terminal line with the state of the
// running download
type progressLine struct {
	mu       sync.Mutex
	out      io.Writer
	loc      *Localization
	enabled  bool
	drawn    bool
	lastText string
	lastDraw time.Time
}

func newProgressLine(out io.Writer, loc *Localization, enabled bool) *progressLine {
	return &progressLine{out: out, loc: loc, enabled: enabled}
}

// update redraws the line for task. Redraws closer than the debounce
// interval are skipped unless the status changed.
func (p *progressLine) update(task *model.DownloadTask) {
	if task.Status != model.TaskStatusDownloading && task.Status != model.TaskStatusMerging {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	text := renderProgress(task, p.loc)
	if text == p.lastText {
		return
	}
	statusChanged := !strings.HasPrefix(p.lastText, statusLabel(task, p.loc))
	if !statusChanged && time.Since(p.lastDraw) < ProgressRedrawDebounce {
		return
	}
	fmt.Fprint(p.out, ClearLine+text)
	p.drawn = true
	p.lastText = text
	p.lastDraw = time.Now()
}

// finish ends the progress line so following output starts on a new line
func (p *progressLine) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.out)
	}
	p.drawn = false
	p.lastText = ""
}

func statusLabel(task *model.DownloadTask, loc *Localization) string {
	if task.Status == model.TaskStatusMerging {
		return loc.GetText(KeyMerging)
	}
	return loc.GetText(KeyDownloading)
}

// renderProgress builds "Downloading 720p 42% · 1.2 MB/s · 00:12"
func renderProgress(task *model.DownloadTask, loc *Localization) string {
	var b strings.Builder
	b.WriteString(statusLabel(task, loc))
	if task.Format.Resolution != "" {
		b.WriteString(" ")
		b.WriteString(task.Format.Resolution)
	}
	b.WriteString(" ")
	fmt.Fprintf(&b, ProgressLabelFormat, effectivePercent(task))

	if task.Status == model.TaskStatusDownloading {
		speedEtaText := ""
		if task.Speed != "" {
			speedEtaText = task.Speed
		}
		if task.ETASec > 0 {
			if speedEtaText != "" {
				speedEtaText += MiddleDotSeparator
			}
			speedEtaText += task.GetETAString()
		}
		if speedEtaText == "" {
			speedEtaText = DashPlaceholder
		}
		b.WriteString(MiddleDotSeparator)
		b.WriteString(speedEtaText)
	}
	return b.String()
}

// effectivePercent derives a displayable percentage, never showing 0 once
// any progress was reported
func effectivePercent(task *model.DownloadTask) int {
	percent := task.Percent
	if task.Status == model.TaskStatusCompleted {
		return MaxProgressPercent
	}
	if percent <= 0 && task.Progress > 0 {
		percent = int(task.Progress*MaxProgressPercent + RoundingCoefficient)
		if percent == 0 {
			percent = MinProgressPercent
		}
	}
	if percent < 0 {
		percent = 0
	}
	if percent > MaxProgressPercent {
		percent = MaxProgressPercent
	}
	return percent
}
