package output

import (
	"fmt"
	"strings"

	"github.com/tecnobros/battly-setup/internal/progress"
)

const barWidth = 30

// RenderProgress writes notifications from ch until it is closed. Text
// output draws a single updating bar when live is set and one line per
// notification otherwise; structured formats write every notification.
func (w *Writer) RenderProgress(ch <-chan progress.Notification, live bool) error {
	var lastLine int
	for n := range ch {
		if w.format != FormatText {
			if err := w.Write(n); err != nil {
				return err
			}
			continue
		}

		line := describe(n)
		if live && n.Kind == progress.KindProgress {
			pad := ""
			if d := lastLine - len(line); d > 0 {
				pad = strings.Repeat(" ", d)
			}
			if _, err := fmt.Fprintf(w.w, "\r%s%s", line, pad); err != nil {
				return err
			}
			lastLine = len(line)
			continue
		}

		if lastLine > 0 {
			if _, err := fmt.Fprintln(w.w); err != nil {
				return err
			}
			lastLine = 0
		}
		if _, err := fmt.Fprintln(w.w, line); err != nil {
			return err
		}
	}
	if lastLine > 0 {
		_, err := fmt.Fprintln(w.w)
		return err
	}
	return nil
}

func describe(n progress.Notification) string {
	switch n.Kind {
	case progress.KindFinished:
		return "Install finished"
	case progress.KindFailed:
		if !n.Stage.IsFatal() {
			return fmt.Sprintf("Install interrupted during %s: %s", n.Stage, n.Cause)
		}
		return fmt.Sprintf("Install failed during %s: %s", n.Stage, n.Cause)
	}
	if n.Event == nil {
		return string(n.Kind)
	}
	return fmt.Sprintf("%s %s", bar(n.Event.Fraction), n.Event)
}

func bar(fraction float64) string {
	filled := int(fraction * barWidth)
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled) + "]"
}
