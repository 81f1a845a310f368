package diag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Excerpt renders err for a terminal. Located errors show the message, the
// file position and the offending source line with the span underlined.
// Other errors render as their message.
func Excerpt(err error, colorize bool) string {
	var syntax *SyntaxError
	if !errors.As(err, &syntax) {
		return err.Error()
	}

	title := "SyntaxError"

	var capture *ClosureCaptureError
	if errors.As(err, &capture) {
		title = "ClosureCaptureError"
	}

	heading := palette(colorize, color.FgRed, color.Bold)
	dim := palette(colorize, color.Faint)
	mark := palette(colorize, color.FgRed, color.Bold)

	var b strings.Builder

	b.WriteString(heading.Sprint(title+": ") + syntax.Message + "\n")

	where := fmt.Sprintf("line %d, column %d", syntax.Line, syntax.Column)
	if syntax.Path != "" {
		where = fmt.Sprintf("%s:%d:%d", syntax.Path, syntax.Line, syntax.Column)
	}

	b.WriteString(dim.Sprint("  at "+where) + "\n")

	if syntax.Source == "" {
		return b.String()
	}

	lineStart := strings.LastIndexByte(syntax.Source[:clamp(syntax.Span.Start, syntax.Source)], '\n') + 1
	lineEnd := strings.IndexByte(syntax.Source[lineStart:], '\n')

	if lineEnd < 0 {
		lineEnd = len(syntax.Source)
	} else {
		lineEnd += lineStart
	}

	line := strings.TrimRight(syntax.Source[lineStart:lineEnd], "\r")
	start := clamp(syntax.Span.Start-lineStart, line)
	end := clamp(syntax.Span.End-lineStart, line)

	if end <= start {
		end = min(start+1, len(line))
	}

	gutter := strconv.Itoa(syntax.Line)
	pad := strings.Repeat(" ", len(gutter))

	b.WriteString("\n")
	b.WriteString(dim.Sprint(" "+gutter+" | ") + line[:start] + mark.Sprint(line[start:end]) + line[end:] + "\n")
	b.WriteString(dim.Sprint(" "+pad+" | ") + indent(line[:start]) +
		mark.Sprint(strings.Repeat("^", max(end-start, 1))) + "\n")

	return b.String()
}

func palette(colorize bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)

	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}

	return c
}

func clamp(offset int, s string) int {
	return max(0, min(offset, len(s)))
}

// indent keeps tabs so the caret line aligns under the source line.
func indent(prefix string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return '\t'
		}

		return ' '
	}, prefix)
}
