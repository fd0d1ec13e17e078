package ui

import (
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

const (
	defaultWidth = 100
	minWidth     = 20

	codeBar = "┃"

	ansiRed      = "\x1b[31m"
	ansiDarkGray = "\x1b[90m"
	ansiReset    = "\x1b[0m"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// RenderMarkdown renders content for a terminal of the given width. Plain
// URLs are left for the terminal to detect.
func RenderMarkdown(content string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}
	width = max(width, minWidth)

	content = mdLinkRegex.ReplaceAllString(content, "$2")

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	rendered := string(gomarkdown.Render(p.Parse([]byte(content)), r))

	rendered = inlineCodeRegex.ReplaceAllString(rendered, ansiRed+"$1"+ansiReset)
	rendered = colorURLs(rendered)
	rendered = frameCodeBlocks(rendered, width)

	return strings.TrimRight(rendered, "\n")
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if !strings.Contains(line, codeBar) {
			lines[i] = urlRegex.ReplaceAllString(line, ansiRed+"$1"+ansiReset)
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks replaces the bar in front of code lines with a border
// above and below the block.
func frameCodeBlocks(s string, width int) string {
	var (
		result []string
		inCode bool
	)

	top := codeBorder(width, "[code]")
	bottom := codeBorder(width, "")

	for _, line := range strings.Split(s, "\n") {
		if idx := strings.Index(line, codeBar); idx >= 0 {
			if !inCode {
				inCode = true
				result = append(result, "", top)
			}
			line = strings.TrimPrefix(line[idx+len(codeBar):], " ")
			result = append(result, line)
			continue
		}
		if inCode {
			inCode = false
			result = append(result, bottom, "")
		}
		result = append(result, line)
	}
	if inCode {
		result = append(result, bottom)
	}

	return strings.Join(result, "\n")
}

func codeBorder(width int, label string) string {
	n := width - 4 - len(label)
	left := n / 2
	right := n - left
	return ansiDarkGray + strings.Repeat("━", left) + ansiReset + label + ansiDarkGray + strings.Repeat("━", right) + ansiReset
}

// StripANSI removes terminal color codes.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
