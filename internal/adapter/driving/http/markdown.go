package httphandler

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/autoreview/internal/application"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// reportMarkdown renders a review outcome as a human-readable markdown
// report. Finding messages come from generators and may echo file content,
// so the result must always pass through RenderMarkdown's sanitizer.
func reportMarkdown(out *application.ReviewOutcome) string {
	var b strings.Builder

	title := out.Doc.Title
	if title == "" {
		title = "Project"
	}
	fmt.Fprintf(&b, "## Review: %s\n\n", title)
	fmt.Fprintf(&b, "**Mode:** %s  \n**Score:** %d/100\n\n", out.Result.Mode, out.Result.Score)
	fmt.Fprintf(&b, "%s\n", out.Result.Summary)

	if len(out.Result.Findings) > 0 {
		b.WriteString("\n### Findings\n\n")
		for _, f := range out.Result.Findings {
			fmt.Fprintf(&b, "- `%s` **%s**: %s\n", f.Location(), f.Severity, f.Message)
		}
	}

	if len(out.Checklist.Items) > 0 {
		b.WriteString("\n### Checklist\n\n")
		for _, item := range out.Checklist.Items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}

	return b.String()
}
