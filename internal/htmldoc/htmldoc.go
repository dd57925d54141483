// Package htmldoc extracts review-relevant text from uploaded description
// and checklist documents. Documents are usually HTML exports, but plain
// text and markdown uploads parse too: the tokenizer treats them as one
// text body and the checklist falls back to line items.
package htmldoc

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"

	"github.com/ericfisherdev/autoreview/internal/domain/model"
)

// ParseDescription extracts the title, section headers (h1-h3), and body
// text (paragraphs and list items) from a description document. The title
// comes from <title>, falling back to the first <h1> and then to a leading
// markdown heading, so README files work as descriptions too.
func ParseDescription(doc []byte) model.ProjectDoc {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		// html.Parse is lenient; failure means unreadable input.
		return model.ProjectDoc{Content: collapseSpace(string(doc))}
	}

	out := model.ProjectDoc{Title: findTitle(root)}

	var firstH1 string
	var paras []string
	walk(root, func(n *html.Node) {
		switch n.Data {
		case "h1", "h2", "h3":
			if text := nodeText(n); text != "" {
				out.Headers = append(out.Headers, text)
				if firstH1 == "" && n.Data == "h1" {
					firstH1 = text
				}
			}
		case "p", "li":
			if text := nodeText(n); text != "" {
				paras = append(paras, text)
			}
		}
	})

	if out.Title == "" {
		out.Title = firstH1
	}
	if out.Title == "" {
		out.Title = markdownTitle(string(doc))
	}

	out.Content = strings.Join(paras, "\n")
	if out.Content == "" {
		out.Content = collapseSpace(string(doc))
	}
	return out
}

// ParseChecklist extracts the title and list items from a checklist
// document. Documents without <li> elements fall back to one item per
// non-empty line, so plain text checklists are accepted.
func ParseChecklist(doc []byte) model.Checklist {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return model.Checklist{Items: lineItems(string(doc))}
	}

	out := model.Checklist{Title: findTitle(root)}
	var paras []string
	walk(root, func(n *html.Node) {
		switch n.Data {
		case "li":
			if text := nodeText(n); text != "" {
				out.Items = append(out.Items, text)
			}
		case "p":
			if text := nodeText(n); text != "" {
				paras = append(paras, text)
			}
		}
	})

	// Documents without list markup: paragraphs, then raw lines.
	if len(out.Items) == 0 {
		out.Items = paras
	}
	if len(out.Items) == 0 {
		out.Items = lineItems(string(doc))
	}
	return out
}

// walk visits every element node in the tree, skipping script and style
// subtrees so their raw content never leaks into extracted text.
func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		if n.Data == "script" || n.Data == "style" {
			return
		}
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findTitle(root *html.Node) string {
	var title string
	var find func(*html.Node)
	find = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = nodeText(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(root)
	return title
}

// nodeText concatenates the text nodes under n, normalizing whitespace.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return collapseSpace(sb.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// markdownTitle returns the first "# " heading of a plain markdown
// document, or "".
func markdownTitle(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return collapseSpace(rest)
		}
	}
	return ""
}

// lineItems splits plain text into trimmed non-empty lines, stripping
// common list markers.
func lineItems(s string) []string {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
