package fetcher

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetLen = 512

// htmlTitle extracts the <title> of bodies that are HTML pages, typically upstream error pages.
func htmlTitle(contentType string, body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if !strings.Contains(strings.ToLower(contentType), "html") && !bytes.HasPrefix(trimmed, []byte("<")) {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
	if err != nil {
		return "", false
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return "", false
	}
	return title, true
}

func responseSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
