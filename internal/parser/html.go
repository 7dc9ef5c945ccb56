package parser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var htmlBlockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "br": true,
	"li": true, "tr": true, "table": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "blockquote": true,
}

// extractHTML walks the node tree collecting text nodes; script and style
// subtrees are skipped and block elements become paragraph breaks.
func extractHTML(raw []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", ErrCorruptDocument, err)
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && htmlBlockTags[n.Data] {
			b.WriteString("\n\n")
		}
	}
	walk(root)
	return b.String(), nil
}
