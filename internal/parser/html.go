package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docxlate/internal/document"
	"golang.org/x/net/html"
)

// HTMLParser converts HTML into Markdown, mapping h1-h6 to ATX headings.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.RawDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &document.RawDocument{
		Title:    stem(filename),
		Filename: filename,
	}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	var md markdownBuilder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					md.block(atx(level, t))
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "img":
				if src := attr(n, "src"); src != "" {
					md.block(fmt.Sprintf("![%s](%s)", attr(n, "alt"), src))
					doc.Assets = append(doc.Assets, src)
				}
				return
			case "pre":
				md.block("```\n" + rawText(n) + "\n```")
				return
			case "li":
				md.block("- " + textContent(n))
				return
			case "blockquote":
				md.block("> " + textContent(n))
				return
			case "p", "td":
				md.block(textContent(n))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(root); body != nil {
		walk(body)
	} else {
		walk(root)
	}
	doc.Text = md.String()

	return doc, nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent collapses whitespace the way a browser would.
func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawText(n)), " ")
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Trim(buf.String(), "\n")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
