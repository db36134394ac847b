package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_HeadingsBecomeATX(t *testing.T) {
	input := `<html><head><title>Survey</title><style>p{}</style></head>
<body>
<nav>skip me</nav>
<h1>1 Introduction</h1>
<p>Deep   learning
has grown.</p>
<h2>1.1 Scope</h2>
<ul><li>first</li><li>second</li></ul>
<img src="fig1.png" alt="Figure 1">
<script>var x = 1;</script>
</body></html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Survey" {
		t.Errorf("expected title %q, got %q", "Survey", doc.Title)
	}

	want := "# 1 Introduction\n\nDeep learning has grown.\n\n## 1.1 Scope\n\n- first\n\n- second\n\n![Figure 1](fig1.png)\n"
	if doc.Text != want {
		t.Errorf("unexpected markdown:\n got %q\nwant %q", doc.Text, want)
	}
	if len(doc.Assets) != 1 || doc.Assets[0] != "fig1.png" {
		t.Errorf("expected assets [fig1.png], got %v", doc.Assets)
	}
}

func TestHTMLParser_NoTitleUsesStem(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<p>hello</p>"), "plain.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "plain" {
		t.Errorf("expected title %q, got %q", "plain", doc.Title)
	}
	if doc.Text != "hello\n" {
		t.Errorf("expected %q, got %q", "hello\n", doc.Text)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"a.md", false},
		{"a.MARKDOWN", false},
		{"a.txt", false},
		{"a.html", false},
		{"a.docx", false},
		{"a.pdf", false},
		{"a.csv", true},
		{"noext", true},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ForFile(%q): err=%v, wantErr=%v", tt.name, err, tt.wantErr)
		}
		if IsSupportedExtension(tt.name) == tt.wantErr {
			t.Errorf("IsSupportedExtension(%q) disagrees with ForFile", tt.name)
		}
	}
}

func TestMarkdownBuilder(t *testing.T) {
	var b markdownBuilder
	if b.String() != "" {
		t.Errorf("empty builder should render empty, got %q", b.String())
	}
	b.block("  ")
	b.block(atx(2, "Heading"))
	b.block(" body ")
	if got, want := b.String(), "## Heading\n\nbody\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
