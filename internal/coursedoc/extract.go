package coursedoc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// extracted is the plain text of a document plus a title hint used when the
// text has no "Course Title:" line.
type extracted struct {
	text  string
	title string
}

// extractors maps a lowercase file extension to its text extractor.
var extractors = map[string]func(content []byte) (extracted, error){
	".txt":      plainText,
	".md":       markdownText,
	".markdown": markdownText,
	".html":     htmlText,
	".htm":      htmlText,
	".docx":     docxText,
}

func extract(name string, content []byte) (extracted, error) {
	fn, ok := extractors[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return extracted{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(name))
	}
	return fn(content)
}

func plainText(content []byte) (extracted, error) {
	return extracted{text: strings.ReplaceAll(string(content), "\r\n", "\n")}, nil
}

var (
	mdFence      = regexp.MustCompile("(?m)^\\s*```.*$")
	mdImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdQuote      = regexp.MustCompile(`(?m)^>\s*`)
	mdRule       = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	mdLinkHeader = regexp.MustCompile(`(?i)^\s*(course|lesson)\s+link:`)
	mdFirstH1    = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// markdownText drops formatting so header and lesson markers written as
// headings or bold text still match. Links keep their URL on link lines
// and their text elsewhere.
func markdownText(content []byte) (extracted, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	// The first H1 becomes the title hint and leaves the text, so a
	// "Course Title:" header below it is still read as the header.
	var out extracted
	if loc := mdFirstH1.FindStringSubmatchIndex(text); loc != nil {
		out.title = strings.TrimSpace(strings.ReplaceAll(text[loc[2]:loc[3]], "**", ""))
		text = text[:loc[0]] + strings.TrimPrefix(text[loc[1]:], "\n")
	}

	text = mdFence.ReplaceAllString(text, "")
	text = mdImage.ReplaceAllString(text, "")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdQuote.ReplaceAllString(text, "")
	text = mdRule.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if mdLinkHeader.MatchString(line) {
			lines[i] = mdLink.ReplaceAllString(line, "$2")
		} else {
			lines[i] = mdLink.ReplaceAllString(line, "$1")
		}
	}
	out.text = strings.Join(lines, "\n")
	return out, nil
}

var (
	htmlTitle      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlDropped    = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(script|style|noscript|head|svg)>`)
	htmlComment    = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlBlockOpen  = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	htmlBlockClose = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	htmlBreak      = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	htmlAnchor     = regexp.MustCompile(`(?is)<a\s[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
	htmlSpaces     = regexp.MustCompile(`[ \t]+`)
)

// htmlText renders block elements as lines. Anchors on link lines keep
// their href.
func htmlText(content []byte) (extracted, error) {
	raw := string(content)

	var out extracted
	if m := htmlTitle.FindStringSubmatch(raw); m != nil {
		out.title = strings.TrimSpace(html.UnescapeString(m[1]))
	}

	raw = htmlDropped.ReplaceAllString(raw, "")
	raw = htmlComment.ReplaceAllString(raw, "")
	raw = htmlBlockOpen.ReplaceAllString(raw, "\n")
	raw = htmlBlockClose.ReplaceAllString(raw, "\n")
	raw = htmlBreak.ReplaceAllString(raw, "\n")

	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if mdLinkHeader.MatchString(htmlTag.ReplaceAllString(line, "")) {
			line = htmlAnchor.ReplaceAllString(line, "$1")
		}
		line = htmlTag.ReplaceAllString(line, "")
		line = html.UnescapeString(line)
		line = strings.TrimSpace(htmlSpaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	out.text = strings.Join(kept, "\n")
	return out, nil
}

// wordDocument is the part of word/document.xml that holds text.
type wordDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text []string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// docxText reads one line per paragraph from word/document.xml and the
// title from docProps/core.xml.
func docxText(content []byte) (extracted, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return extracted{}, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	body, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return extracted{}, err
	}
	if body == nil {
		return extracted{}, fmt.Errorf("%w: docx has no word/document.xml", domain.ErrInvalidInput)
	}

	var doc wordDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return extracted{}, fmt.Errorf("%w: parse document.xml: %v", domain.ErrInvalidInput, err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				b.WriteString(t)
			}
		}
		lines = append(lines, b.String())
	}

	out := extracted{text: strings.Join(lines, "\n")}
	if core, err := readZipFile(zr, "docProps/core.xml"); err == nil && core != nil {
		var props struct {
			Title string `xml:"title"`
		}
		if xml.Unmarshal(core, &props) == nil {
			out.title = strings.TrimSpace(props.Title)
		}
	}
	return out, nil
}

// readZipFile returns nil content when name is absent.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidInput, name, err)
		}
		return data, nil
	}
	return nil, nil
}
