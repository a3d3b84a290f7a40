package record

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	docFont     = "Calibri"
	docFontSize = 11
	titleSize   = 16
)

var (
	reHeading  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	reBold     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet   = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
	reNumbered = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)
)

// WriteDocx renders a markdown-ish summary into a Word document.
// Headings become bold runs, bullets get a bullet glyph, numbered items
// keep a bold number and **bold** spans are kept bold.
func WriteDocx(path, title, summary string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("record: new docx: %w", err)
	}

	addRun(doc.AddParagraph(""), title, true, titleSize)

	for _, line := range strings.Split(summary, "\n") {
		l, ok := parseLine(line)
		if !ok {
			continue
		}
		p := doc.AddParagraph("")
		switch l.kind {
		case lineHeading:
			addRun(p, l.text, true, headingSize(l.level))
		case lineBullet:
			addRich(p, "• "+l.text)
		case lineNumbered:
			addRun(p, l.marker+" ", true, docFontSize)
			addRich(p, l.text)
		default:
			addRich(p, l.text)
		}
	}

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("record: save docx %s: %w", path, err)
	}
	return nil
}

type lineKind int

const (
	lineText lineKind = iota
	lineHeading
	lineBullet
	lineNumbered
)

// docLine is one non-empty summary line classified for rendering.
type docLine struct {
	kind   lineKind
	level  int    // heading level
	marker string // "1." for numbered items
	text   string
}

// parseLine classifies a summary line. Blank lines and "---" rules are
// skipped.
func parseLine(line string) (docLine, bool) {
	t := strings.TrimSpace(line)
	if t == "" || t == "---" {
		return docLine{}, false
	}
	if m := reHeading.FindStringSubmatch(t); m != nil {
		return docLine{kind: lineHeading, level: len(m[1]), text: m[2]}, true
	}
	if m := reBullet.FindStringSubmatch(t); m != nil {
		return docLine{kind: lineBullet, text: m[1]}, true
	}
	if m := reNumbered.FindStringSubmatch(t); m != nil {
		return docLine{kind: lineNumbered, marker: m[1] + ".", text: m[2]}, true
	}
	return docLine{kind: lineText, text: t}, true
}

func headingSize(level int) uint64 {
	switch level {
	case 1:
		return 15
	case 2:
		return 14
	case 3:
		return 13
	default:
		return docFontSize
	}
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(stripInline(text)).Font(docFont).Size(size)
	if bold {
		run.Bold(true)
	}
}

// addRich splits text on **bold** spans.
func addRich(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(stripInline(part)).Font(docFont).Size(docFontSize)
		}
		if i < len(matches) {
			p.AddText(stripInline(matches[i][1])).Font(docFont).Size(docFontSize).Bold(true)
		}
	}
}

func stripInline(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
}
