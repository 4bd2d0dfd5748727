package render

import (
	"strings"

	"golang.org/x/net/html"
)

// Span is a run of text sharing one colour and weight.
type Span struct {
	Text  string
	Color string
	Bold  bool
}

// Line is one display line.
type Line []Span

// Text returns the line without styling.
func (l Line) Text() string {
	var sb strings.Builder
	for _, s := range l {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// ParseMarkup splits interpreter markup into lines of styled spans. Every
// <br> ends a line; text after the last <br> forms a final line only when it
// is not empty. Unknown tags are ignored and their text kept.
func ParseMarkup(markup string) []Line {
	z := html.NewTokenizer(strings.NewReader(markup))
	var (
		lines  []Line
		cur    Line
		colors []string
		bold   int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if len(cur) > 0 {
				lines = append(lines, cur)
			}
			return lines
		case html.TextToken:
			text := strings.ReplaceAll(string(z.Text()), "\u00a0", " ")
			if text == "" {
				continue
			}
			span := Span{Text: text, Bold: bold > 0}
			if n := len(colors); n > 0 {
				span.Color = colors[n-1]
			}
			cur = append(cur, span)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "br":
				lines = append(lines, cur)
				cur = nil
			case "b":
				bold++
			case "font":
				color := ""
				for hasAttr {
					var key, val []byte
					key, val, hasAttr = z.TagAttr()
					if string(key) == "color" {
						color = string(val)
					}
				}
				colors = append(colors, color)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "b":
				if bold > 0 {
					bold--
				}
			case "font":
				if n := len(colors); n > 0 {
					colors = colors[:n-1]
				}
			}
		}
	}
}

// StripMarkup returns the markup as plain text, one line per <br>.
func StripMarkup(markup string) []string {
	lines := ParseMarkup(markup)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}
