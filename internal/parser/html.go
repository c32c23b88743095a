package parser

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	looksLikeHTML = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^>]*)?/?>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
)

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true, "footer": true,
	"ul": true, "ol": true, "table": true, "tr": true, "blockquote": true, "pre": true,
	"dl": true, "dt": true, "dd": true, "hr": true,
}

var headingLevels = map[string]int{"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6}

// htmlToText renders HTML as plain text that keeps its structure: block
// elements become line breaks, list items become "• " bullets and headings
// become markdown headers. Text without tags only has its entities decoded.
func htmlToText(s string) string {
	if !looksLikeHTML.MatchString(s) {
		return html.UnescapeString(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return html.UnescapeString(anyTag.ReplaceAllString(s, "\n"))
	}

	var b strings.Builder
	renderNode(&b, doc.Selection)
	return b.String()
}

func renderNode(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(strings.Join(strings.Fields(c.Text()), " "))
			b.WriteString(" ")
		case name == "script" || name == "style" || name == "head" || name == "#comment":
		case name == "br":
			b.WriteString("\n")
		case name == "li":
			b.WriteString("\n• ")
			renderNode(b, c)
			b.WriteString("\n")
		case headingLevels[name] > 0:
			b.WriteString("\n")
			b.WriteString(strings.Repeat("#", headingLevels[name]))
			b.WriteString(" ")
			b.WriteString(strings.Join(strings.Fields(c.Text()), " "))
			b.WriteString("\n")
		case blockElements[name]:
			b.WriteString("\n")
			renderNode(b, c)
			b.WriteString("\n")
		default:
			renderNode(b, c)
		}
	})
}
