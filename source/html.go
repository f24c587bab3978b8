package source

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var (
	blankRunRe = regexp.MustCompile(`\n{3,}`)
	headingRe  = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)\s*#*\s*$`)
)

// boilerplateTags never carry extraction text.
var boilerplateTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"iframe": true, "object": true, "embed": true, "svg": true,
	"form": true, "button": true, "input": true, "select": true,
}

// HTMLConverter renders HTML documents as markdown.
type HTMLConverter struct {
	converter *md.Converter
}

// NewHTMLConverter returns a converter with GitHub-flavoured tables and lists.
func NewHTMLConverter() *HTMLConverter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLConverter{converter: converter}
}

// Convert returns the document title and the markdown rendering of its
// main content. The first of <main>, <article> or <body> found is used, with
// boilerplate elements removed.
func (c *HTMLConverter) Convert(raw []byte) (title, markdown string, err error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", "", err
	}

	title = htmlTitle(doc)
	stripElements(doc)

	content := doc
	for _, tag := range []string{"main", "article", "body"} {
		if n := firstElement(doc, tag); n != nil {
			content = n
			break
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, content); err != nil {
		return "", "", err
	}

	markdown, err = c.converter.ConvertString(buf.String())
	if err != nil {
		return "", "", err
	}
	markdown = strings.TrimSpace(blankRunRe.ReplaceAllString(markdown, "\n\n"))

	if title == "" {
		title = markdownTitle(markdown)
	}
	return title, markdown, nil
}

func htmlTitle(doc *html.Node) string {
	n := firstElement(doc, "title")
	if n == nil {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// firstElement returns the first element named tag in document order.
func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// stripElements detaches every boilerplate element from the tree.
func stripElements(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && boilerplateTags[c.Data] {
			n.RemoveChild(c)
		} else {
			stripElements(c)
		}
		c = next
	}
}

// markdownTitle returns the text of the first ATX heading.
func markdownTitle(markdown string) string {
	if m := headingRe.FindStringSubmatch(markdown); m != nil {
		return m[1]
	}
	return ""
}
