package parser

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// walk visits n and its descendants in document order. Returning false from
// visit skips the children of that node.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		// Grab the sibling first: visit may replace c.
		next := c.NextSibling
		walk(c, visit)
		c = next
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func classContains(n *html.Node, sub string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.Contains(strings.ToLower(c), sub) {
			return true
		}
	}
	return false
}

func isSkippedText(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style)
}

// textContent concatenates all text below n, excluding script and style.
func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if isSkippedText(c) {
			return false
		}
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Tr: true, atom.Table: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Section: true, atom.Br: true,
}

// textLines flattens n into visual lines, breaking at block elements and <br>.
// Items of an ordered list without an explicit number get their position
// prefixed, so "<ol><li>5</li></ol>" reads as "1. 5".
func textLines(n *html.Node) []string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(c *html.Node) {
		switch {
		case isSkippedText(c):
			return
		case c.Type == html.TextNode:
			sb.WriteString(c.Data)
			return
		case c.Type == html.ElementNode && blockAtoms[c.DataAtom]:
			sb.WriteByte('\n')
			if c.DataAtom == atom.Li && c.Parent != nil && c.Parent.DataAtom == atom.Ol {
				if !numberedLineRe.MatchString(textContent(c)) {
					sb.WriteString(strconv.Itoa(listPosition(c)) + ". ")
				}
			}
			defer sb.WriteByte('\n')
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			rec(cc)
		}
	}
	rec(n)

	var lines []string
	for _, l := range strings.Split(sb.String(), "\n") {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// listPosition returns the 1-based position of li among its <li> siblings.
func listPosition(li *html.Node) int {
	pos := 1
	for s := li.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.DataAtom == atom.Li {
			pos++
		}
	}
	return pos
}

func render(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

func replaceNode(old, repl *html.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.InsertBefore(repl, old)
	old.Parent.RemoveChild(old)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func kv(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
