// Package parser turns generated worksheet markup into questions with
// interactive inputs and an extracted answer key.
//
// Parsing is total: malformed or pattern-free markup degrades to fallback
// inputs and an empty answer key, never to an error.
package parser

import (
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pavelanni/worksheet/internal/model"
)

// Parse decomposes a raw worksheet document. Question ids are 1-based in
// document order and only stable within one parse of one document.
func Parse(raw string) model.ParsedWorksheet {
	ws := model.ParsedWorksheet{Questions: []model.ParsedQuestion{}}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		slog.Warn("worksheet markup could not be parsed", "error", err)
		return ws
	}

	var styles []string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			styles = append(styles, sb.String())
			return false
		}
		return true
	})
	ws.Stylesheet = strings.Join(styles, "\n")

	var keyNodes, questionNodes []*html.Node
	walk(doc, func(n *html.Node) bool {
		switch {
		case n.Type != html.ElementNode:
			return true
		case isAnswerKey(n):
			keyNodes = append(keyNodes, n)
			return false
		case hasClass(n, "question"):
			questionNodes = append(questionNodes, n)
			return false
		}
		return true
	})

	ws.AnswerKey = extractAnswerKey(keyNodes)
	ws.HasAnswerKey = len(ws.AnswerKey) > 0

	for i, qn := range questionNodes {
		id := i + 1
		kind := classify(qn)
		slots, pattern := injectBlanks(id, qn)
		if pattern == model.BlankFallback || pattern == model.BlankFallbackMatching {
			slog.Debug("question used fallback input", "question_id", id, "pattern", pattern)
		}
		correct, _ := ws.AnswerKey.Get(id)
		ws.Questions = append(ws.Questions, model.ParsedQuestion{
			ID:            id,
			Markup:        render(qn),
			CorrectAnswer: correct,
			Kind:          kind,
			SlotIDs:       slots,
			Pattern:       pattern,
		})
	}
	ws.TotalQuestions = len(ws.Questions)

	return ws
}
