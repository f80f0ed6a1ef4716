package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pavelanni/worksheet/internal/model"
)

var digitRe = regexp.MustCompile(`\d`)

// classify guesses the answer shape of a question. It is a hint for the UI,
// not grading information.
func classify(root *html.Node) model.QuestionKind {
	tabular, wordProblem := false, false
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if n.DataAtom == atom.Table || classContains(n, "column") {
			tabular = true
		}
		if hasClass(n, "word-problem") {
			wordProblem = true
		}
		return true
	})

	text := textContent(root)
	switch {
	case tabular:
		return model.KindEquation
	case wordProblem || strings.Contains(strings.ToLower(text), "word problem"):
		return model.KindMixed
	case digitRe.MatchString(text):
		return model.KindNumeric
	default:
		return model.KindText
	}
}
