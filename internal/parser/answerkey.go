package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pavelanni/worksheet/internal/model"
)

var answerEntryRe = regexp.MustCompile(`^\s*(\d+)\s*[.):]\s*(.*?)\s*$`)

func isAnswerKey(n *html.Node) bool {
	return hasClass(n, "answer-key") || hasClass(n, "answers") || attr(n, "id") == "answer-key"
}

// extractAnswerKey reads "{number}. {answer}" lines from every answer-key
// container in document order. Later entries for the same number win.
func extractAnswerKey(containers []*html.Node) model.AnswerKey {
	var key model.AnswerKey
	for _, c := range containers {
		for _, line := range textLines(c) {
			m := answerEntryRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			num, err := strconv.Atoi(m[1])
			if err != nil || num <= 0 {
				continue
			}
			key = key.Set(num, strings.TrimSpace(m[2]))
		}
	}
	return key
}
