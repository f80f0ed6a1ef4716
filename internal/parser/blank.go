package parser

import (
	"regexp"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pavelanni/worksheet/internal/model"
)

// BlankPattern is one detected answer-collection point in a question
// fragment. Each variant knows the span it matched and how to replace it.
type BlankPattern interface {
	Kind() model.BlankKind
	// inject rewrites the fragment and returns the slot id of the new input.
	inject(questionID int, root *html.Node) string
}

// AnswerLine is an element carrying the answer-line marker class.
type AnswerLine struct {
	Node  *html.Node
	Index int
	Count int
}

// AnswerBox is an empty box placeholder, inline or block.
type AnswerBox struct {
	Node  *html.Node
	Index int
	Count int
}

// UnderscoreRun is a run of three or more underscores inside a text node.
// Start and End are byte offsets into Text.Data.
type UnderscoreRun struct {
	Text       *html.Node
	Start, End int
	Index      int
	Count      int
}

// Fallback is used when a fragment has no recognized blank at all.
type Fallback struct {
	Matching bool
	Rows     int
}

func (AnswerLine) Kind() model.BlankKind    { return model.BlankAnswerLine }
func (AnswerBox) Kind() model.BlankKind     { return model.BlankAnswerBox }
func (UnderscoreRun) Kind() model.BlankKind { return model.BlankUnderscore }

func (f Fallback) Kind() model.BlankKind {
	if f.Matching {
		return model.BlankFallbackMatching
	}
	return model.BlankFallback
}

const (
	inputClass       = "worksheet-input"
	matchingHelpText = "Enter left-right pairs separated by commas, e.g. 1-b, 2-a"
)

var underscoreRunRe = regexp.MustCompile(`_{3,}`)

// slotID is the structured identifier of the k-th of n inputs in a question.
func slotID(questionID, k, n int) string {
	if n <= 1 {
		return strconv.Itoa(questionID)
	}
	return strconv.Itoa(questionID) + "-" + strconv.Itoa(k)
}

func (p AnswerLine) inject(questionID int, _ *html.Node) string {
	slot := slotID(questionID, p.Index, p.Count)
	replaceNode(p.Node, element(atom.Input,
		kv("type", "text"),
		kv("class", inputClass+" answer-line-input"),
		kv("data-question-id", strconv.Itoa(questionID)),
		kv("data-slot-id", slot),
		kv("name", slot),
		kv("autocomplete", "off"),
	))
	return slot
}

func (p AnswerBox) inject(questionID int, _ *html.Node) string {
	// Several boxes in one question are told apart by their own id.
	slot := slotID(questionID, p.Index, p.Count)
	replaceNode(p.Node, element(atom.Input,
		kv("type", "text"),
		kv("class", inputClass+" answer-box-input"),
		kv("data-question-id", slot),
		kv("data-slot-id", slot),
		kv("name", slot),
		kv("style", "width:60px;text-align:center;"),
		kv("autocomplete", "off"),
	))
	return slot
}

func (p UnderscoreRun) inject(questionID int, _ *html.Node) string {
	slot := slotID(questionID, p.Index, p.Count)
	width := (p.End - p.Start) * 12
	width = max(40, min(width, 300))

	text := p.Text.Data
	before, after := text[:p.Start], text[p.End:]
	parent := p.Text.Parent
	next := p.Text.NextSibling

	p.Text.Data = before
	parent.InsertBefore(element(atom.Input,
		kv("type", "text"),
		kv("class", inputClass+" blank-input"),
		kv("data-question-id", strconv.Itoa(questionID)),
		kv("data-slot-id", slot),
		kv("name", slot),
		kv("style", "width:"+strconv.Itoa(width)+"px;"),
		kv("autocomplete", "off"),
	), next)
	if after != "" {
		parent.InsertBefore(textNode(after), next)
	}
	return slot
}

func (p Fallback) inject(questionID int, root *html.Node) string {
	slot := strconv.Itoa(questionID)
	container := element(atom.Div, kv("class", "answer-input-container"))
	if p.Matching {
		rows := max(p.Rows, 3)
		container.AppendChild(element(atom.Textarea,
			kv("class", inputClass+" matching-input"),
			kv("data-question-id", slot),
			kv("data-slot-id", slot),
			kv("name", slot),
			kv("rows", strconv.Itoa(rows)),
			kv("placeholder", matchingHelpText),
		))
	} else {
		container.AppendChild(element(atom.Input,
			kv("type", "text"),
			kv("class", inputClass+" fallback-input"),
			kv("data-question-id", slot),
			kv("data-slot-id", slot),
			kv("name", slot),
			kv("placeholder", "Your answer"),
			kv("autocomplete", "off"),
		))
	}
	root.AppendChild(container)
	return slot
}

// detectBlanks returns the blanks of the first pattern class that matches
// anything in root, in priority order: answer lines, answer boxes,
// underscore runs. Only when none of them match is a Fallback returned.
func detectBlanks(root *html.Node) []BlankPattern {
	if lines := findMarked(root, "answer-line"); len(lines) > 0 {
		out := make([]BlankPattern, len(lines))
		for i, n := range lines {
			out[i] = AnswerLine{Node: n, Index: i, Count: len(lines)}
		}
		return out
	}
	if boxes := findMarked(root, "answer-box"); len(boxes) > 0 {
		out := make([]BlankPattern, len(boxes))
		for i, n := range boxes {
			out[i] = AnswerBox{Node: n, Index: i, Count: len(boxes)}
		}
		return out
	}
	if runs := findUnderscoreRuns(root); len(runs) > 0 {
		return runs
	}
	return []BlankPattern{detectFallback(root)}
}

// findMarked returns the outermost elements below root carrying class.
func findMarked(root *html.Node, class string) []*html.Node {
	var found []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if hasClass(n, class) {
				found = append(found, n)
				return false
			}
			return true
		})
	}
	return found
}

func findUnderscoreRuns(root *html.Node) []BlankPattern {
	var runs []UnderscoreRun
	walk(root, func(n *html.Node) bool {
		if isSkippedText(n) || (n.Type == html.ElementNode && n.DataAtom == atom.Textarea) {
			return false
		}
		if n.Type != html.TextNode {
			return true
		}
		for _, loc := range underscoreRunRe.FindAllStringIndex(n.Data, -1) {
			runs = append(runs, UnderscoreRun{Text: n, Start: loc[0], End: loc[1]})
		}
		return true
	})
	out := make([]BlankPattern, len(runs))
	for i := range runs {
		runs[i].Index = i
		runs[i].Count = len(runs)
		out[i] = runs[i]
	}
	return out
}

var (
	matchKeywordRe = regexp.MustCompile(`(?i)\bmatch(es|ing)?\b`)
	numberedLineRe = regexp.MustCompile(`^\s*\d+\s*[.)]\s*\S`)
)

const maxShortRowLen = 60

func detectFallback(root *html.Node) Fallback {
	rows := 0
	for _, l := range textLines(root) {
		if numberedLineRe.MatchString(l) && len([]rune(l)) <= maxShortRowLen {
			rows++
		}
	}
	matching := rows >= 3 || matchKeywordRe.MatchString(textContent(root))
	return Fallback{Matching: matching, Rows: rows}
}

// injectBlanks rewrites root in place and returns the slot ids in document
// order together with the pattern class that produced them.
func injectBlanks(questionID int, root *html.Node) ([]string, model.BlankKind) {
	blanks := detectBlanks(root)
	slots := make([]string, len(blanks))
	// Apply back to front so earlier offsets inside a shared text node stay valid.
	for i := len(blanks) - 1; i >= 0; i-- {
		slots[i] = blanks[i].inject(questionID, root)
	}
	return slots, blanks[0].Kind()
}
