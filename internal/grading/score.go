package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/pavelanni/worksheet/internal/model"
)

const (
	feedbackCorrect   = "✓ Correct!"
	feedbackIncorrect = "✗ Incorrect. Answer: "
)

// Scorer compares student answers with expected answers. Every method is a
// pure function of its arguments.
type Scorer struct {
	norm *Normalizer
}

// NewScorer returns a scorer that compares answers in the canonical form
// produced by n. A nil n uses the default vocabulary.
func NewScorer(n *Normalizer) *Scorer {
	if n == nil {
		n = NewNormalizer(DefaultVocabulary())
	}
	return &Scorer{norm: n}
}

// ValidateAnswer normalizes both sides and compares them for equality.
// Feedback shows the expected answer as written, not its canonical form.
func (s *Scorer) ValidateAnswer(student, correct string) model.ValidationResult {
	ns := s.norm.Normalize(student, model.KindText)
	nc := s.norm.Normalize(correct, model.KindText)
	res := model.ValidationResult{
		IsCorrect:         ns == nc,
		NormalizedStudent: ns,
		NormalizedCorrect: nc,
	}
	if res.IsCorrect {
		res.Feedback = feedbackCorrect
	} else {
		res.Feedback = feedbackIncorrect + correct
	}
	return res
}

// ScoreSimple grades one answer per question. The key defines the graded
// questions and their order; a missing student answer counts as empty.
func (s *Scorer) ScoreSimple(answers map[int]string, key model.AnswerKey) model.ScoreResult {
	res := model.ScoreResult{Details: make([]model.QuestionResult, 0, len(key))}
	for _, entry := range key {
		student := answers[entry.QuestionID]
		v := s.ValidateAnswer(student, entry.Answer)
		if v.IsCorrect {
			res.Correct++
		}
		res.Details = append(res.Details, model.QuestionResult{
			QuestionID:    entry.QuestionID,
			IsCorrect:     v.IsCorrect,
			StudentAnswer: student,
			CorrectAnswer: entry.Answer,
			Feedback:      v.Feedback,
		})
	}
	res.Total = len(key)
	res.Percentage = percentage(res.Correct, res.Total)
	return res
}

// ScoreStructured grades questions that may have several inputs. A
// multi-input question is correct only when every input matches the
// expected answer at the same position.
func (s *Scorer) ScoreStructured(answers map[string]string, specs []model.QuestionSpec) model.ScoreResult {
	res := model.ScoreResult{Details: make([]model.QuestionResult, 0, len(specs))}
	for _, spec := range specs {
		d := s.scoreSpec(answers, spec)
		if d.IsCorrect {
			res.Correct++
		}
		res.Details = append(res.Details, d)
	}
	res.Total = len(specs)
	res.Percentage = percentage(res.Correct, res.Total)
	return res
}

func (s *Scorer) scoreSpec(answers map[string]string, spec model.QuestionSpec) model.QuestionResult {
	inputs := spec.InputIDs
	if len(inputs) == 0 {
		inputs = []string{strconv.Itoa(spec.ID)}
	}

	if len(inputs) == 1 {
		student := answers[inputs[0]]
		correct := spec.CorrectAnswer
		if correct == "" && len(spec.CorrectAnswers) > 0 {
			correct = spec.CorrectAnswers[0]
		}
		v := s.ValidateAnswer(student, correct)
		return model.QuestionResult{
			QuestionID:    spec.ID,
			IsCorrect:     v.IsCorrect,
			StudentAnswer: student,
			CorrectAnswer: correct,
			Feedback:      v.Feedback,
		}
	}

	expected := spec.CorrectAnswers
	if len(expected) == 0 {
		expected = splitAnswers(spec.CorrectAnswer)
	}

	students := make([]string, len(inputs))
	corrects := make([]string, len(inputs))
	allCorrect := true
	for i, id := range inputs {
		students[i] = answers[id]
		if i < len(expected) {
			corrects[i] = expected[i]
		}
		if !s.ValidateAnswer(students[i], corrects[i]).IsCorrect {
			allCorrect = false
		}
	}

	d := model.QuestionResult{
		QuestionID:    spec.ID,
		IsCorrect:     allCorrect,
		StudentAnswer: strings.Join(students, ", "),
		CorrectAnswer: strings.Join(corrects, ", "),
	}
	if allCorrect {
		d.Feedback = feedbackCorrect
	} else {
		d.Feedback = feedbackIncorrect + d.CorrectAnswer
	}
	return d
}

func splitAnswers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// SpecsFromWorksheet builds structured grading specs from the inputs the
// parser injected into each question.
func SpecsFromWorksheet(ws model.ParsedWorksheet) []model.QuestionSpec {
	specs := make([]model.QuestionSpec, 0, len(ws.Questions))
	for _, q := range ws.Questions {
		specs = append(specs, model.QuestionSpec{
			ID:            q.ID,
			InputIDs:      append([]string(nil), q.SlotIDs...),
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return specs
}

// KeyFromWorksheet returns one key entry per parsed question in document
// order. Questions without an extracted answer get an empty entry.
func KeyFromWorksheet(ws model.ParsedWorksheet) model.AnswerKey {
	key := make(model.AnswerKey, 0, len(ws.Questions))
	for _, q := range ws.Questions {
		key = append(key, model.AnswerKeyEntry{QuestionID: q.ID, Answer: q.CorrectAnswer})
	}
	return key
}
