package model

import (
	"context"
	"time"
)

// QuestionKind is a best-effort classification of a question's answer shape.
type QuestionKind string

const (
	KindNumeric  QuestionKind = "numeric"
	KindText     QuestionKind = "text"
	KindEquation QuestionKind = "equation"
	KindMixed    QuestionKind = "mixed"
)

// BlankKind names the authoring convention that produced a question's inputs.
type BlankKind string

const (
	BlankAnswerLine       BlankKind = "answer-line"
	BlankAnswerBox        BlankKind = "answer-box"
	BlankUnderscore       BlankKind = "underscore"
	BlankFallback         BlankKind = "fallback"
	BlankFallbackMatching BlankKind = "fallback-matching"
)

// ParsedQuestion is one question fragment with interactive inputs injected.
type ParsedQuestion struct {
	ID            int          `json:"id"`
	Markup        string       `json:"question_html"`
	CorrectAnswer string       `json:"correct_answer"`
	Kind          QuestionKind `json:"question_type"`
	// SlotIDs holds the structured identifier of every injected input in
	// document order.
	SlotIDs []string  `json:"slot_ids"`
	Pattern BlankKind `json:"pattern"`
}

// AnswerKeyEntry is one extracted "{number}. {answer}" pair.
type AnswerKeyEntry struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

// AnswerKey is an ordered set of correct answers indexed by question number.
// Order is insertion order, which is document order when built by the parser.
type AnswerKey []AnswerKeyEntry

// Get returns the answer for a question and whether it exists.
func (k AnswerKey) Get(questionID int) (string, bool) {
	for _, e := range k {
		if e.QuestionID == questionID {
			return e.Answer, true
		}
	}
	return "", false
}

// Set replaces an existing entry or appends a new one.
func (k AnswerKey) Set(questionID int, answer string) AnswerKey {
	for i, e := range k {
		if e.QuestionID == questionID {
			k[i].Answer = answer
			return k
		}
	}
	return append(k, AnswerKeyEntry{QuestionID: questionID, Answer: answer})
}

// ParsedWorksheet is the structured form of one raw worksheet document.
// It is built once per parse and not mutated afterwards.
type ParsedWorksheet struct {
	Questions      []ParsedQuestion `json:"questions"`
	Stylesheet     string           `json:"styles"`
	AnswerKey      AnswerKey        `json:"answer_key"`
	TotalQuestions int              `json:"total_questions"`
	HasAnswerKey   bool             `json:"has_answer_key"`
}

// QuestionSpec describes how one question is graded in structured mode.
type QuestionSpec struct {
	ID             int      `json:"id"`
	InputIDs       []string `json:"input_ids"`
	CorrectAnswer  string   `json:"correct_answer"`
	CorrectAnswers []string `json:"correct_answers,omitempty"`
}

// ValidationResult is the verdict for a single answer slot.
type ValidationResult struct {
	IsCorrect         bool   `json:"is_correct"`
	Feedback          string `json:"feedback"`
	NormalizedStudent string `json:"normalized_student"`
	NormalizedCorrect string `json:"normalized_correct"`
}

// QuestionResult is the per-question verdict inside a ScoreResult.
type QuestionResult struct {
	QuestionID    int    `json:"question_id"`
	IsCorrect     bool   `json:"is_correct"`
	StudentAnswer string `json:"student_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Feedback      string `json:"feedback"`
}

// ScoreResult is the outcome of grading one submission.
type ScoreResult struct {
	Correct    int              `json:"correct"`
	Total      int              `json:"total"`
	Percentage int              `json:"percentage"`
	Details    []QuestionResult `json:"details"`
}

// GradingMode selects simple or structured scoring.
type GradingMode string

const (
	ModeSimple     GradingMode = "simple"
	ModeStructured GradingMode = "structured"
)

// Worksheet is a stored raw worksheet document.
type Worksheet struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Topic         string    `json:"topic"`
	Source        string    `json:"source"`
	HTML          string    `json:"html"`
	ContentHash   string    `json:"content_hash"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Submission is one graded set of student answers.
type Submission struct {
	ID          int64             `json:"id"`
	Token       string            `json:"token"`
	WorksheetID int64             `json:"worksheet_id"`
	StudentName string            `json:"student_name"`
	Mode        GradingMode       `json:"mode"`
	Answers     map[string]string `json:"answers"`
	Result      ScoreResult       `json:"result"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// GenerateRequest holds the parameters passed to the worksheet generator.
type GenerateRequest struct {
	Topic         string `json:"topic"`
	Grade         string `json:"grade"`
	NumQuestions  int    `json:"num_questions"`
	IncludeAnswer bool   `json:"include_answer_key"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string   // URL prefix for sub-path deployments (e.g. "/ws")
	PromptVariant string   // Generator prompt variant (standard, challenge, support)
	MaxUploadSize int64    // bytes
	CORSOrigins   []string // origins allowed to call /api; empty disables CORS
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
