package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/worksheet/internal/model"
)

var markupTagRegex = regexp.MustCompile(`</?\s*[a-zA-Z][^>]*>`)

const maxTopicRunes = 200

// PromptVariant represents a worksheet generation prompt variant.
type PromptVariant string

const (
	// PromptStandard is the default generation variant.
	PromptStandard PromptVariant = "standard"
	// PromptChallenge asks for harder, multi-step questions.
	PromptChallenge PromptVariant = "challenge"
	// PromptSupport asks for short, scaffolded questions.
	PromptSupport PromptVariant = "support"
)

var validVariants = map[PromptVariant]bool{
	PromptStandard:  true,
	PromptChallenge: true,
	PromptSupport:   true,
}

var (
	loadOnce          sync.Once
	loadErr           error
	generateTemplates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	return validVariants[PromptVariant(v)]
}

// GenerateData holds template data for generation prompts.
type GenerateData struct {
	Topic            string
	Grade            string
	NumQuestions     int
	IncludeAnswerKey bool
}

// Load loads prompt templates from the embedded filesystem.
// It uses sync.Once to ensure templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		generateTemplates = make(map[PromptVariant]*template.Template)

		for _, v := range []PromptVariant{PromptStandard, PromptChallenge, PromptSupport} {
			file := "prompts/generate_" + string(v) + ".txt"

			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
				return
			}

			tmpl, err := template.New("generate").Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
				return
			}
			generateTemplates[v] = tmpl
		}
	})
	return loadErr
}

// BuildGeneratePrompt builds the system prompt asking the model for a
// worksheet document.
func BuildGeneratePrompt(variant PromptVariant, req model.GenerateRequest) (string, error) {
	if generateTemplates == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := generateTemplates[variant]
	if !ok {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	n := req.NumQuestions
	if n <= 0 {
		n = 10
	}

	data := GenerateData{
		Topic:            sanitizeTopic(req.Topic),
		Grade:            sanitizeTopic(req.Grade),
		NumQuestions:     n,
		IncludeAnswerKey: req.IncludeAnswer,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// sanitizeTopic strips markup and line breaks from user-entered text before
// it is placed inside a prompt.
func sanitizeTopic(s string) string {
	s = markupTagRegex.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, `"`, "'")

	if utf8.RuneCountInString(s) > maxTopicRunes {
		s = string([]rune(s)[:maxTopicRunes])
	}
	return s
}
