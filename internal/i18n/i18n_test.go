package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "Worksheets" {
		t.Errorf("T(AppTitle) = %q, want 'Worksheets'", got)
	}
	if got := T(ctx, "SubmitAnswers"); got != "Check my answers" {
		t.Errorf("T(SubmitAnswers) = %q, want 'Check my answers'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "AppTitle"); got != "Рабочие листы" {
		t.Errorf("T(AppTitle) = %q, want 'Рабочие листы'", got)
	}
	if got := T(ctx, "SubmitAnswers"); got != "Проверить ответы" {
		t.Errorf("T(SubmitAnswers) = %q, want 'Проверить ответы'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	tests := []struct {
		lang  string
		count int
		want  string
	}{
		{"en", 1, "1 question"},
		{"en", 5, "5 questions"},
		{"ru", 1, "1 вопрос"},
		{"ru", 3, "3 вопроса"},
		{"ru", 5, "5 вопросов"},
	}
	for _, tt := range tests {
		ctx := initLang(t, tt.lang)
		if got := Tp(ctx, "QuestionsCount", tt.count); got != tt.want {
			t.Errorf("Tp(%s, QuestionsCount, %d) = %q, want %q", tt.lang, tt.count, got, tt.want)
		}
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ScoreSummary", map[string]any{"Correct": 3, "Total": 4, "Percentage": 75})
	if got != "You got 3 out of 4 (75%)" {
		t.Errorf("Td(ScoreSummary) = %q, want 'You got 3 out of 4 (75%%)'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestMatch(t *testing.T) {
	initLang(t, "en")

	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"nothing", nil, "en"},
		{"query", []string{"ru", ""}, "ru"},
		{"accept language", []string{"", "ru-RU,ru;q=0.9,en;q=0.8"}, "ru"},
		{"query wins", []string{"en", "ru-RU"}, "en"},
		{"unsupported", []string{"fr-FR"}, "en"},
		{"garbage", []string{"!!"}, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.prefs...); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "en")

	var got string
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "AppTitle")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Рабочие листы" {
		t.Errorf("Accept-Language ru: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "ru")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Worksheets" {
		t.Errorf("?lang=en: got %q", got)
	}
}

func TestTranslateWithoutLocalizer(t *testing.T) {
	initLang(t, "ru")
	if got := T(context.Background(), "AppTitle"); got != "Рабочие листы" {
		t.Errorf("T without localizer = %q, want default language text", got)
	}
}
