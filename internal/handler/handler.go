package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/pavelanni/worksheet/internal/cache"
	"github.com/pavelanni/worksheet/internal/grading"
	"github.com/pavelanni/worksheet/internal/handler/views"
	"github.com/pavelanni/worksheet/internal/model"
	"github.com/pavelanni/worksheet/internal/parser"
	"github.com/pavelanni/worksheet/internal/store"
)

const (
	defaultMaxUploadSize = 5 << 20
	defaultNumQuestions  = 10
	maxNumQuestions      = 30

	flashDuplicate = "WorksheetDuplicate"
)

// Generator produces raw worksheet markup.
type Generator interface {
	GenerateWorksheet(ctx context.Context, req model.GenerateRequest) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	gen    Generator
	cache  cache.WorksheetCache
	scorer *grading.Scorer
	config model.ServerConfig
}

// New creates a new Handler. gen may be nil, which disables generation. A
// nil cache falls back to an in-memory cache and a nil scorer to the default
// vocabulary.
func New(s *store.Store, gen Generator, c cache.WorksheetCache, scorer *grading.Scorer, cfg model.ServerConfig) (*Handler, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if c == nil {
		c = cache.NewMemory(0)
	}
	if scorer == nil {
		scorer = grading.NewScorer(nil)
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	return &Handler{store: s, gen: gen, cache: c, scorer: scorer, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/worksheets", h.handleUpload)
	r.Post("/worksheets/generate", h.handleGenerate)
	r.Get("/worksheets/{worksheetID}", h.handleWorksheetPage)
	r.Post("/worksheets/{worksheetID}/submit", h.handleSubmit)
	r.Get("/submissions/{token}", h.handleResultPage)

	r.Route("/api", func(api chi.Router) {
		if len(h.config.CORSOrigins) > 0 {
			api.Use(cors.Handler(cors.Options{
				AllowedOrigins: h.config.CORSOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         300,
			}))
		}
		api.Get("/worksheets/{worksheetID}", h.handleAPIWorksheet)
		api.Post("/worksheets/{worksheetID}/score", h.handleAPIScore)
		api.Post("/validate", h.handleAPIValidate)
	})
}

// BasePathMiddleware stores the configured URL prefix in the request context
// so views can build links.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.config.BasePath+path, http.StatusSeeOther)
}

func render(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// loadWorksheet resolves the {worksheetID} URL parameter. It writes the error
// response itself and returns nil when the worksheet cannot be served.
func (h *Handler) loadWorksheet(w http.ResponseWriter, r *http.Request) *model.Worksheet {
	id, err := strconv.ParseInt(chi.URLParam(r, "worksheetID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid worksheet ID", http.StatusBadRequest)
		return nil
	}
	ws, err := h.store.GetWorksheet(id)
	if err != nil {
		slog.Error("failed to load worksheet", "worksheet_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if ws == nil {
		http.Error(w, "worksheet not found", http.StatusNotFound)
		return nil
	}
	return ws
}

// parsed returns the parsed form of ws, parsing and caching it on a miss.
// Cache failures are logged and never fail the request.
func (h *Handler) parsed(ctx context.Context, ws *model.Worksheet) model.ParsedWorksheet {
	cached, err := h.cache.Get(ctx, ws.ID)
	if err != nil {
		slog.Warn("worksheet cache read failed", "worksheet_id", ws.ID, "error", err)
	}
	if cached != nil {
		return *cached
	}
	p := parser.Parse(ws.HTML)
	if err := h.cache.Set(ctx, ws.ID, &p); err != nil {
		slog.Warn("worksheet cache write failed", "worksheet_id", ws.ID, "error", err)
	}
	return p
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	topics, err := h.store.ListTopics()
	if err != nil {
		slog.Error("failed to list topics", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	topic := r.URL.Query().Get("topic")
	if !slices.Contains(topics, topic) {
		topic = ""
	}
	list, err := h.store.ListWorksheets(topic)
	if err != nil {
		slog.Error("failed to list worksheets", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	var flash string
	if f := r.URL.Query().Get("flash"); f == flashDuplicate {
		flash = f
	}
	render(w, r, http.StatusOK, views.IndexPage(views.IndexData{
		Worksheets:  list,
		Topics:      topics,
		Topic:       topic,
		CanGenerate: h.gen != nil,
		Flash:       flash,
	}))
}

// storeWorksheet counts the questions in ws and stores it. The second return
// value is false when identical content was already stored.
func (h *Handler) storeWorksheet(ws model.Worksheet) (int64, bool, error) {
	ws.ContentHash = store.ContentHash([]byte(ws.HTML))
	existing, err := h.store.FindWorksheetByHash(ws.ContentHash)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		return existing.ID, false, nil
	}
	ws.QuestionCount = parser.Parse(ws.HTML).TotalQuestions
	id, err := h.store.CreateWorksheet(ws)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil && err != http.ErrNotMultipart {
		http.Error(w, "upload too large or malformed", http.StatusBadRequest)
		return
	}

	raw := r.FormValue("html")
	if file, header, err := r.FormFile("worksheet_file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "failed to read file", http.StatusBadRequest)
			return
		}
		raw = string(data)
		slog.Debug("worksheet uploaded as file", "filename", header.Filename, "bytes", len(data))
	}
	if strings.TrimSpace(raw) == "" {
		http.Error(w, "worksheet HTML is required", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = "Untitled worksheet"
	}

	id, created, err := h.storeWorksheet(model.Worksheet{
		Title:  title,
		Topic:  strings.TrimSpace(r.FormValue("topic")),
		Source: "upload",
		HTML:   raw,
	})
	if err != nil {
		slog.Error("failed to store worksheet", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !created {
		slog.Info("duplicate worksheet upload", "worksheet_id", id)
		h.redirect(w, r, "/?flash="+flashDuplicate)
		return
	}
	slog.Info("worksheet uploaded", "worksheet_id", id, "title", title)
	h.redirect(w, r, fmt.Sprintf("/worksheets/%d", id))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.gen == nil {
		http.Error(w, "worksheet generation is not configured", http.StatusServiceUnavailable)
		return
	}

	topic := strings.TrimSpace(r.FormValue("topic"))
	if topic == "" {
		http.Error(w, "topic is required", http.StatusBadRequest)
		return
	}
	count := defaultNumQuestions
	if v := r.FormValue("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxNumQuestions {
			http.Error(w, fmt.Sprintf("count must be between 1 and %d", maxNumQuestions), http.StatusBadRequest)
			return
		}
		count = n
	}

	req := model.GenerateRequest{
		Topic:         topic,
		Grade:         strings.TrimSpace(r.FormValue("grade")),
		NumQuestions:  count,
		IncludeAnswer: r.FormValue("include_answer_key") != "",
	}
	raw, err := h.gen.GenerateWorksheet(r.Context(), req)
	if err != nil {
		slog.Error("worksheet generation failed", "topic", topic, "error", err)
		http.Error(w, "worksheet generation failed", http.StatusBadGateway)
		return
	}

	title := topic
	if req.Grade != "" {
		title = fmt.Sprintf("%s (grade %s)", topic, req.Grade)
	}
	id, _, err := h.storeWorksheet(model.Worksheet{
		Title:  title,
		Topic:  topic,
		Source: "generated",
		HTML:   raw,
	})
	if err != nil {
		slog.Error("failed to store worksheet", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("worksheet generated", "worksheet_id", id, "topic", topic, "questions", count)
	h.redirect(w, r, fmt.Sprintf("/worksheets/%d", id))
}

func (h *Handler) handleWorksheetPage(w http.ResponseWriter, r *http.Request) {
	ws := h.loadWorksheet(w, r)
	if ws == nil {
		return
	}
	render(w, r, http.StatusOK, views.WorksheetPage(*ws, h.parsed(r.Context(), ws)))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ws := h.loadWorksheet(w, r)
	if ws == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	specs := grading.SpecsFromWorksheet(h.parsed(r.Context(), ws))
	answers := make(map[string]string)
	for _, spec := range specs {
		for _, slot := range spec.InputIDs {
			answers[slot] = r.PostForm.Get(slot)
		}
	}
	result := h.scorer.ScoreStructured(answers, specs)

	sub := model.Submission{
		Token:       uuid.NewString(),
		WorksheetID: ws.ID,
		StudentName: strings.TrimSpace(r.PostForm.Get("student_name")),
		Mode:        model.ModeStructured,
		Answers:     answers,
		Result:      result,
	}
	if _, err := h.store.CreateSubmission(sub); err != nil {
		slog.Error("failed to store submission", "worksheet_id", ws.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	slog.Info("submission graded",
		"worksheet_id", ws.ID,
		"correct", result.Correct,
		"total", result.Total,
		"percentage", result.Percentage,
	)
	h.redirect(w, r, "/submissions/"+sub.Token)
}

func (h *Handler) handleResultPage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := uuid.Parse(token); err != nil {
		http.Error(w, "submission not found", http.StatusNotFound)
		return
	}
	sub, err := h.store.GetSubmissionByToken(token)
	if err != nil {
		slog.Error("failed to load submission", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sub == nil {
		http.Error(w, "submission not found", http.StatusNotFound)
		return
	}
	ws, err := h.store.GetWorksheet(sub.WorksheetID)
	if err != nil || ws == nil {
		slog.Error("failed to load worksheet for submission", "worksheet_id", sub.WorksheetID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, views.ResultPage(*ws, *sub))
}
