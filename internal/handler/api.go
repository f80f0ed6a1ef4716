package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pavelanni/worksheet/internal/grading"
	"github.com/pavelanni/worksheet/internal/model"
)

const maxJSONBody = 1 << 20

type scoreRequest struct {
	Answers map[string]string `json:"answers"`
	Mode    model.GradingMode `json:"mode"`
}

type validateRequest struct {
	Student string `json:"student"`
	Correct string `json:"correct"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) handleAPIWorksheet(w http.ResponseWriter, r *http.Request) {
	ws := h.loadWorksheet(w, r)
	if ws == nil {
		return
	}
	writeJSON(w, http.StatusOK, h.parsed(r.Context(), ws))
}

// handleAPIScore grades answers without storing them. Simple mode expects
// answers keyed by question number; structured mode keys them by input slot.
func (h *Handler) handleAPIScore(w http.ResponseWriter, r *http.Request) {
	ws := h.loadWorksheet(w, r)
	if ws == nil {
		return
	}
	var req scoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	parsed := h.parsed(r.Context(), ws)
	var result model.ScoreResult
	switch req.Mode {
	case model.ModeSimple:
		answers := make(map[int]string, len(req.Answers))
		for k, v := range req.Answers {
			id, err := strconv.Atoi(k)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "simple mode answer keys must be question numbers: "+k)
				return
			}
			answers[id] = v
		}
		result = h.scorer.ScoreSimple(answers, grading.KeyFromWorksheet(parsed))
	case model.ModeStructured, "":
		result = h.scorer.ScoreStructured(req.Answers, grading.SpecsFromWorksheet(parsed))
	default:
		writeJSONError(w, http.StatusBadRequest, "mode must be simple or structured")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAPIValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.scorer.ValidateAnswer(req.Student, req.Correct))
}
