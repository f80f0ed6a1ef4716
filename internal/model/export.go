package model

import "time"

// SubmissionsExport is the top-level JSON structure for submission export.
type SubmissionsExport struct {
	ExportedAt     time.Time         `json:"exported_at"`
	PromptVariant  string            `json:"prompt_variant,omitempty"`
	NumWorksheets  int               `json:"num_worksheets"`
	NumSubmissions int               `json:"num_submissions"`
	Results        []WorksheetResult `json:"results"`
}

// WorksheetResult groups one worksheet with all its graded submissions.
type WorksheetResult struct {
	WorksheetID    int64              `json:"worksheet_id"`
	Title          string             `json:"title"`
	Topic          string             `json:"topic"`
	TotalQuestions int                `json:"total_questions"`
	Submissions    []SubmissionResult `json:"submissions"`
}

// SubmissionResult holds one submission's data for export.
type SubmissionResult struct {
	Token       string           `json:"token"`
	StudentName string           `json:"student_name"`
	Mode        GradingMode      `json:"mode"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Correct     int              `json:"correct"`
	Total       int              `json:"total"`
	Percentage  int              `json:"percentage"`
	Details     []QuestionResult `json:"details"`
}
