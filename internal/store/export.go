package store

import (
	"fmt"

	"github.com/pavelanni/worksheet/internal/model"
)

// ExportAllSubmissions groups every stored submission under its worksheet.
// Worksheets without submissions are included with an empty list.
func (s *Store) ExportAllSubmissions() ([]model.WorksheetResult, error) {
	worksheets, err := s.ListWorksheets("")
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}

	results := make([]model.WorksheetResult, 0, len(worksheets))
	for _, ws := range worksheets {
		subs, err := s.ListSubmissions(ws.ID)
		if err != nil {
			return nil, fmt.Errorf("list submissions for worksheet %d: %w", ws.ID, err)
		}

		wr := model.WorksheetResult{
			WorksheetID:    ws.ID,
			Title:          ws.Title,
			Topic:          ws.Topic,
			TotalQuestions: ws.QuestionCount,
			Submissions:    make([]model.SubmissionResult, 0, len(subs)),
		}
		for _, sub := range subs {
			wr.Submissions = append(wr.Submissions, model.SubmissionResult{
				Token:       sub.Token,
				StudentName: sub.StudentName,
				Mode:        sub.Mode,
				SubmittedAt: sub.SubmittedAt,
				Correct:     sub.Result.Correct,
				Total:       sub.Result.Total,
				Percentage:  sub.Result.Percentage,
				Details:     sub.Result.Details,
			})
		}
		results = append(results, wr)
	}
	return results, nil
}
