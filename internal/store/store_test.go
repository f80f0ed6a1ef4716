package store

import (
	"testing"

	"github.com/pavelanni/worksheet/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestWorksheet(t *testing.T, s *Store, title, topic, html string) int64 {
	t.Helper()
	id, err := s.CreateWorksheet(model.Worksheet{
		Title:         title,
		Topic:         topic,
		HTML:          html,
		QuestionCount: 2,
	})
	if err != nil {
		t.Fatalf("insertTestWorksheet: %v", err)
	}
	return id
}

func TestWorksheetCRUD(t *testing.T) {
	s := newTestStore(t)

	// Empty DB should return zero count and empty list.
	count, err := s.WorksheetCount()
	if err != nil {
		t.Fatalf("WorksheetCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 worksheets, got %d", count)
	}
	list, err := s.ListWorksheets("")
	if err != nil {
		t.Fatalf("ListWorksheets: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	// Insert and retrieve.
	id := insertTestWorksheet(t, s, "Fractions", "maths", "<div class='question'>1/2 + 1/2</div>")
	ws, err := s.GetWorksheet(id)
	if err != nil {
		t.Fatalf("GetWorksheet: %v", err)
	}
	if ws == nil {
		t.Fatal("expected worksheet, got nil")
	}
	if ws.Title != "Fractions" || ws.Topic != "maths" {
		t.Errorf("unexpected worksheet %+v", ws)
	}
	if ws.Source != "upload" {
		t.Errorf("expected default source 'upload', got %q", ws.Source)
	}
	if ws.ContentHash != ContentHash([]byte(ws.HTML)) {
		t.Errorf("content hash not derived from HTML")
	}
	if ws.QuestionCount != 2 {
		t.Errorf("expected 2 questions, got %d", ws.QuestionCount)
	}
	if ws.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	// Not found.
	missing, err := s.GetWorksheet(9999)
	if err != nil {
		t.Fatalf("GetWorksheet missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing worksheet, got %+v", missing)
	}

	// Newest first, markup omitted.
	id2 := insertTestWorksheet(t, s, "Spelling", "english", "<div class='question'>cat</div>")
	list, _ = s.ListWorksheets("")
	if len(list) != 2 {
		t.Fatalf("expected 2 worksheets, got %d", len(list))
	}
	if list[0].ID != id2 {
		t.Errorf("expected newest worksheet first, got id %d", list[0].ID)
	}
	if list[0].HTML != "" {
		t.Error("expected list to omit HTML")
	}
}

func TestCreateWorksheetDedup(t *testing.T) {
	s := newTestStore(t)

	html := "<div class='question'>2 + 2 = ____</div>"
	id1 := insertTestWorksheet(t, s, "First", "maths", html)
	id2 := insertTestWorksheet(t, s, "Second title", "maths", html)
	if id1 != id2 {
		t.Errorf("expected duplicate content to return id %d, got %d", id1, id2)
	}
	count, _ := s.WorksheetCount()
	if count != 1 {
		t.Errorf("expected 1 worksheet, got %d", count)
	}

	id3 := insertTestWorksheet(t, s, "Third", "maths", html+" ")
	if id3 == id1 {
		t.Error("expected different content to get a new id")
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("abc"))
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a != ContentHash([]byte("abc")) {
		t.Error("hash is not deterministic")
	}
	if a == ContentHash([]byte("abd")) {
		t.Error("different inputs produced the same hash")
	}
}

func TestListTopics(t *testing.T) {
	s := newTestStore(t)

	topics, err := s.ListTopics()
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 0 {
		t.Errorf("expected 0 topics, got %d", len(topics))
	}

	insertTestWorksheet(t, s, "A", "maths", "a")
	insertTestWorksheet(t, s, "B", "maths", "b")
	insertTestWorksheet(t, s, "C", "english", "c")
	insertTestWorksheet(t, s, "D", "", "d")
	topics, _ = s.ListTopics()
	if len(topics) != 2 || topics[0] != "english" || topics[1] != "maths" {
		t.Errorf("expected [english maths], got %v", topics)
	}

	maths, err := s.ListWorksheets("maths")
	if err != nil {
		t.Fatalf("ListWorksheets(maths): %v", err)
	}
	if len(maths) != 2 || maths[0].Title != "B" || maths[1].Title != "A" {
		t.Errorf("expected [B A] for maths, got %+v", maths)
	}
	if none, _ := s.ListWorksheets("history"); len(none) != 0 {
		t.Errorf("expected no history worksheets, got %d", len(none))
	}
}

func testResult() model.ScoreResult {
	return model.ScoreResult{
		Correct:    1,
		Total:      2,
		Percentage: 50,
		Details: []model.QuestionResult{
			{QuestionID: 1, IsCorrect: true, StudentAnswer: "5 apples", CorrectAnswer: "5", Feedback: "✓ Correct!"},
			{QuestionID: 2, IsCorrect: false, StudentAnswer: "", CorrectAnswer: "7", Feedback: "✗ Incorrect. Answer: 7"},
		},
	}
}

func TestSubmissions(t *testing.T) {
	s := newTestStore(t)
	wsID := insertTestWorksheet(t, s, "Counting", "maths", "<div class='question'>Count</div>")

	id, err := s.CreateSubmission(model.Submission{
		Token:       "tok-1",
		WorksheetID: wsID,
		StudentName: "Sam",
		Answers:     map[string]string{"1": "5 apples", "2": ""},
		Result:      testResult(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	sub, err := s.GetSubmissionByToken("tok-1")
	if err != nil {
		t.Fatalf("GetSubmissionByToken: %v", err)
	}
	if sub == nil || sub.ID != id {
		t.Fatalf("expected submission %d by token, got %+v", id, sub)
	}
	if sub.Mode != model.ModeStructured {
		t.Errorf("expected default mode structured, got %q", sub.Mode)
	}
	if sub.Answers["1"] != "5 apples" {
		t.Errorf("expected answer '5 apples', got %q", sub.Answers["1"])
	}
	if sub.Result.Percentage != 50 || len(sub.Result.Details) != 2 {
		t.Errorf("unexpected result %+v", sub.Result)
	}
	if sub.Result.Details[1].Feedback != "✗ Incorrect. Answer: 7" {
		t.Errorf("feedback not preserved: %q", sub.Result.Details[1].Feedback)
	}

	missing, err := s.GetSubmissionByToken("nope")
	if err != nil {
		t.Fatalf("GetSubmissionByToken missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}

	// Duplicate tokens are rejected.
	if _, err := s.CreateSubmission(model.Submission{Token: "tok-1", WorksheetID: wsID}); err == nil {
		t.Error("expected error for duplicate token")
	}

	// Nil answers are stored as an empty object.
	id2, err := s.CreateSubmission(model.Submission{Token: "tok-2", WorksheetID: wsID, Mode: model.ModeSimple})
	if err != nil {
		t.Fatalf("CreateSubmission nil answers: %v", err)
	}
	sub2, _ := s.GetSubmissionByToken("tok-2")
	if sub2 == nil {
		t.Fatal("expected submission tok-2, got nil")
	}
	if sub2.Answers == nil || len(sub2.Answers) != 0 {
		t.Errorf("expected empty answers map, got %v", sub2.Answers)
	}

	subs, err := s.ListSubmissions(wsID)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != id || subs[1].ID != id2 {
		t.Errorf("unexpected submissions %+v", subs)
	}

	other, _ := s.ListSubmissions(wsID + 1)
	if len(other) != 0 {
		t.Errorf("expected no submissions, got %d", len(other))
	}
}

func TestExportAllSubmissions(t *testing.T) {
	s := newTestStore(t)

	results, err := s.ExportAllSubmissions()
	if err != nil {
		t.Fatalf("ExportAllSubmissions: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty export, got %d", len(results))
	}

	ws1 := insertTestWorksheet(t, s, "Counting", "maths", "one")
	ws2 := insertTestWorksheet(t, s, "Spelling", "english", "two")
	if _, err := s.CreateSubmission(model.Submission{
		Token: "a", WorksheetID: ws1, StudentName: "Sam", Result: testResult(),
	}); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}

	results, err = s.ExportAllSubmissions()
	if err != nil {
		t.Fatalf("ExportAllSubmissions: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 worksheet results, got %d", len(results))
	}

	byID := make(map[int64]model.WorksheetResult)
	for _, r := range results {
		byID[r.WorksheetID] = r
	}
	r1 := byID[ws1]
	if len(r1.Submissions) != 1 {
		t.Fatalf("expected 1 submission for worksheet %d, got %d", ws1, len(r1.Submissions))
	}
	got := r1.Submissions[0]
	if got.StudentName != "Sam" || got.Percentage != 50 || got.Correct != 1 || got.Total != 2 {
		t.Errorf("unexpected submission result %+v", got)
	}
	if r1.TotalQuestions != 2 {
		t.Errorf("expected 2 total questions, got %d", r1.TotalQuestions)
	}
	if r2 := byID[ws2]; r2.Submissions == nil || len(r2.Submissions) != 0 {
		t.Errorf("expected empty non-nil submissions for worksheet %d", ws2)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	v, err := s.GetMetadata("prompt_variant")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if err := s.SetMetadata("prompt_variant", "standard"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata("prompt_variant", "challenge"); err != nil {
		t.Fatalf("SetMetadata update: %v", err)
	}
	v, _ = s.GetMetadata("prompt_variant")
	if v != "challenge" {
		t.Errorf("expected 'challenge', got %q", v)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)

	// Missing file returns empty string.
	hash, err := s.GetImportedFileHash("/some/path.html")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash("/some/path.html", "abc123"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	hash, err = s.GetImportedFileHash("/some/path.html")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "abc123" {
		t.Errorf("expected 'abc123', got %q", hash)
	}

	// Update existing.
	if err := s.SetImportedFileHash("/some/path.html", "def456"); err != nil {
		t.Fatalf("SetImportedFileHash update: %v", err)
	}
	hash, _ = s.GetImportedFileHash("/some/path.html")
	if hash != "def456" {
		t.Errorf("expected 'def456', got %q", hash)
	}
}
