package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pavelanni/worksheet/internal/grading"
	"github.com/pavelanni/worksheet/internal/model"
	"github.com/pavelanni/worksheet/internal/store"
)

const sampleWorksheet = `<html><body>
<div class="question">1. Count the apples. <span class="answer-box"></span></div>
<div class="question">2. Fill in: 3 + 4 = _____</div>
<div class="answer-key">1. 5<br>2. 7</div>
</body></html>`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRootCmd(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "import", "grade", "export"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.Flags().Lookup("addr") == nil {
		t.Error("serve flags should be available on root")
	}
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/count_the_apples.html", "count the apples"},
		{"fractions-week-2.htm", "fractions week 2"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := titleFromPath(tt.path); got != tt.want {
			t.Errorf("titleFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGradeAnswers(t *testing.T) {
	scorer := grading.NewScorer(nil)

	tests := []struct {
		name       string
		answers    map[string]string
		structured bool
		wantPct    int
		wantErr    bool
	}{
		{"simple all correct", map[string]string{"1": "5 apples", "2": "7"}, false, 100, false},
		{"simple half", map[string]string{"1": "5", "2": "8"}, false, 50, false},
		{"structured", map[string]string{"1": "5", "2": "7"}, true, 100, false},
		{"simple rejects slot ids", map[string]string{"q1": "5"}, false, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gradeAnswers(scorer, sampleWorksheet, tt.answers, tt.structured)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("gradeAnswers: %v", err)
			}
			if got.Total != 2 {
				t.Errorf("Total = %d, want 2", got.Total)
			}
			if got.Percentage != tt.wantPct {
				t.Errorf("Percentage = %d, want %d", got.Percentage, tt.wantPct)
			}
		})
	}
}

func TestImportFiles(t *testing.T) {
	db := newTestStore(t)
	dir := t.TempDir()
	a := writeFile(t, dir, "apples.html", sampleWorksheet)
	b := writeFile(t, dir, "empty.html", "<html><body><p>No questions here.</p></body></html>")

	n, err := importFiles(context.Background(), db, []string{a, b}, "counting", 2)
	if err != nil {
		t.Fatalf("importFiles: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d, want 2", n)
	}

	list, err := db.ListWorksheets("")
	if err != nil {
		t.Fatalf("ListWorksheets: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d worksheets, want 2", len(list))
	}
	found := false
	for _, ws := range list {
		if ws.Title == "apples" {
			found = true
			if ws.QuestionCount != 2 || ws.Topic != "counting" || ws.Source != "import" {
				t.Errorf("apples worksheet = %+v", ws)
			}
		}
	}
	if !found {
		t.Error("apples worksheet not imported")
	}

	// Unchanged files are skipped.
	n, err = importFiles(context.Background(), db, []string{a, b}, "counting", 1)
	if err != nil {
		t.Fatalf("second importFiles: %v", err)
	}
	if n != 0 {
		t.Errorf("second import wrote %d, want 0", n)
	}

	// A copy under another name is recorded but not stored twice.
	c := writeFile(t, dir, "apples_copy.html", sampleWorksheet)
	n, err = importFiles(context.Background(), db, []string{c}, "", 1)
	if err != nil {
		t.Fatalf("copy importFiles: %v", err)
	}
	if n != 0 {
		t.Errorf("copy import wrote %d, want 0", n)
	}
	if count, _ := db.WorksheetCount(); count != 2 {
		t.Errorf("WorksheetCount = %d, want 2", count)
	}
	if h, _ := db.GetImportedFileHash(c); h != store.ContentHash([]byte(sampleWorksheet)) {
		t.Errorf("imported hash for copy = %q", h)
	}
}

func TestImportFilesMissing(t *testing.T) {
	db := newTestStore(t)
	_, err := importFiles(context.Background(), db, []string{filepath.Join(t.TempDir(), "nope.html")}, "", 4)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if count, _ := db.WorksheetCount(); count != 0 {
		t.Errorf("WorksheetCount = %d, want 0", count)
	}
}

func TestBuildExport(t *testing.T) {
	db := newTestStore(t)
	id, err := db.CreateWorksheet(model.Worksheet{Title: "Apples", HTML: sampleWorksheet, QuestionCount: 2})
	if err != nil {
		t.Fatalf("CreateWorksheet: %v", err)
	}
	if _, err := db.CreateSubmission(model.Submission{
		WorksheetID: id,
		Token:       "tok-1",
		StudentName: "Sam",
		Result:      model.ScoreResult{Correct: 1, Total: 2, Percentage: 50},
	}); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if err := db.SetMetadata("prompt_variant", "support"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}

	export, err := buildExport(db)
	if err != nil {
		t.Fatalf("buildExport: %v", err)
	}
	if export.PromptVariant != "support" {
		t.Errorf("PromptVariant = %q", export.PromptVariant)
	}
	if export.NumWorksheets != 1 || export.NumSubmissions != 1 {
		t.Errorf("counts = %d worksheets, %d submissions", export.NumWorksheets, export.NumSubmissions)
	}
}

func TestWriteJSONOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := writeJSONOutput(path, map[string]int{"correct": 1}); err != nil {
		t.Fatalf("writeJSONOutput: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "{\n  \"correct\": 1\n}\n" {
		t.Errorf("output = %q", data)
	}
}
