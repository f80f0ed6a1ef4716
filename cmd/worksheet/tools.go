package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/worksheet/internal/grading"
	"github.com/pavelanni/worksheet/internal/model"
	"github.com/pavelanni/worksheet/internal/parser"
	"github.com/pavelanni/worksheet/internal/store"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import worksheet HTML files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "worksheet.db", "SQLite database path")
	f.String("topic", "", "Topic recorded for every imported worksheet")
	f.Int("concurrency", runtime.GOMAXPROCS(0), "Number of files parsed in parallel")
	addLogFlags(cmd)
	return cmd
}

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade an answers JSON file against a worksheet HTML file",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.StringP("worksheet", "w", "", "Worksheet HTML file (required)")
	f.StringP("answers", "s", "", "Answers JSON file mapping slot or question IDs to answers (required)")
	f.Bool("structured", false, "Grade multi-input questions all-or-nothing by slot ID")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addVocabularyFlags(cmd)
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("worksheet")
	_ = cmd.MarkFlagRequired("answers")

	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all graded submissions as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "worksheet.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)
	return cmd
}

// openOutput returns stdout for "" or "-", otherwise a new file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeJSONOutput(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	w, closeFn, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = closeFn()
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return closeFn()
}

type importedFile struct {
	path      string
	hash      string
	worksheet model.Worksheet
}

func titleFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(base))
}

// readWorksheets reads, hashes and parses files concurrently. Results keep
// the order of paths.
func readWorksheets(ctx context.Context, paths []string, topic string, concurrency int) ([]importedFile, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	files := make([]importedFile, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			hash := store.ContentHash(data)
			parsed := parser.Parse(string(data))
			if parsed.TotalQuestions == 0 {
				slog.Warn("no questions found in worksheet", "path", path)
			}
			files[i] = importedFile{
				path: path,
				hash: hash,
				worksheet: model.Worksheet{
					Title:         titleFromPath(path),
					Topic:         topic,
					Source:        "import",
					HTML:          string(data),
					ContentHash:   hash,
					QuestionCount: parsed.TotalQuestions,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// importFiles stores every file whose content changed since its last import.
// It returns the number of worksheets written.
func importFiles(ctx context.Context, db *store.Store, paths []string, topic string, concurrency int) (int, error) {
	files, err := readWorksheets(ctx, paths, topic, concurrency)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, f := range files {
		storedHash, err := db.GetImportedFileHash(f.path)
		if err != nil {
			return imported, fmt.Errorf("check import status for %s: %w", f.path, err)
		}
		if storedHash == f.hash {
			slog.Info("worksheet file unchanged, skipping", "path", f.path)
			continue
		}

		existing, err := db.FindWorksheetByHash(f.hash)
		if err != nil {
			return imported, fmt.Errorf("check duplicate for %s: %w", f.path, err)
		}
		id, err := db.CreateWorksheet(f.worksheet)
		if err != nil {
			return imported, fmt.Errorf("store %s: %w", f.path, err)
		}
		if err := db.SetImportedFileHash(f.path, f.hash); err != nil {
			return imported, fmt.Errorf("record import for %s: %w", f.path, err)
		}
		if existing != nil {
			slog.Info("worksheet content already stored", "path", f.path, "worksheet_id", id)
			continue
		}
		imported++
		slog.Info("imported worksheet", "path", f.path, "worksheet_id", id, "questions", f.worksheet.QuestionCount)
	}
	return imported, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := importFiles(ctx, db, args, v.GetString("topic"), v.GetInt("concurrency"))
	if err != nil {
		return err
	}
	slog.Info("import finished", "files", len(args), "imported", n)
	return nil
}

// gradeAnswers scores answers against the worksheet markup. In simple mode
// answer keys must be question numbers.
func gradeAnswers(scorer *grading.Scorer, rawWorksheet string, answers map[string]string, structured bool) (model.ScoreResult, error) {
	parsed := parser.Parse(rawWorksheet)
	if !parsed.HasAnswerKey {
		slog.Warn("worksheet has no answer key; every non-empty answer will be marked incorrect")
	}
	if structured {
		return scorer.ScoreStructured(answers, grading.SpecsFromWorksheet(parsed)), nil
	}

	simple := make(map[int]string, len(answers))
	for k, a := range answers {
		id, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return model.ScoreResult{}, fmt.Errorf("answer key %q is not a question number (use --structured for slot IDs)", k)
		}
		simple[id] = a
	}
	return scorer.ScoreSimple(simple, grading.KeyFromWorksheet(parsed)), nil
}

func runGrade(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	raw, err := os.ReadFile(v.GetString("worksheet"))
	if err != nil {
		return fmt.Errorf("read worksheet: %w", err)
	}
	data, err := os.ReadFile(v.GetString("answers"))
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	var answers map[string]string
	if err := json.Unmarshal(data, &answers); err != nil {
		return fmt.Errorf("parse answers: %w", err)
	}

	result, err := gradeAnswers(newScorer(v), string(raw), answers, v.GetBool("structured"))
	if err != nil {
		return err
	}
	return writeJSONOutput(v.GetString("output"), result)
}

func buildExport(db *store.Store) (model.SubmissionsExport, error) {
	results, err := db.ExportAllSubmissions()
	if err != nil {
		return model.SubmissionsExport{}, fmt.Errorf("export submissions: %w", err)
	}
	variant, err := db.GetMetadata("prompt_variant")
	if err != nil {
		return model.SubmissionsExport{}, fmt.Errorf("read metadata: %w", err)
	}

	export := model.SubmissionsExport{
		ExportedAt:    time.Now().UTC(),
		PromptVariant: variant,
		NumWorksheets: len(results),
		Results:       results,
	}
	for _, r := range results {
		export.NumSubmissions += len(r.Submissions)
	}
	return export, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := buildExport(db)
	if err != nil {
		return err
	}
	return writeJSONOutput(v.GetString("output"), export)
}
