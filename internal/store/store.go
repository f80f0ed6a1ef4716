package store

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/pavelanni/worksheet/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: opens a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worksheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'upload',
		html TEXT NOT NULL,
		content_hash TEXT NOT NULL UNIQUE,
		question_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE,
		worksheet_id INTEGER NOT NULL,
		student_name TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL DEFAULT 'structured',
		answers TEXT NOT NULL DEFAULT '{}',
		result TEXT NOT NULL DEFAULT '{}',
		correct INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		percentage INTEGER NOT NULL DEFAULT 0,
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (worksheet_id) REFERENCES worksheets(id)
	);

	CREATE TABLE IF NOT EXISTS worksheet_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ContentHash returns the hex BLAKE2b-256 digest used to detect duplicate
// worksheet documents.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CreateWorksheet stores a worksheet and returns its ID. A document whose
// content hash is already stored is not inserted again; the existing ID is
// returned instead.
func (s *Store) CreateWorksheet(ws model.Worksheet) (int64, error) {
	if ws.ContentHash == "" {
		ws.ContentHash = ContentHash([]byte(ws.HTML))
	}
	if ws.Source == "" {
		ws.Source = "upload"
	}

	existing, err := s.FindWorksheetByHash(ws.ContentHash)
	if err != nil {
		return 0, fmt.Errorf("lookup worksheet hash: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	res, err := s.db.Exec(
		`INSERT INTO worksheets (title, topic, source, html, content_hash, question_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ws.Title, ws.Topic, ws.Source, ws.HTML, ws.ContentHash, ws.QuestionCount, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert worksheet: %w", err)
	}
	return res.LastInsertId()
}

// GetWorksheet returns a worksheet by ID, or nil if it does not exist.
func (s *Store) GetWorksheet(id int64) (*model.Worksheet, error) {
	var ws model.Worksheet
	err := s.db.QueryRow(
		`SELECT id, title, topic, source, html, content_hash, question_count, created_at
		 FROM worksheets WHERE id = ?`, id,
	).Scan(&ws.ID, &ws.Title, &ws.Topic, &ws.Source, &ws.HTML, &ws.ContentHash, &ws.QuestionCount, &ws.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// FindWorksheetByHash returns the worksheet with the given content hash, or
// nil if there is none.
func (s *Store) FindWorksheetByHash(hash string) (*model.Worksheet, error) {
	var ws model.Worksheet
	err := s.db.QueryRow(
		`SELECT id, title, topic, source, html, content_hash, question_count, created_at
		 FROM worksheets WHERE content_hash = ?`, hash,
	).Scan(&ws.ID, &ws.Title, &ws.Topic, &ws.Source, &ws.HTML, &ws.ContentHash, &ws.QuestionCount, &ws.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListWorksheets returns worksheets, newest first, without their markup. A
// non-empty topic limits the list to that topic.
func (s *Store) ListWorksheets(topic string) ([]model.Worksheet, error) {
	rows, err := s.db.Query(
		`SELECT id, title, topic, source, content_hash, question_count, created_at
		 FROM worksheets WHERE ? = '' OR topic = ? ORDER BY id DESC`,
		topic, topic,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.Worksheet
	for rows.Next() {
		var ws model.Worksheet
		if err := rows.Scan(&ws.ID, &ws.Title, &ws.Topic, &ws.Source, &ws.ContentHash, &ws.QuestionCount, &ws.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, ws)
	}
	return list, rows.Err()
}

// WorksheetCount returns the number of stored worksheets.
func (s *Store) WorksheetCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM worksheets`).Scan(&count)
	return count, err
}

// ListTopics returns the distinct non-empty worksheet topics in alphabetical order.
func (s *Store) ListTopics() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT topic FROM worksheets WHERE topic != '' ORDER BY topic`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// CreateSubmission stores a graded submission. Answers and the full score
// are kept as JSON; the headline numbers are also stored as columns.
func (s *Store) CreateSubmission(sub model.Submission) (int64, error) {
	answers := sub.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("marshal answers: %w", err)
	}
	resultJSON, err := json.Marshal(sub.Result)
	if err != nil {
		return 0, fmt.Errorf("marshal result: %w", err)
	}
	if sub.Mode == "" {
		sub.Mode = model.ModeStructured
	}

	res, err := s.db.Exec(
		`INSERT INTO submissions (token, worksheet_id, student_name, mode, answers, result, correct, total, percentage, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Token, sub.WorksheetID, sub.StudentName, sub.Mode, string(answersJSON), string(resultJSON),
		sub.Result.Correct, sub.Result.Total, sub.Result.Percentage, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return res.LastInsertId()
}

const submissionColumns = `id, token, worksheet_id, student_name, mode, answers, result, submitted_at`

func scanSubmission(scan func(dest ...any) error) (model.Submission, error) {
	var sub model.Submission
	var answersJSON, resultJSON string
	if err := scan(&sub.ID, &sub.Token, &sub.WorksheetID, &sub.StudentName, &sub.Mode,
		&answersJSON, &resultJSON, &sub.SubmittedAt); err != nil {
		return sub, err
	}
	if err := json.Unmarshal([]byte(answersJSON), &sub.Answers); err != nil {
		return sub, fmt.Errorf("decode answers of submission %d: %w", sub.ID, err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &sub.Result); err != nil {
		return sub, fmt.Errorf("decode result of submission %d: %w", sub.ID, err)
	}
	return sub, nil
}

// GetSubmissionByToken returns the submission with the given public token,
// or nil if there is none.
func (s *Store) GetSubmissionByToken(token string) (*model.Submission, error) {
	row := s.db.QueryRow(`SELECT `+submissionColumns+` FROM submissions WHERE token = ?`, token)
	sub, err := scanSubmission(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns the submissions for a worksheet in submission order.
func (s *Store) ListSubmissions(worksheetID int64) ([]model.Submission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionColumns+` FROM submissions WHERE worksheet_id = ? ORDER BY id`, worksheetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
