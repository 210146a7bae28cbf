package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt  *sql.Stmt
	insertItemStmt *sql.Stmt
	getRunStmt     *sql.Stmt
	itemsByRunStmt *sql.Stmt
}

var (
	sqliteOpen              = sql.Open
	sqlitePrepareStatements = (*SQLiteStore).prepareStatements
)

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sqliteOpen("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := sqlitePrepareStatements(st); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			provider TEXT NOT NULL,
			model TEXT NOT NULL,
			dataset TEXT NOT NULL,
			prompt TEXT NOT NULL,
			total INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			parse_failures INTEGER NOT NULL,
			call_failures INTEGER NOT NULL,
			total_elapsed_ms INTEGER NOT NULL,
			config_json TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_items (
			run_id TEXT NOT NULL,
			source_file TEXT NOT NULL,
			title TEXT NOT NULL,
			local_index INTEGER NOT NULL,
			question TEXT NOT NULL,
			expected TEXT NOT NULL,
			predicted TEXT NOT NULL,
			status TEXT NOT NULL,
			correct INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			error_detail TEXT NOT NULL,
			FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_items_run_id ON run_items(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_provider_model ON runs(provider, model, dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	ctx := context.Background()
	type stmtSpec struct {
		dst    **sql.Stmt
		query  string
		errFmt string
	}

	specs := []stmtSpec{
		{
			dst: &s.insertRunStmt,
			query: `
				INSERT INTO runs (
					id, started_at, finished_at, provider, model, dataset, prompt,
					total, correct, accuracy, parse_failures, call_failures, total_elapsed_ms, config_json
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert run: %w",
		},
		{
			dst: &s.insertItemStmt,
			query: `
				INSERT INTO run_items (
					run_id, source_file, title, local_index, question, expected,
					predicted, status, correct, elapsed_ms, error_detail
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
			errFmt: "store: prepare insert item: %w",
		},
		{
			dst: &s.getRunStmt,
			query: `
				SELECT id, started_at, finished_at, provider, model, dataset, prompt,
					total, correct, accuracy, parse_failures, call_failures, total_elapsed_ms, config_json
				FROM runs WHERE id = ?
			`,
			errFmt: "store: prepare get run: %w",
		},
		{
			dst: &s.itemsByRunStmt,
			query: `
				SELECT run_id, source_file, title, local_index, question, expected,
					predicted, status, correct, elapsed_ms, error_detail
				FROM run_items
				WHERE run_id = ?
				ORDER BY source_file ASC, local_index ASC
			`,
			errFmt: "store: prepare get items: %w",
		},
	}

	for _, spec := range specs {
		stmt, err := s.db.PrepareContext(ctx, spec.query)
		if err != nil {
			return fmt.Errorf(spec.errFmt, err)
		}
		*spec.dst = stmt
	}

	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	stmts := []*sql.Stmt{
		s.insertRunStmt,
		s.insertItemStmt,
		s.getRunStmt,
		s.itemsByRunStmt,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a run summary and its items in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord, items []ItemRecord) error {
	if s == nil {
		return errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return errors.New("store: nil context")
	}
	if run == nil {
		return errors.New("store: nil run")
	}

	id := strings.TrimSpace(run.ID)
	if id == "" {
		return errors.New("store: empty run id")
	}
	if run.StartedAt.IsZero() || run.FinishedAt.IsZero() {
		return errors.New("store: missing run timestamps")
	}

	cfgJSON := []byte("null")
	if run.Config != nil {
		var err error
		cfgJSON, err = json.Marshal(run.Config)
		if err != nil {
			return fmt.Errorf("store: marshal run config: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	runStmt := tx.StmtContext(ctx, s.insertRunStmt)
	defer runStmt.Close()

	_, err = runStmt.ExecContext(
		ctx,
		id,
		run.StartedAt.UTC().UnixMilli(),
		run.FinishedAt.UTC().UnixMilli(),
		run.Provider,
		run.Model,
		run.Dataset,
		run.Prompt,
		run.Total,
		run.Correct,
		run.Accuracy,
		run.ParseFailures,
		run.CallFailures,
		run.TotalElapsedMs,
		string(cfgJSON),
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	itemStmt := tx.StmtContext(ctx, s.insertItemStmt)
	defer itemStmt.Close()

	for i := range items {
		it := &items[i]
		_, err = itemStmt.ExecContext(
			ctx,
			id,
			it.SourceFile,
			it.Title,
			it.LocalIndex,
			it.Question,
			it.Expected,
			it.Predicted,
			it.Status,
			boolToInt(it.Correct),
			it.ElapsedMs,
			it.ErrorDetail,
		)
		if err != nil {
			return fmt.Errorf("store: insert item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit run: %w", err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("store: empty run id")
	}

	run, err := scanRun(s.getRunStmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, started_at, finished_at, provider, model, dataset, prompt,
		total, correct, accuracy, parse_failures, call_failures, total_elapsed_ms, config_json
		FROM runs WHERE 1=1`)

	var args []any
	if v := strings.TrimSpace(filter.Provider); v != "" {
		sb.WriteString(` AND provider = ?`)
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Model); v != "" {
		sb.WriteString(` AND model = ?`)
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Dataset); v != "" {
		sb.WriteString(` AND dataset = ?`)
		args = append(args, v)
	}
	if !filter.Since.IsZero() {
		sb.WriteString(` AND started_at >= ?`)
		args = append(args, filter.Since.UTC().UnixMilli())
	}
	if !filter.Until.IsZero() {
		sb.WriteString(` AND started_at <= ?`)
		args = append(args, filter.Until.UTC().UnixMilli())
	}
	sb.WriteString(` ORDER BY started_at DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

// GetItems lists a run's items in source order.
func (s *SQLiteStore) GetItems(ctx context.Context, runID string) ([]*ItemRecord, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, errors.New("store: empty run id")
	}

	rows, err := s.itemsByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get items: %w", err)
	}
	defer rows.Close()

	var out []*ItemRecord
	for rows.Next() {
		var (
			it      ItemRecord
			correct int
		)
		if err := rows.Scan(
			&it.RunID,
			&it.SourceFile,
			&it.Title,
			&it.LocalIndex,
			&it.Question,
			&it.Expected,
			&it.Predicted,
			&it.Status,
			&correct,
			&it.ElapsedMs,
			&it.ErrorDetail,
		); err != nil {
			return nil, fmt.Errorf("store: scan item: %w", err)
		}
		it.Correct = correct != 0
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan item rows: %w", err)
	}
	return out, nil
}

// Leaderboard ranks provider+model+dataset combinations by best accuracy.
func (s *SQLiteStore) Leaderboard(ctx context.Context, filter LeaderboardFilter) ([]*LeaderboardEntry, error) {
	if s == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	if ctx == nil {
		return nil, errors.New("store: nil context")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT r.provider, r.model, r.dataset, COUNT(*) AS runs,
			MAX(r.accuracy) AS best_accuracy,
			latest.accuracy AS latest_accuracy,
			latest.id AS latest_run_id,
			latest.started_at AS latest_started_at
		FROM runs r
		JOIN runs latest ON latest.id = (
			SELECT id FROM runs
			WHERE provider = r.provider AND model = r.model AND dataset = r.dataset
			ORDER BY started_at DESC LIMIT 1
		)
		WHERE 1=1`)

	var args []any
	if v := strings.TrimSpace(filter.Dataset); v != "" {
		sb.WriteString(` AND r.dataset = ?`)
		args = append(args, v)
	}
	sb.WriteString(`
		GROUP BY r.provider, r.model, r.dataset
		ORDER BY best_accuracy DESC, latest_started_at DESC
		LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*LeaderboardEntry
	for rows.Next() {
		var (
			e          LeaderboardEntry
			latestAtMS int64
		)
		if err := rows.Scan(
			&e.Provider,
			&e.Model,
			&e.Dataset,
			&e.Runs,
			&e.BestAccuracy,
			&e.LatestAccuracy,
			&e.LatestRunID,
			&latestAtMS,
		); err != nil {
			return nil, fmt.Errorf("store: scan leaderboard: %w", err)
		}
		e.LatestRunAt = time.UnixMilli(latestAtMS).UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: leaderboard rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		run          RunRecord
		startedAtMS  int64
		finishedAtMS int64
		cfgJSON      sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&startedAtMS,
		&finishedAtMS,
		&run.Provider,
		&run.Model,
		&run.Dataset,
		&run.Prompt,
		&run.Total,
		&run.Correct,
		&run.Accuracy,
		&run.ParseFailures,
		&run.CallFailures,
		&run.TotalElapsedMs,
		&cfgJSON,
	); err != nil {
		return nil, err
	}

	cfg, err := decodeConfig(cfgJSON)
	if err != nil {
		return nil, fmt.Errorf("decode run config: %w", err)
	}

	run.StartedAt = time.UnixMilli(startedAtMS).UTC()
	run.FinishedAt = time.UnixMilli(finishedAtMS).UTC()
	run.Config = cfg
	return &run, nil
}

func decodeConfig(cfgJSON sql.NullString) (map[string]any, error) {
	if !cfgJSON.Valid {
		return nil, nil
	}
	raw := strings.TrimSpace(cfgJSON.String)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
