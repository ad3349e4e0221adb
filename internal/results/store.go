// Package results persists simulation runs in SQLite.
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/simulator"
	"github.com/lox/blackjacksim/internal/strategy"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// DefaultListLimit bounds List when the caller passes no limit.
const DefaultListLimit = 50

// Run is one stored simulation.
type Run struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Strategy  strategy.Config         `json:"strategy"`
	Rules     game.Rules              `json:"rules"`
	Result    *simulator.Result       `json:"result"`
	Trials    *simulator.TrialSummary `json:"trials,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// Store is a SQLite backed run store.
type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithPrefix("results")
		}
	}
}

// WithNow overrides the time source used for created_at.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens or creates the database at path and makes sure the schema exists.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect results database: %w", err)
	}
	// sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Debug("Opened results store", "path", path)
	return s, nil
}

func (s *Store) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			strategy TEXT NOT NULL,
			rules TEXT NOT NULL,
			result TEXT NOT NULL,
			trials TEXT,
			roi REAL NOT NULL,
			hands INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create runs table: %w", err)
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at DESC)`)
	if err != nil {
		return fmt.Errorf("create runs index: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores run, assigning an id and creation time when they are unset.
// The stored run is returned.
func (s *Store) Save(ctx context.Context, run Run) (Run, error) {
	if run.Result == nil {
		return Run{}, errors.New("save run: missing result")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	if run.Name == "" {
		run.Name = run.Strategy.Name
	}

	strat, err := json.Marshal(run.Strategy)
	if err != nil {
		return Run{}, fmt.Errorf("encode strategy: %w", err)
	}
	rules, err := json.Marshal(run.Rules)
	if err != nil {
		return Run{}, fmt.Errorf("encode rules: %w", err)
	}
	result, err := json.Marshal(run.Result)
	if err != nil {
		return Run{}, fmt.Errorf("encode result: %w", err)
	}
	var trials []byte
	if run.Trials != nil {
		if trials, err = json.Marshal(run.Trials); err != nil {
			return Run{}, fmt.Errorf("encode trials: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, strategy, rules, result, trials, roi, hands, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Name, string(strat), string(rules), string(result), nullString(trials),
		run.Result.ROI, run.Result.Hands, run.CreatedAt.UnixNano())
	if err != nil {
		return Run{}, fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	s.logger.Debug("Saved run", "id", run.ID, "name", run.Name, "roi", run.Result.ROI)
	return run, nil
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                  Run
		strat, rules, result string
		trials               sql.NullString
		createdAt            int64
	)
	if err := row.Scan(&run.ID, &run.Name, &strat, &rules, &result, &trials, &createdAt); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(strat), &run.Strategy); err != nil {
		return Run{}, fmt.Errorf("decode strategy of %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(rules), &run.Rules); err != nil {
		return Run{}, fmt.Errorf("decode rules of %s: %w", run.ID, err)
	}
	run.Result = new(simulator.Result)
	if err := json.Unmarshal([]byte(result), run.Result); err != nil {
		return Run{}, fmt.Errorf("decode result of %s: %w", run.ID, err)
	}
	if trials.Valid {
		run.Trials = new(simulator.TrialSummary)
		if err := json.Unmarshal([]byte(trials.String), run.Trials); err != nil {
			return Run{}, fmt.Errorf("decode trials of %s: %w", run.ID, err)
		}
	}
	run.CreatedAt = time.Unix(0, createdAt).UTC()
	return run, nil
}

const selectRuns = `SELECT id, name, strategy, rules, result, trials, created_at FROM runs`

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Delete removes the run with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
