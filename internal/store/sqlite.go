package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	campaign   TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	stats      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS opportunities (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL REFERENCES runs(id),
	url             TEXT NOT NULL,
	title           TEXT NOT NULL,
	snippet         TEXT NOT NULL,
	backend         TEXT NOT NULL,
	original_query  TEXT NOT NULL,
	relevance       REAL NOT NULL,
	content_quality REAL NOT NULL,
	authority       REAL NOT NULL,
	spam_risk       REAL NOT NULL,
	confidence      TEXT NOT NULL,
	is_opportunity  INTEGER NOT NULL DEFAULT 0,
	contact_email   TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS budget_ledger (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_opportunities_run_id ON opportunities(run_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_is_opportunity ON opportunities(is_opportunity);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, campaign model.Campaign) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	campaignJSON, err := json.Marshal(campaign)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal campaign")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, campaign, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(campaignJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Campaign:  campaign,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET stats = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(statsJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, campaign, status, stats, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, campaign, status, stats, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Keyword != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(campaign, '$.keywords') WHERE json_each.value = ?)`
		args = append(args, filter.Keyword)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveOpportunities(ctx context.Context, runID string, candidates []model.OpportunityCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO opportunities
		 (id, run_id, url, title, snippet, backend, original_query,
		  relevance, content_quality, authority, spam_risk, confidence, is_opportunity, contact_email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert opportunity")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range candidates {
		isOpp := 0
		if c.IsOpportunity {
			isOpp = 1
		}
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, c.URL, c.Title, c.Snippet,
			string(c.Backend), c.OriginalQuery,
			c.RelevanceScore, c.ContentQualityScore, c.AuthorityScore, c.SpamRiskScore,
			string(c.Confidence), isOpp, c.ContactEmail, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert opportunity %s", c.URL)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit opportunities")
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.OpportunityCandidate, error) {
	query := `SELECT url, title, snippet, backend, original_query,
	          relevance, content_quality, authority, spam_risk, confidence, is_opportunity, contact_email
	          FROM opportunities WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.OnlyOpportunities {
		query += ` AND is_opportunity = 1`
	}
	if filter.Confidence != "" {
		query += ` AND confidence = ?`
		args = append(args, string(filter.Confidence))
	}
	if filter.MinRelevance > 0 {
		query += ` AND relevance >= ?`
		args = append(args, filter.MinRelevance)
	}
	query += ` ORDER BY relevance DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()

	var out []model.OpportunityCandidate
	for rows.Next() {
		var c model.OpportunityCandidate
		var backend, confidence string
		var isOpp int
		var email sql.NullString

		err := rows.Scan(&c.URL, &c.Title, &c.Snippet, &backend, &c.OriginalQuery,
			&c.RelevanceScore, &c.ContentQualityScore, &c.AuthorityScore, &c.SpamRiskScore,
			&confidence, &isOpp, &email)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity")
		}
		c.Backend = model.Backend(backend)
		c.Confidence = model.Confidence(confidence)
		c.IsOpportunity = isOpp == 1
		if email.Valid {
			c.ContactEmail = email.String
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list opportunities iterate")
}

func (s *SQLiteStore) SaveLedger(ctx context.Context, l budget.Ledger) error {
	data, err := json.Marshal(l)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal ledger")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO budget_ledger (id, data, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save ledger")
}

func (s *SQLiteStore) LoadLedger(ctx context.Context) (*budget.Ledger, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM budget_ledger WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load ledger")
	}

	var l budget.Ledger
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal ledger")
	}
	return &l, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var campaignJSON string
	var statsJSON sql.NullString

	err := row.Scan(&r.ID, &campaignJSON, &r.Status, &statsJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(campaignJSON), &r.Campaign); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal campaign")
	}
	if statsJSON.Valid {
		r.Stats = &model.RunStats{}
		if err := json.Unmarshal([]byte(statsJSON.String), r.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stats")
		}
	}
	return &r, nil
}
