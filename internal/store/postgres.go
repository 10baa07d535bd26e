package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/budget"
	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO runs (id, campaign, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_run_status": `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"complete_run":      `UPDATE runs SET stats = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, campaign, status, stats, created_at, updated_at FROM runs WHERE id = $1`,
	"load_ledger":       `SELECT data FROM budget_ledger WHERE id = 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	campaign   JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	stats      JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS opportunities (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id          TEXT NOT NULL REFERENCES runs(id),
	url             TEXT NOT NULL,
	title           TEXT NOT NULL,
	snippet         TEXT NOT NULL,
	backend         TEXT NOT NULL,
	original_query  TEXT NOT NULL,
	relevance       DOUBLE PRECISION NOT NULL,
	content_quality DOUBLE PRECISION NOT NULL,
	authority       DOUBLE PRECISION NOT NULL,
	spam_risk       DOUBLE PRECISION NOT NULL,
	confidence      TEXT NOT NULL,
	is_opportunity  BOOLEAN NOT NULL DEFAULT false,
	contact_email   TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS budget_ledger (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_opportunities_run_id ON opportunities(run_id);
CREATE INDEX IF NOT EXISTS idx_opportunities_is_opportunity ON opportunities(is_opportunity);
CREATE INDEX IF NOT EXISTS idx_opportunities_relevance ON opportunities(relevance DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, campaign model.Campaign) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	campaignJSON, err := json.Marshal(campaign)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal campaign")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, campaign, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, campaignJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Campaign:  campaign,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET stats = $1, status = $2, updated_at = $3 WHERE id = $4`,
		statsJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var campaignJSON []byte
	var statsNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, campaign, status, stats, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &campaignJSON, &r.Status, &statsNull, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(campaignJSON, &r.Campaign); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal campaign")
	}
	if statsNull != nil {
		r.Stats = &model.RunStats{}
		if err := json.Unmarshal(*statsNull, r.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stats")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, campaign, status, stats, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Keyword != "" {
		query += fmt.Sprintf(` AND campaign->'keywords' ? $%d`, argIdx)
		args = append(args, filter.Keyword)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var campaignJSON []byte
		var statsNull *[]byte

		if err := rows.Scan(&r.ID, &campaignJSON, &r.Status, &statsNull, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(campaignJSON, &r.Campaign); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal campaign")
		}
		if statsNull != nil {
			r.Stats = &model.RunStats{}
			if err := json.Unmarshal(*statsNull, r.Stats); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal stats")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var opportunityColumns = []string{
	"id", "run_id", "url", "title", "snippet", "backend", "original_query",
	"relevance", "content_quality", "authority", "spam_risk",
	"confidence", "is_opportunity", "contact_email", "created_at",
}

func (s *PostgresStore) SaveOpportunities(ctx context.Context, runID string, candidates []model.OpportunityCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(candidates))
	for _, c := range candidates {
		var email any
		if c.ContactEmail != "" {
			email = c.ContactEmail
		}
		rows = append(rows, []any{
			uuid.New().String(), runID, c.URL, c.Title, c.Snippet,
			string(c.Backend), c.OriginalQuery,
			c.RelevanceScore, c.ContentQualityScore, c.AuthorityScore, c.SpamRiskScore,
			string(c.Confidence), c.IsOpportunity, email, now,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "opportunities", opportunityColumns, rows)
	if err != nil {
		return eris.Wrapf(err, "postgres: save opportunities for run %s", runID)
	}
	if n != int64(len(rows)) {
		return eris.Errorf("postgres: copied %d of %d opportunities", n, len(rows))
	}
	return nil
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, filter OpportunityFilter) ([]model.OpportunityCandidate, error) {
	query := `SELECT url, title, snippet, backend, original_query,
	          relevance, content_quality, authority, spam_risk, confidence, is_opportunity, contact_email
	          FROM opportunities WHERE true`
	args := []any{}
	argIdx := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, argIdx)
		args = append(args, filter.RunID)
		argIdx++
	}
	if filter.OnlyOpportunities {
		query += ` AND is_opportunity`
	}
	if filter.Confidence != "" {
		query += fmt.Sprintf(` AND confidence = $%d`, argIdx)
		args = append(args, string(filter.Confidence))
		argIdx++
	}
	if filter.MinRelevance > 0 {
		query += fmt.Sprintf(` AND relevance >= $%d`, argIdx)
		args = append(args, filter.MinRelevance)
		argIdx++
	}
	query += ` ORDER BY relevance DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	var out []model.OpportunityCandidate
	for rows.Next() {
		var c model.OpportunityCandidate
		var backend, confidence string
		var email *string

		err := rows.Scan(&c.URL, &c.Title, &c.Snippet, &backend, &c.OriginalQuery,
			&c.RelevanceScore, &c.ContentQualityScore, &c.AuthorityScore, &c.SpamRiskScore,
			&confidence, &c.IsOpportunity, &email)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity")
		}
		c.Backend = model.Backend(backend)
		c.Confidence = model.Confidence(confidence)
		if email != nil {
			c.ContactEmail = *email
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list opportunities iterate")
}

func (s *PostgresStore) SaveLedger(ctx context.Context, l budget.Ledger) error {
	data, err := json.Marshal(l)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal ledger")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO budget_ledger (id, data, updated_at) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET data = $1, updated_at = $2`,
		data, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: save ledger")
}

func (s *PostgresStore) LoadLedger(ctx context.Context) (*budget.Ledger, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM budget_ledger WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: load ledger")
	}

	var l budget.Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal ledger")
	}
	return &l, nil
}
