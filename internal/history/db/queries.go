package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Run struct {
	ID         int64
	Product    string
	Mode       string
	StartedAt  int64
	FinishedAt int64
	OutputFile string
	RowCount   int64
	Failed     bool
}

type RunSource struct {
	RunID    int64
	Position int64
	Source   string
	Fetched  int64
	Admitted int64
	Error    string
}

const createRun = `insert into run (
    product, mode, started_at, finished_at, output_file, row_count, failed
) values (?, ?, ?, ?, ?, ?, ?)
returning id`

type CreateRunParams struct {
	Product    string
	Mode       string
	StartedAt  int64
	FinishedAt int64
	OutputFile string
	RowCount   int64
	Failed     bool
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createRun,
		arg.Product,
		arg.Mode,
		arg.StartedAt,
		arg.FinishedAt,
		arg.OutputFile,
		arg.RowCount,
		arg.Failed,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createRunSource = `insert into run_source (
    run_id, position, source, fetched, admitted, error
) values (?, ?, ?, ?, ?, ?)`

type CreateRunSourceParams struct {
	RunID    int64
	Position int64
	Source   string
	Fetched  int64
	Admitted int64
	Error    string
}

func (q *Queries) CreateRunSource(ctx context.Context, arg CreateRunSourceParams) error {
	_, err := q.db.ExecContext(ctx, createRunSource,
		arg.RunID,
		arg.Position,
		arg.Source,
		arg.Fetched,
		arg.Admitted,
		arg.Error,
	)
	return err
}

const createRunNewVersion = `insert into run_new_version (run_id, position, version) values (?, ?, ?)`

type CreateRunNewVersionParams struct {
	RunID    int64
	Position int64
	Version  string
}

func (q *Queries) CreateRunNewVersion(ctx context.Context, arg CreateRunNewVersionParams) error {
	_, err := q.db.ExecContext(ctx, createRunNewVersion, arg.RunID, arg.Position, arg.Version)
	return err
}

const getRecentRuns = `select id, product, mode, started_at, finished_at, output_file, row_count, failed
from run
where product = ?
order by started_at desc, id desc
limit ?`

type GetRecentRunsParams struct {
	Product string
	Limit   int64
}

func (q *Queries) GetRecentRuns(ctx context.Context, arg GetRecentRunsParams) ([]Run, error) {
	rows, err := q.db.QueryContext(ctx, getRecentRuns, arg.Product, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Run
	for rows.Next() {
		var i Run
		if err := rows.Scan(
			&i.ID,
			&i.Product,
			&i.Mode,
			&i.StartedAt,
			&i.FinishedAt,
			&i.OutputFile,
			&i.RowCount,
			&i.Failed,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRunSources = `select run_id, position, source, fetched, admitted, error
from run_source
where run_id = ?
order by position`

func (q *Queries) GetRunSources(ctx context.Context, runID int64) ([]RunSource, error) {
	rows, err := q.db.QueryContext(ctx, getRunSources, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RunSource
	for rows.Next() {
		var i RunSource
		if err := rows.Scan(
			&i.RunID,
			&i.Position,
			&i.Source,
			&i.Fetched,
			&i.Admitted,
			&i.Error,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRunNewVersions = `select version from run_new_version where run_id = ? order by position`

func (q *Queries) GetRunNewVersions(ctx context.Context, runID int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getRunNewVersions, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		items = append(items, version)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
