/*
 * Copyright (c) 2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sqrl "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"k8s.io/klog/v2"

	v1 "github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/api/v1"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/errors"
	"github.com/AMD-AIG-AIMA/SAFE/experiment-manager/pkg/utils"
)

const (
	TExperiment = "experiment"
)

var (
	createExperimentTableCmd = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id            TEXT PRIMARY KEY,
		state         TEXT NOT NULL DEFAULT '',
		cluster_id    TEXT,
		spec          JSONB,
		status        JSONB,
		time_created  TIMESTAMPTZ,
		time_modified TIMESTAMPTZ
	)`, TExperiment)
	getExperimentCmd    = fmt.Sprintf(`SELECT * FROM %s WHERE id = $1 LIMIT 1`, TExperiment)
	insertExperimentCmd = fmt.Sprintf(`INSERT INTO %s (id, state, cluster_id, spec, status, time_created, time_modified)
		VALUES (:id, :state, :cluster_id, :spec, :status, :time_created, :time_modified)`, TExperiment)
	updateExperimentCmd = fmt.Sprintf(`UPDATE %s
		SET state = :state,
		    cluster_id = :cluster_id,
		    spec = :spec,
		    status = :status,
		    time_modified = :time_modified
		WHERE id = :id`, TExperiment)
	deleteExperimentCmd = fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, TExperiment)
)

// ExperimentRow is the table shape of an experiment record. The spec and
// status blobs are the source of truth; the flat columns exist for
// filtering and sorting.
type ExperimentRow struct {
	Id           string         `db:"id"`
	State        string         `db:"state"`
	ClusterId    sql.NullString `db:"cluster_id"`
	Spec         []byte         `db:"spec"`
	Status       []byte         `db:"status"`
	TimeCreated  pq.NullTime    `db:"time_created"`
	TimeModified pq.NullTime    `db:"time_modified"`
}

// Store persists experiment records in Postgres.
type Store struct {
	db             *sqlx.DB
	requestTimeout time.Duration
}

func NewStore(db *sqlx.DB, requestTimeout time.Duration) *Store {
	return &Store{db: db, requestTimeout: requestTimeout}
}

// EnsureSchema creates the experiment table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := s.requestContext(ctx)
	defer cancel()
	_, err := s.db.ExecContext(ctx, createExperimentTableCmd)
	return err
}

// Save writes the record, inserting or updating as needed.
func (s *Store) Save(ctx context.Context, exp *v1.Experiment) error {
	if exp == nil {
		return nil
	}
	row := toRow(exp)
	db := s.db.Unsafe()
	ctx, cancel := s.requestContext(ctx)
	defer cancel()

	var rows []*ExperimentRow
	if err := db.SelectContext(ctx, &rows, getExperimentCmd, exp.Id); err != nil {
		klog.ErrorS(err, "failed to select experiment", "id", exp.Id)
		return err
	}
	var err error
	if len(rows) > 0 && rows[0] != nil {
		_, err = db.NamedExecContext(ctx, updateExperimentCmd, row)
	} else {
		_, err = db.NamedExecContext(ctx, insertExperimentCmd, row)
	}
	if err != nil {
		klog.ErrorS(err, "failed to upsert experiment db", "id", exp.Id)
	}
	return err
}

// Get returns the stored record with the id.
func (s *Store) Get(ctx context.Context, id string) (*v1.Experiment, error) {
	exps, err := s.List(ctx, sqrl.Eq{"id": id}, nil, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(exps) == 0 {
		return nil, errors.NewExperimentNotFound(id)
	}
	return exps[0], nil
}

// List returns the records matching query in the given order. A negative
// limit returns all matches.
func (s *Store) List(ctx context.Context, query sqrl.Sqlizer, orderBy []string, limit, offset int) ([]*v1.Experiment, error) {
	startTime := time.Now().UTC()
	defer func() {
		if query != nil {
			if strQuery, args, err := query.ToSql(); err == nil {
				klog.Infof("select experiment, where: %s, args: %v, cost (%v)", strQuery, args, time.Since(startTime))
			}
		}
	}()

	if s.db == nil {
		return nil, errors.NewInternalError("The client of db has not been initialized")
	}
	db := s.db.Unsafe()
	if limit < 0 {
		var err error
		if limit, err = s.Count(ctx, query); err != nil {
			return nil, err
		}
	}
	if offset < 0 {
		offset = 0
	}
	builder := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).From(TExperiment)
	if query != nil {
		builder = builder.Where(query)
	}
	cmd, args, err := builder.OrderBy(orderBy...).Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.requestContext(ctx)
	defer cancel()
	var rows []*ExperimentRow
	if err = db.SelectContext(ctx, &rows, cmd, args...); err != nil {
		return nil, err
	}
	exps := make([]*v1.Experiment, 0, len(rows))
	for _, row := range rows {
		exp, err := toExperiment(row)
		if err != nil {
			klog.ErrorS(err, "skip broken experiment row", "id", row.Id)
			continue
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

// ListAll returns every stored record ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]*v1.Experiment, error) {
	return s.List(ctx, nil, []string{"id ASC"}, -1, 0)
}

// Count returns the number of records matching query.
func (s *Store) Count(ctx context.Context, query sqrl.Sqlizer) (int, error) {
	if s.db == nil {
		return 0, errors.NewInternalError("The client of db has not been initialized")
	}
	db := s.db.Unsafe()
	builder := sqrl.Select("COUNT(*)").PlaceholderFormat(sqrl.Dollar).From(TExperiment)
	if query != nil {
		builder = builder.Where(query)
	}
	cmd, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.requestContext(ctx)
	defer cancel()
	var cnt int
	err = db.GetContext(ctx, &cnt, cmd, args...)
	return cnt, err
}

// Delete removes the record with the id. Deleting an absent record is
// not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	db := s.db.Unsafe()
	ctx, cancel := s.requestContext(ctx)
	defer cancel()
	if _, err := db.ExecContext(ctx, deleteExperimentCmd, id); err != nil {
		klog.ErrorS(err, "failed to delete experiment db", "id", id)
		return err
	}
	return nil
}

func (s *Store) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout > 0 {
		return context.WithTimeout(ctx, s.requestTimeout)
	}
	return context.WithCancel(ctx)
}

func toRow(exp *v1.Experiment) *ExperimentRow {
	return &ExperimentRow{
		Id:           exp.Id,
		State:        string(exp.State()),
		ClusterId:    NullString(exp.Status.ClusterId),
		Spec:         utils.MarshalSilently(&exp.Spec),
		Status:       utils.MarshalSilently(&exp.Status),
		TimeCreated:  NullTime(exp.Status.TimeCreated),
		TimeModified: NullTime(exp.Status.TimeModified),
	}
}

func toExperiment(row *ExperimentRow) (*v1.Experiment, error) {
	exp := &v1.Experiment{Id: row.Id}
	if len(row.Spec) > 0 {
		if err := json.Unmarshal(row.Spec, &exp.Spec); err != nil {
			return nil, fmt.Errorf("broken spec of experiment %s: %v", row.Id, err)
		}
	}
	if len(row.Status) > 0 {
		if err := json.Unmarshal(row.Status, &exp.Status); err != nil {
			return nil, fmt.Errorf("broken status of experiment %s: %v", row.Id, err)
		}
	}
	return exp, nil
}

func NullString(str string) sql.NullString {
	if str == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: str, Valid: true}
}

func NullTime(t time.Time) pq.NullTime {
	if t.IsZero() {
		return pq.NullTime{Valid: false}
	}
	return pq.NullTime{Time: t, Valid: true}
}

// NullStore discards writes. Used when the database is disabled; the
// definitions directory is then the only source of truth across restarts.
type NullStore struct{}

func (NullStore) Save(_ context.Context, _ *v1.Experiment) error { return nil }

func (NullStore) Delete(_ context.Context, _ string) error { return nil }
