package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

const (
	jobFields = `id, name, entrypoint, source_bundle, runtime_image, instance_type, instance_count,
	inputs, outputs, parameters, timeout_seconds, state, etag, backend_job_id, result_locations,
	message, created_at, updated_at`
)

var (
	terminalStates = []string{
		string(structs.SUCCEEDED),
		string(structs.FAILED),
		string(structs.TIMED_OUT),
	}
)

// Postgres is a ferry database implementation that uses postgres.
type Postgres struct {
	opts *Options
	pool *pgxpool.Pool
}

// NewPostgres returns a new Postgres database connection.
func NewPostgres(opts *Options) (*Postgres, error) {
	opts.setDefaults()
	pool, err := pgxpool.New(context.Background(), opts.resolveURL())
	return &Postgres{pool: pool, opts: opts}, err
}

// Close shuts down the database connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// InsertJob records a newly submitted job.
func (p *Postgres) InsertJob(j *structs.Job) error {
	inputs, err := json.Marshal(j.Inputs)
	if err != nil {
		return err
	}
	outputs, err := json.Marshal(j.Outputs)
	if err != nil {
		return err
	}
	params, err := json.Marshal(j.Parameters)
	if err != nil {
		return err
	}
	results, err := json.Marshal(j.ResultLocations)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(context.Background(),
		fmt.Sprintf(`INSERT INTO jobs (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`, jobFields),
		j.ID, j.Name, j.Entrypoint, j.SourceBundle, j.RuntimeImage,
		j.Compute.InstanceType, j.Compute.InstanceCount,
		inputs, outputs, params, j.TimeoutSeconds,
		string(j.State), j.ETag, j.BackendJobID, results,
		j.Message, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

// SetJobsState sets the state of the given jobs, matching on id + etag.
// Jobs already in a terminal state are left alone.
func (p *Postgres) SetJobsState(state structs.State, newTag string, ids []*structs.ObjectRef, msg ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := []interface{}{string(state), newTag, time.Now().Unix(), strings.Join(msg, " ")}
	ors := []string{}
	for _, ref := range ids {
		ors = append(ors, fmt.Sprintf("(id=$%d AND etag=$%d)", len(args)+1, len(args)+2))
		args = append(args, ref.ID, ref.ETag)
	}

	tag, err := p.pool.Exec(context.Background(),
		fmt.Sprintf(`UPDATE jobs SET state=$1, etag=$2, updated_at=$3, message=$4
		WHERE (%s) AND state NOT IN (%s);`, strings.Join(ors, " OR "), quoteJoin(terminalStates)),
		args...,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SetJobSucceeded marks a job SUCCEEDED & records its result locations.
func (p *Postgres) SetJobSucceeded(ref *structs.ObjectRef, newTag string, results []string) (int64, error) {
	data, err := json.Marshal(results)
	if err != nil {
		return 0, err
	}

	tag, err := p.pool.Exec(context.Background(),
		fmt.Sprintf(`UPDATE jobs SET state=$1, etag=$2, updated_at=$3, result_locations=$4
		WHERE id=$5 AND etag=$6 AND state NOT IN (%s);`, quoteJoin(terminalStates)),
		string(structs.SUCCEEDED), newTag, time.Now().Unix(), data, ref.ID, ref.ETag,
	)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() != 1 {
		return tag.RowsAffected(), fmt.Errorf("%w update altered %d entries", errors.ErrETagMismatch, tag.RowsAffected())
	}
	return tag.RowsAffected(), nil
}

// Jobs returns jobs matching the given query.
func (p *Postgres) Jobs(q *structs.Query) ([]*structs.Job, error) {
	q.Sanitize()

	args := []interface{}{}
	wheres := []string{}
	if q.JobIDs != nil {
		args = append(args, q.JobIDs)
		wheres = append(wheres, fmt.Sprintf("id = ANY($%d)", len(args)))
	}
	if q.States != nil {
		states := []string{}
		for _, s := range q.States {
			states = append(states, string(s))
		}
		args = append(args, states)
		wheres = append(wheres, fmt.Sprintf("state = ANY($%d)", len(args)))
	}
	if q.Entrypoints != nil {
		args = append(args, q.Entrypoints)
		wheres = append(wheres, fmt.Sprintf("entrypoint = ANY($%d)", len(args)))
	}

	where := ""
	if len(wheres) > 0 {
		where = "WHERE " + strings.Join(wheres, " AND ")
	}
	args = append(args, q.Limit, q.Offset)

	rows, err := p.pool.Query(context.Background(),
		fmt.Sprintf(`SELECT %s FROM jobs %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d;`,
			jobFields, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*structs.Job{}
	for rows.Next() {
		var inputs, outputs, params, results []byte
		var state string

		j := &structs.Job{}
		err = rows.Scan(
			&j.ID, &j.Name, &j.Entrypoint, &j.SourceBundle, &j.RuntimeImage,
			&j.Compute.InstanceType, &j.Compute.InstanceCount,
			&inputs, &outputs, &params, &j.TimeoutSeconds,
			&state, &j.ETag, &j.BackendJobID, &results,
			&j.Message, &j.CreatedAt, &j.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		j.State = structs.State(state)

		if err = json.Unmarshal(inputs, &j.Inputs); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(outputs, &j.Outputs); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(params, &j.Parameters); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(results, &j.ResultLocations); err != nil {
			return nil, err
		}

		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func quoteJoin(in []string) string {
	out := []string{}
	for _, s := range in {
		out = append(out, "'"+s+"'")
	}
	return strings.Join(out, ",")
}
