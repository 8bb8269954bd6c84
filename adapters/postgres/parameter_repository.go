package postgres

import (
	"context"
	"database/sql"
	"time"

	"bedesign/domain/core"
	"bedesign/domain/pk"
	"bedesign/ports"

	"github.com/jmoiron/sqlx"
)

// ParameterRepositoryImpl implements ParameterRepository for PostgreSQL
type ParameterRepositoryImpl struct {
	db *sqlx.DB
}

// NewParameterRepository creates a new PostgreSQL parameter repository
func NewParameterRepository(db *sqlx.DB) ports.ParameterRepository {
	return &ParameterRepositoryImpl{db: db}
}

type parameterRow struct {
	ParamID     string         `db:"param_id"`
	ProjectID   string         `db:"project_id"`
	Parameter   string         `db:"parameter"`
	Value       float64        `db:"value"`
	Unit        sql.NullString `db:"unit"`
	SourcePMID  sql.NullString `db:"source_pmid"`
	SourceTitle sql.NullString `db:"source_title"`
	IsReliable  bool           `db:"is_reliable"`
	CreatedAt   time.Time      `db:"created_at"`
}

// SaveBatch persists a set of observations in one transaction
func (r *ParameterRepositoryImpl) SaveBatch(ctx context.Context, params []pk.DrugParameter) error {
	if len(params) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range params {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO drug_parameters (param_id, project_id, parameter, value, unit, source_pmid, source_title, is_reliable, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, p.ID.String(), p.ProjectID.String(), string(p.Kind), p.Value, nullable(p.Unit),
			nullable(p.Provenance.PMID), nullable(p.Provenance.Title), p.IsReliable, p.CreatedAt.Time())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListByProject returns all observations stored for a project
func (r *ParameterRepositoryImpl) ListByProject(ctx context.Context, projectID core.ProjectID) ([]pk.DrugParameter, error) {
	var rows []parameterRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT param_id, project_id, parameter, value, unit, source_pmid, source_title, is_reliable, created_at
		FROM drug_parameters
		WHERE project_id = $1
		ORDER BY created_at, param_id
	`, projectID.String())
	if err != nil {
		return nil, err
	}

	params := make([]pk.DrugParameter, 0, len(rows))
	for _, row := range rows {
		params = append(params, pk.DrugParameter{
			ID:        core.ParameterID(row.ParamID),
			ProjectID: core.ProjectID(row.ProjectID),
			Kind:      pk.ParameterKind(row.Parameter),
			Value:     row.Value,
			Unit:      row.Unit.String,
			Provenance: pk.Provenance{
				PMID:  row.SourcePMID.String,
				Title: row.SourceTitle.String,
			},
			IsReliable: row.IsReliable,
			CreatedAt:  core.NewTimestamp(row.CreatedAt),
		})
	}
	return params, nil
}
