package migration

import (
	"context"

	"bedesign/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Runner handles database schema migrations
type Runner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *Runner {
	return &Runner{version: "1.0.0"}
}

// Version returns the migration version
func (r *Runner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *Runner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createProjectsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create projects table")
	}
	if err := r.createDrugParametersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create drug_parameters table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *Runner) createProjectsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			project_id UUID PRIMARY KEY,
			inn_en VARCHAR(255) NOT NULL,
			inn_ru VARCHAR(255),
			dosage VARCHAR(100) NOT NULL,
			form VARCHAR(100),
			status VARCHAR(50) NOT NULL DEFAULT 'searching',
			status_message TEXT,
			search_summary JSONB,
			design_result JSONB,
			regulatory_verdict JSONB,
			report_artifact JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *Runner) createDrugParametersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS drug_parameters (
			param_id UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
			parameter VARCHAR(50) NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			unit VARCHAR(50),
			source_pmid VARCHAR(50),
			source_title TEXT,
			is_reliable BOOLEAN DEFAULT true,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *Runner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_drug_parameters_project ON drug_parameters(project_id);
		CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)
	`)
	return err
}
