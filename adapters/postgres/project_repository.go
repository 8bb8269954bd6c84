package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bedesign/domain/core"
	"bedesign/domain/design"
	"bedesign/domain/project"
	"bedesign/domain/regulatory"
	"bedesign/ports"

	"github.com/jmoiron/sqlx"
)

// ProjectRepositoryImpl implements ProjectRepository for PostgreSQL
type ProjectRepositoryImpl struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new PostgreSQL project repository
func NewProjectRepository(db *sqlx.DB) ports.ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

// projectRow maps the projects table for sqlx scanning
type projectRow struct {
	ProjectID     string         `db:"project_id"`
	INNEn         string         `db:"inn_en"`
	INNRu         sql.NullString `db:"inn_ru"`
	Dosage        string         `db:"dosage"`
	Form          sql.NullString `db:"form"`
	Status        string         `db:"status"`
	StatusMessage sql.NullString `db:"status_message"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	SearchSummary []byte         `db:"search_summary"`
	DesignResult  []byte         `db:"design_result"`
	Verdict       []byte         `db:"regulatory_verdict"`
	Report        []byte         `db:"report_artifact"`
}

// Create persists a new project in its initial state
func (r *ProjectRepositoryImpl) Create(ctx context.Context, p *project.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (project_id, inn_en, inn_ru, dosage, form, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID.String(), p.Drug.INNEn, nullable(p.Drug.INNRu), p.Drug.Dosage, nullable(p.Drug.Form),
		string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

// GetByID retrieves a project with all populated stage results
func (r *ProjectRepositoryImpl) GetByID(ctx context.Context, id core.ProjectID) (*project.Project, error) {
	var row projectRow
	err := r.db.GetContext(ctx, &row, `
		SELECT project_id, inn_en, inn_ru, dosage, form, status, status_message,
		       created_at, updated_at, search_summary, design_result, regulatory_verdict, report_artifact
		FROM projects
		WHERE project_id = $1
	`, id.String())
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("project", id.String())
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// CommitStage atomically writes a stage's results with the status guard.
// When NewStatus equals expected this is a results-only commit (the design
// stage persists its result while the project stays in
// searching_completed); otherwise the move must be in the transition table.
func (r *ProjectRepositoryImpl) CommitStage(ctx context.Context, id core.ProjectID, expected project.Status, commit project.StageCommit) error {
	if commit.NewStatus != expected {
		if err := project.CheckTransition(expected, commit.NewStatus); err != nil {
			return err
		}
	}

	summaryJSON, err := marshalOrNil(commit.SearchSummary)
	if err != nil {
		return err
	}
	designJSON, err := marshalOrNil(commit.Design)
	if err != nil {
		return err
	}
	verdictJSON, err := marshalOrNil(commit.Verdict)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET status = $3,
		    status_message = $4,
		    search_summary = COALESCE($5, search_summary),
		    design_result = COALESCE($6, design_result),
		    regulatory_verdict = COALESCE($7, regulatory_verdict),
		    updated_at = NOW()
		WHERE project_id = $1 AND status = $2
	`, id.String(), string(expected), string(commit.NewStatus), nullable(commit.Message),
		summaryJSON, designJSON, verdictJSON)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either the project vanished or another run already moved it on
		exists, err := r.exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return core.NewNotFoundError("project", id.String())
		}
		return fmt.Errorf("%w: status no longer %s", core.ErrPipelineActive, expected)
	}
	return nil
}

// SetReport records a rendered report artifact without touching status
func (r *ProjectRepositoryImpl) SetReport(ctx context.Context, id core.ProjectID, artifact *project.ReportArtifact) error {
	artifactJSON, err := json.Marshal(artifact)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET report_artifact = $2, updated_at = NOW()
		WHERE project_id = $1
	`, id.String(), artifactJSON)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.NewNotFoundError("project", id.String())
	}
	return nil
}

func (r *ProjectRepositoryImpl) exists(ctx context.Context, id core.ProjectID) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM projects WHERE project_id = $1`, id.String()); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (row projectRow) toDomain() (*project.Project, error) {
	p := &project.Project{
		ID: core.ProjectID(row.ProjectID),
		Drug: project.Drug{
			INNEn:  row.INNEn,
			INNRu:  row.INNRu.String,
			Dosage: row.Dosage,
			Form:   row.Form.String,
		},
		Status:        project.Status(row.Status),
		StatusMessage: row.StatusMessage.String,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}

	if len(row.SearchSummary) > 0 {
		var summary project.SearchSummary
		if err := json.Unmarshal(row.SearchSummary, &summary); err != nil {
			return nil, fmt.Errorf("corrupt search_summary for project %s: %w", row.ProjectID, err)
		}
		p.SearchSummary = &summary
	}
	if len(row.DesignResult) > 0 {
		var result design.Result
		if err := json.Unmarshal(row.DesignResult, &result); err != nil {
			return nil, fmt.Errorf("corrupt design_result for project %s: %w", row.ProjectID, err)
		}
		p.Design = &result
	}
	if len(row.Verdict) > 0 {
		var verdict regulatory.Verdict
		if err := json.Unmarshal(row.Verdict, &verdict); err != nil {
			return nil, fmt.Errorf("corrupt regulatory_verdict for project %s: %w", row.ProjectID, err)
		}
		p.Verdict = &verdict
	}
	if len(row.Report) > 0 {
		var artifact project.ReportArtifact
		if err := json.Unmarshal(row.Report, &artifact); err != nil {
			return nil, fmt.Errorf("corrupt report_artifact for project %s: %w", row.ProjectID, err)
		}
		p.Report = &artifact
	}

	return p, nil
}

// marshalOrNil returns nil for nil pointers so COALESCE keeps the stored value
func marshalOrNil(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case *project.SearchSummary:
		if t == nil {
			return nil, nil
		}
	case *design.Result:
		if t == nil {
			return nil, nil
		}
	case *regulatory.Verdict:
		if t == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
