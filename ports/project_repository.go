package ports

import (
	"context"

	"bedesign/domain/core"
	"bedesign/domain/project"
)

// ProjectRepository defines the interface for project persistence.
// CommitStage is the only way status advances: it must apply the commit
// atomically and only when the stored status still matches expected, so
// concurrent runs cannot interleave writes to the same project.
type ProjectRepository interface {
	// Create persists a new project in its initial state
	Create(ctx context.Context, p *project.Project) error

	// GetByID retrieves a project with all populated stage results
	GetByID(ctx context.Context, id core.ProjectID) (*project.Project, error)

	// CommitStage atomically writes a stage's results together with the
	// status transition, guarded by the expected current status. Returns
	// core.ErrInvalidTransition when the move is not in the transition
	// table and core.ErrPipelineActive when the guard does not match.
	CommitStage(ctx context.Context, id core.ProjectID, expected project.Status, commit project.StageCommit) error

	// SetReport records a rendered report artifact without touching status
	SetReport(ctx context.Context, id core.ProjectID, artifact *project.ReportArtifact) error
}
