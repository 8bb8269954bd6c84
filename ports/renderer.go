package ports

import (
	"context"

	"bedesign/domain/project"
)

// ReportRendererPort abstracts report rendering. Invoked only for
// completed projects; a rendering failure is reported to the caller but
// never alters project status.
type ReportRendererPort interface {
	Render(ctx context.Context, p *project.Project) (*project.ReportArtifact, error)
}
