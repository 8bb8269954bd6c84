package ports

import (
	"context"

	"bedesign/domain/core"
	"bedesign/domain/pk"
)

// ParameterRepository defines the interface for extracted PK observations
type ParameterRepository interface {
	// SaveBatch persists a set of validated observations for a project
	SaveBatch(ctx context.Context, params []pk.DrugParameter) error

	// ListByProject returns all observations stored for a project
	ListByProject(ctx context.Context, projectID core.ProjectID) ([]pk.DrugParameter, error)
}
