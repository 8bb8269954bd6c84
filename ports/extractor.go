package ports

import "context"

// ExtractedParameter is one PK value a model pulled out of free text.
// Names are raw and unit-bearing; canonicalization and plausibility
// checks happen in the domain layer before anything is stored.
type ExtractedParameter struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ParameterExtractorPort abstracts the language-model extraction
// collaborator. Returning no parameters is a valid outcome.
type ParameterExtractorPort interface {
	Extract(ctx context.Context, abstract string, inn string) ([]ExtractedParameter, error)
}
