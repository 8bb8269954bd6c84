package ports

import "context"

// Article is one bibliographic record returned by the search collaborator
type Article struct {
	PMID     string `json:"pmid"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// LiteratureSearchPort abstracts the bibliographic database. An empty
// result is a valid outcome; transport failures surface as errors and map
// to the search stage's failure state.
type LiteratureSearchPort interface {
	// Search returns article identifiers for a drug's PK literature
	Search(ctx context.Context, inn string, maxResults int) ([]string, error)

	// FetchAbstracts resolves identifiers to titles and abstract text
	FetchAbstracts(ctx context.Context, pmids []string) ([]Article, error)
}
