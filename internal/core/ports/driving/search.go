package driving

import (
	"context"

	"github.com/custodia-labs/coursemate/internal/core/domain"
)

// SearchService provides direct content search to external actors.
type SearchService interface {
	// Search runs a similarity search over course content. Data-level failures
	// (unknown course, backend error) are reported in SearchResults.Error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) domain.SearchResults
}
