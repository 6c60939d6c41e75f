package interfaces

import (
	"context"

	"github.com/ternarybob/geolex/internal/models"
)

// Scanner produces evidence packs for the features found under a repository
// path. Implementations wrap external collectors; the pipeline only depends
// on this interface and memoizes results per resolved path.
type Scanner interface {
	// Scan collects evidence for every feature under repoPath.
	Scan(ctx context.Context, repoPath string) ([]*models.EvidencePack, error)
}
