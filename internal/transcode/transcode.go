package transcode

import (
	"context"

	"webmill/internal/media"
)

// Transcoder converts one source file into its planned output location.
// Implementations leave no partial output behind: the destination either
// keeps its previous state or holds a complete converted file.
type Transcoder interface {
	Transcode(ctx context.Context, task media.Task) error
}
