package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tradeboard/pointhub/internal/model"
)

type ViewRecordRepository interface {
	// Create fails with ErrDuplicate when the viewer already has a record for
	// the listing.
	Create(ctx context.Context, record *model.ViewRecord) error
	Get(ctx context.Context, viewerID, listingID uuid.UUID) (*model.ViewRecord, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
