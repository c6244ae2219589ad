package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
)

const (
	msgAlreadyViewed = "contact already viewed"
	msgRevealed      = "contact revealed"
)

// errConcurrentFirstView means another request created the same view record
// first; the reveal is retried once and then takes the free path.
var errConcurrentFirstView = errors.New("concurrent first view")

type RevealResult struct {
	Contact       string `json:"contact"`
	AlreadyViewed bool   `json:"already_viewed"`
	Message       string `json:"message"`
}

type ListingDetail struct {
	ListingID uuid.UUID           `json:"listing_id"`
	Title     string              `json:"title"`
	ViewCount int                 `json:"view_count"`
	ViewLimit int                 `json:"view_limit"`
	Remaining int                 `json:"remaining"`
	Status    model.ListingStatus `json:"status"`
	ExpireAt  time.Time           `json:"expire_at"`
}

type ViewGateOptions struct {
	ViewCost                    int64
	KeepDebitOnLateQuotaFailure bool
}

type ViewGateService interface {
	Reveal(ctx context.Context, viewerID, listingID uuid.UUID) (*RevealResult, error)
	Detail(ctx context.Context, listingID uuid.UUID) (*ListingDetail, error)
}

type viewGateService struct {
	store  repository.Store
	ledger LedgerService
	opts   ViewGateOptions
}

func NewViewGateService(store repository.Store, ledger LedgerService, opts ViewGateOptions) ViewGateService {
	if opts.ViewCost <= 0 {
		opts.ViewCost = 1
	}
	return &viewGateService{
		store:  store,
		ledger: ledger,
		opts:   opts,
	}
}

func (s *viewGateService) Reveal(ctx context.Context, viewerID, listingID uuid.UUID) (*RevealResult, error) {
	if viewerID == uuid.Nil || listingID == uuid.Nil {
		return nil, validationError("viewer_id and listing_id are required")
	}

	result, err := s.reveal(ctx, viewerID, listingID)
	if errors.Is(err, errConcurrentFirstView) {
		result, err = s.reveal(ctx, viewerID, listingID)
	}
	if err != nil {
		return nil, storageError("reveal contact", err)
	}
	return result, nil
}

func (s *viewGateService) reveal(ctx context.Context, viewerID, listingID uuid.UUID) (*RevealResult, error) {
	var (
		result    *RevealResult
		lateQuota bool
	)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		// 1. Load and lock the listing
		listing, err := tx.Listings().GetByIDForUpdate(ctx, listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return storageError("load listing", err)
		}
		if !listing.IsActive() {
			return ErrListingWithdrawn
		}

		// 2. Exhausted listings deny everyone, including earlier viewers
		if listing.ViewCount >= listing.ViewLimit {
			return ErrQuotaExhausted
		}

		owner, err := tx.Users().GetByID(ctx, listing.OwnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return storageError("load listing owner", err)
		}

		// 3. Already paid once: free
		record, err := tx.ViewRecords().Get(ctx, viewerID, listingID)
		if err == nil {
			if err := tx.ViewRecords().Touch(ctx, record.ID, time.Now()); err != nil {
				return storageError("refresh view record", err)
			}
			result = &RevealResult{Contact: owner.Contact, AlreadyViewed: true, Message: msgAlreadyViewed}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storageError("load view record", err)
		}

		// 4. Debit the viewer
		if _, err := s.ledger.ApplyTx(ctx, tx, viewerID, Change{
			Amount:      -s.opts.ViewCost,
			Kind:        model.ChangeKindSpendView,
			RelatedID:   &listing.ID,
			Description: "view contact: " + listing.Title,
		}); err != nil {
			return err
		}

		// 5. Take one unit of quota, conditioned on the limit at commit time
		if err := tx.Listings().IncrementViewCount(ctx, listingID); err != nil {
			if !errors.Is(err, repository.ErrConditionNotMet) {
				return storageError("increment view count", err)
			}
			if s.opts.KeepDebitOnLateQuotaFailure {
				lateQuota = true
				return nil
			}
			return ErrQuotaExhausted
		}

		// 6. Remember the payment
		now := time.Now()
		if err := tx.ViewRecords().Create(ctx, &model.ViewRecord{
			ViewerID:  viewerID,
			ListingID: listingID,
			ViewedAt:  now,
		}); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errConcurrentFirstView
			}
			return storageError("create view record", err)
		}

		result = &RevealResult{Contact: owner.Contact, Message: msgRevealed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lateQuota {
		return nil, ErrQuotaExhausted
	}
	return result, nil
}

func (s *viewGateService) Detail(ctx context.Context, listingID uuid.UUID) (*ListingDetail, error) {
	listing, err := s.store.Listings().GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, storageError("load listing", err)
	}
	return &ListingDetail{
		ListingID: listing.ID,
		Title:     listing.Title,
		ViewCount: listing.ViewCount,
		ViewLimit: listing.ViewLimit,
		Remaining: listing.Remaining(),
		Status:    listing.Status,
		ExpireAt:  listing.ExpireAt,
	}, nil
}

var _ ViewGateService = (*viewGateService)(nil)
