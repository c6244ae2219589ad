package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradeboard/pointhub/internal/model"
	"tradeboard/pointhub/internal/repository"
)

const (
	maxTitleLength    = 256
	maxKeywordsLength = 512
)

type ListingOptions struct {
	DefaultViewLimit int
	MaxViewLimit     int
	Lifetime         time.Duration
	StaleAge         time.Duration
	SweepBatchSize   int
}

type PublishInput struct {
	OwnerID   uuid.UUID
	Title     string
	Keywords  string
	Price     decimal.Decimal
	ExtraInfo string
	ViewLimit int
}

type SweptListing struct {
	ListingID uuid.UUID `json:"listing_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Refund    int64     `json:"refund"`
}

type SweepResult struct {
	Count   int            `json:"count"`
	Results []SweptListing `json:"results"`
}

type ListingService interface {
	Publish(ctx context.Context, in PublishInput) (*model.Listing, error)
	// Withdraw retires the owner's active listing and refunds its unused quota.
	Withdraw(ctx context.Context, ownerID, listingID uuid.UUID) (int64, error)
	// SweepExpired retires active listings whose expire_at has passed.
	SweepExpired(ctx context.Context, now time.Time) (*SweepResult, error)
	// SweepStale retires active listings created more than StaleAge before now,
	// whatever their expire_at says.
	SweepStale(ctx context.Context, now time.Time) (*SweepResult, error)
}

type listingService struct {
	store  repository.Store
	ledger LedgerService
	opts   ListingOptions
	logger *zap.Logger
}

func NewListingService(store repository.Store, ledger LedgerService, opts ListingOptions, logger *zap.Logger) ListingService {
	if opts.DefaultViewLimit <= 0 {
		opts.DefaultViewLimit = 10
	}
	if opts.MaxViewLimit <= 0 {
		opts.MaxViewLimit = 1000
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = 72 * time.Hour
	}
	if opts.StaleAge <= 0 {
		opts.StaleAge = 72 * time.Hour
	}
	if opts.SweepBatchSize <= 0 {
		opts.SweepBatchSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &listingService{
		store:  store,
		ledger: ledger,
		opts:   opts,
		logger: logger,
	}
}

func (s *listingService) Publish(ctx context.Context, in PublishInput) (*model.Listing, error) {
	// 1. Validate input
	title := strings.TrimSpace(in.Title)
	if in.OwnerID == uuid.Nil {
		return nil, validationError("owner_id is required")
	}
	if title == "" {
		return nil, validationError("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, validationError("title must be at most %d characters", maxTitleLength)
	}
	keywords := strings.TrimSpace(in.Keywords)
	if utf8.RuneCountInString(keywords) > maxKeywordsLength {
		return nil, validationError("keywords must be at most %d characters", maxKeywordsLength)
	}
	if in.Price.IsNegative() {
		return nil, validationError("price must not be negative")
	}
	viewLimit := in.ViewLimit
	if viewLimit == 0 {
		viewLimit = s.opts.DefaultViewLimit
	}
	if viewLimit < 1 || viewLimit > s.opts.MaxViewLimit {
		return nil, validationError("view_limit must be between 1 and %d", s.opts.MaxViewLimit)
	}

	now := time.Now()
	listing := &model.Listing{
		ID:        uuid.New(),
		OwnerID:   in.OwnerID,
		Title:     title,
		Keywords:  keywords,
		Price:     in.Price,
		ExtraInfo: in.ExtraInfo,
		ViewLimit: viewLimit,
		Status:    model.ListingStatusActive,
		ExpireAt:  now.Add(s.opts.Lifetime),
	}

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		// 2. Pay for the quota up front
		if _, err := s.ledger.ApplyTx(ctx, tx, in.OwnerID, Change{
			Amount:      -int64(viewLimit),
			Kind:        model.ChangeKindSpendPublish,
			RelatedID:   &listing.ID,
			Description: "publish listing: " + title,
		}); err != nil {
			return err
		}

		// 3. Create listing
		if err := tx.Listings().Create(ctx, listing); err != nil {
			return storageError("create listing", err)
		}

		// 4. Owner statistics
		if err := tx.Users().IncrementTotalListings(ctx, in.OwnerID); err != nil {
			return storageError("increment total listings", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("publish listing", err)
	}
	return listing, nil
}

func (s *listingService) Withdraw(ctx context.Context, ownerID, listingID uuid.UUID) (int64, error) {
	var refund int64
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		listing, err := tx.Listings().GetByIDForUpdate(ctx, listingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return storageError("load listing", err)
		}
		if listing.OwnerID != ownerID {
			return ErrListingNotFound
		}
		if !listing.IsActive() {
			return ErrListingWithdrawn
		}

		var retired bool
		refund, retired, err = s.retireTx(ctx, tx, listing.ID, time.Now())
		if err != nil {
			return err
		}
		if !retired {
			return ErrListingWithdrawn
		}
		return nil
	})
	if err != nil {
		return 0, storageError("withdraw listing", err)
	}
	return refund, nil
}

func (s *listingService) SweepExpired(ctx context.Context, now time.Time) (*SweepResult, error) {
	return s.sweep(ctx, "expired", now,
		func(after *repository.SweepCursor, limit int) ([]model.Listing, error) {
			return s.store.Listings().ListActiveExpiredBefore(ctx, now, after, limit)
		},
		func(l model.Listing) time.Time { return l.ExpireAt },
	)
}

func (s *listingService) SweepStale(ctx context.Context, now time.Time) (*SweepResult, error) {
	cutoff := now.Add(-s.opts.StaleAge)
	return s.sweep(ctx, "stale", now,
		func(after *repository.SweepCursor, limit int) ([]model.Listing, error) {
			return s.store.Listings().ListActiveCreatedBefore(ctx, cutoff, after, limit)
		},
		func(l model.Listing) time.Time { return l.CreatedAt },
	)
}

type sweepPage func(after *repository.SweepCursor, limit int) ([]model.Listing, error)

// sweep walks the eligible listings once in key order. Listings that fail
// stay active and are left behind the cursor until the next run.
func (s *listingService) sweep(ctx context.Context, kind string, now time.Time, next sweepPage, key func(model.Listing) time.Time) (*SweepResult, error) {
	result := &SweepResult{Results: []SweptListing{}}

	var cursor *repository.SweepCursor
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep %s listings: %w", kind, err)
		}

		batch, err := next(cursor, s.opts.SweepBatchSize)
		if err != nil {
			return nil, storageError("select listings to sweep", err)
		}

		for _, listing := range batch {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("sweep %s listings: %w", kind, err)
			}

			refund, retired, err := s.retire(ctx, listing.ID, now)
			if err != nil {
				s.logger.Error("sweep listing failed",
					zap.String("sweep", kind),
					zap.String("listing_id", listing.ID.String()),
					zap.Error(err),
				)
				continue
			}
			if !retired {
				continue
			}

			result.Count++
			result.Results = append(result.Results, SweptListing{
				ListingID: listing.ID,
				Title:     listing.Title,
				CreatedAt: listing.CreatedAt,
				Refund:    refund,
			})
		}

		if len(batch) < s.opts.SweepBatchSize {
			break
		}
		last := batch[len(batch)-1]
		cursor = &repository.SweepCursor{At: key(last), ID: last.ID}
	}

	return result, nil
}

// retire flips one listing to withdrawn and refunds its unused quota in one
// transaction. retired is false when another caller got there first.
func (s *listingService) retire(ctx context.Context, listingID uuid.UUID, now time.Time) (refund int64, retired bool, err error) {
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		var txErr error
		refund, retired, txErr = s.retireTx(ctx, tx, listingID, now)
		return txErr
	})
	return refund, retired, err
}

func (s *listingService) retireTx(ctx context.Context, tx repository.Store, listingID uuid.UUID, now time.Time) (int64, bool, error) {
	// 1. Conditional flip; once withdrawn no more views can be taken
	if err := tx.Listings().MarkWithdrawn(ctx, listingID, now); err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return 0, false, nil
		}
		return 0, false, storageError("mark listing withdrawn", err)
	}

	// 2. Re-read the final view count inside the tx
	listing, err := tx.Listings().GetByID(ctx, listingID)
	if err != nil {
		return 0, false, storageError("reload listing", err)
	}

	// 3. Refund unused quota
	unused := int64(listing.Remaining())
	if unused > 0 {
		if _, err := s.ledger.ApplyTx(ctx, tx, listing.OwnerID, Change{
			Amount:      unused,
			Kind:        model.ChangeKindRefund,
			RelatedID:   &listing.ID,
			Description: fmt.Sprintf("refund %d unused views: %s", unused, listing.Title),
		}); err != nil {
			return 0, false, err
		}
	}
	return unused, true, nil
}

var _ ListingService = (*listingService)(nil)
