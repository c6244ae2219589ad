package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so a service can run several of them inside
// one database transaction.
type Store interface {
	Users() UserRepository
	Listings() ListingRepository
	ViewRecords() ViewRecordRepository
	Ledger() LedgerRepository
	Invitations() InvitationRepository
	Recharges() RechargeRepository

	// WithTx runs fn with a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type pgStore struct {
	db *gorm.DB
}

func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Users() UserRepository { return NewPGUserRepository(s.db) }
func (s *pgStore) Listings() ListingRepository { return NewPGListingRepository(s.db) }
func (s *pgStore) ViewRecords() ViewRecordRepository { return NewPGViewRecordRepository(s.db) }
func (s *pgStore) Ledger() LedgerRepository { return NewPGLedgerRepository(s.db) }
func (s *pgStore) Invitations() InvitationRepository { return NewPGInvitationRepository(s.db) }
func (s *pgStore) Recharges() RechargeRepository { return NewPGRechargeRepository(s.db) }

func (s *pgStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}
