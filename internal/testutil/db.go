// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradeboard/pointhub/internal/model"
)

// NewDB opens a private in-memory sqlite database and migrates it. The pool
// is held to one connection so the database lives as long as the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// CreateUser inserts a user holding points, backed by a matching recharge
// entry so the ledger stays balanced.
func CreateUser(t testing.TB, db *gorm.DB, inviteCode string, points int64) *model.User {
	t.Helper()

	user := &model.User{
		Contact:    "wx-" + inviteCode,
		InviteCode: inviteCode,
		Points:     points,
	}
	require.NoError(t, db.Create(user).Error)

	if points != 0 {
		require.NoError(t, db.Create(&model.LedgerEntry{
			UserID:       user.ID,
			ChangeAmount: points,
			ChangeKind:   model.ChangeKindRecharge,
			BalanceAfter: points,
			Description:  "seed",
		}).Error)
	}
	return user
}

type ListingOption func(*model.Listing)

func WithViews(limit, count int) ListingOption {
	return func(l *model.Listing) {
		l.ViewLimit = limit
		l.ViewCount = count
	}
}

func WithCreatedAt(at time.Time) ListingOption {
	return func(l *model.Listing) { l.CreatedAt = at }
}

func WithExpireAt(at time.Time) ListingOption {
	return func(l *model.Listing) { l.ExpireAt = at }
}

func Withdrawn() ListingOption {
	return func(l *model.Listing) { l.Status = model.ListingStatusWithdrawn }
}

// CreateListing inserts an active listing with a 5-view quota expiring in a day
// unless options say otherwise.
func CreateListing(t testing.TB, db *gorm.DB, ownerID uuid.UUID, opts ...ListingOption) *model.Listing {
	t.Helper()

	listing := &model.Listing{
		OwnerID:   ownerID,
		Title:     "second-hand bike",
		ViewLimit: 5,
		Status:    model.ListingStatusActive,
		ExpireAt:  time.Now().Add(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(listing)
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func ReloadUser(t testing.TB, db *gorm.DB, id uuid.UUID) *model.User {
	t.Helper()
	var user model.User
	require.NoError(t, db.First(&user, "id = ?", id).Error)
	return &user
}

func ReloadListing(t testing.TB, db *gorm.DB, id uuid.UUID) *model.Listing {
	t.Helper()
	var listing model.Listing
	require.NoError(t, db.First(&listing, "id = ?", id).Error)
	return &listing
}

func LedgerEntries(t testing.TB, db *gorm.DB, userID uuid.UUID) []model.LedgerEntry {
	t.Helper()
	var entries []model.LedgerEntry
	require.NoError(t, db.Where("user_id = ?", userID).Order("created_at ASC").Find(&entries).Error)
	return entries
}

func Count(t testing.TB, db *gorm.DB, m interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
