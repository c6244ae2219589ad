package service

import (
	"testing"

	"gorm.io/gorm"

	"tradeboard/pointhub/internal/repository"
	"tradeboard/pointhub/internal/testutil"
)

type fixture struct {
	db     *gorm.DB
	store  repository.Store
	ledger LedgerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewPGStore(db)
	return &fixture{
		db:     db,
		store:  store,
		ledger: NewLedgerService(store),
	}
}

