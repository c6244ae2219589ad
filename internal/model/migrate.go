package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates the guards
// that cannot be expressed as struct tags.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Listing{},
		&ViewRecord{},
		&LedgerEntry{},
		&Invitation{},
		&RechargeRequest{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// Quota bound enforced by the database as well as by the conditional increment.
	if err := db.Exec(
		"DO $$ BEGIN " +
			"ALTER TABLE listings ADD CONSTRAINT chk_listings_view_quota " +
			"CHECK (view_count >= 0 AND view_count <= view_limit); " +
			"EXCEPTION WHEN duplicate_object THEN NULL; END $$",
	).Error; err != nil {
		return err
	}

	return db.Exec(
		"DO $$ BEGIN " +
			"ALTER TABLE users ADD CONSTRAINT chk_users_points_non_negative CHECK (points >= 0); " +
			"EXCEPTION WHEN duplicate_object THEN NULL; END $$",
	).Error
}
