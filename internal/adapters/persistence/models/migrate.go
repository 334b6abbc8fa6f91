package models

import (
	"gorm.io/gorm"
)

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&User{},
		&RefreshToken{},
		// Master data
		&Store{},
		&Route{},
		&RouteStore{},
		&StoredFile{},
		// Operations
		&WorkSession{},
		&BreakRecord{},
		&StoreVisit{},
		&VisitImage{},
		&FlaggedStore{},
		// Finance
		&UserPoints{},
		&PointsTransaction{},
		&Penalty{},
		// Leaves & notifications
		&LeaveRequest{},
		&Notification{},
	)
}
