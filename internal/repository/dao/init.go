package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Donor{},
		&Organization{},
		&Vendor{},
		&Campaign{},
		&Donation{},
		&Chat{},
		&Message{},
		&TransactionProposal{},
		&ProposalItem{},
	)
}
