package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrDuplicateReceipt = errors.New("donation with this receipt number already exists")
)

type Campaign struct {
	ID             uint   `gorm:"primaryKey"`
	OrganizationID uint   `gorm:"not null;index"`
	Title          string `gorm:"not null"`
	Description    string
	GoalCents      int64 `gorm:"not null"`
	RaisedCents    int64 `gorm:"default:0"`
	Deadline       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Donation struct {
	ID            uint  `gorm:"primaryKey"`
	CampaignID    uint  `gorm:"not null;index"`
	DonorID       uint  `gorm:"not null"`
	AmountCents   int64 `gorm:"not null"`
	Message       string
	ReceiptNumber string `gorm:"uniqueIndex:idx_donations_receipt_number;not null"`
	CreatedAt     time.Time
}

type CampaignDAO struct {
	db *gorm.DB
}

func NewCampaignDAO(db *gorm.DB) *CampaignDAO {
	return &CampaignDAO{
		db: db,
	}
}

func (d *CampaignDAO) Insert(ctx context.Context, campaign Campaign) (Campaign, error) {
	result := d.db.WithContext(ctx).Create(&campaign)
	if result.Error != nil {
		return Campaign{}, result.Error
	}

	return campaign, nil
}

func (d *CampaignDAO) FindByID(ctx context.Context, id uint) (Campaign, error) {
	var campaign Campaign

	result := d.db.WithContext(ctx).First(&campaign, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Campaign{}, ErrCampaignNotFound
		}

		return Campaign{}, result.Error
	}

	return campaign, nil
}

func (d *CampaignDAO) FindAll(ctx context.Context) ([]Campaign, error) {
	var campaigns []Campaign

	result := d.db.WithContext(ctx).Order("created_at DESC").Find(&campaigns)
	if result.Error != nil {
		return nil, result.Error
	}

	return campaigns, nil
}

func (d *CampaignDAO) FindByOrganizationID(ctx context.Context, organizationID uint) ([]Campaign, error) {
	var campaigns []Campaign

	result := d.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&campaigns)
	if result.Error != nil {
		return nil, result.Error
	}

	return campaigns, nil
}

// InsertDonation stores the donation and bumps the campaign's raised total
// in one transaction, so the two can never drift apart.
func (d *CampaignDAO) InsertDonation(ctx context.Context, donation Donation) (Donation, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign Campaign
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&campaign, donation.CampaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCampaignNotFound
			}
			return err
		}

		if err := tx.Create(&donation).Error; err != nil {
			if isUniqueViolation(err, "idx_donations_receipt_number") {
				return ErrDuplicateReceipt
			}
			return err
		}

		return tx.Model(&campaign).
			Update("raised_cents", gorm.Expr("raised_cents + ?", donation.AmountCents)).Error
	})
	if err != nil {
		return Donation{}, err
	}

	return donation, nil
}

func (d *CampaignDAO) ListDonations(ctx context.Context, campaignID uint) ([]Donation, error) {
	var donations []Donation

	result := d.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&donations)
	if result.Error != nil {
		return nil, result.Error
	}

	return donations, nil
}
