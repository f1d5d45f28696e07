package repository

import (
	"context"
	"fmt"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository/dao"
)

var (
	ErrCampaignNotFound = dao.ErrCampaignNotFound
	ErrDuplicateReceipt = dao.ErrDuplicateReceipt
)

type CampaignDAO interface {
	Insert(ctx context.Context, campaign dao.Campaign) (dao.Campaign, error)
	FindByID(ctx context.Context, id uint) (dao.Campaign, error)
	FindAll(ctx context.Context) ([]dao.Campaign, error)
	FindByOrganizationID(ctx context.Context, organizationID uint) ([]dao.Campaign, error)
	InsertDonation(ctx context.Context, donation dao.Donation) (dao.Donation, error)
	ListDonations(ctx context.Context, campaignID uint) ([]dao.Donation, error)
}

type CampaignRepository struct {
	dao CampaignDAO
}

func NewCampaignRepository(dao CampaignDAO) *CampaignRepository {
	return &CampaignRepository{
		dao: dao,
	}
}

func (r *CampaignRepository) Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	created, err := r.dao.Insert(ctx, r.campaignDomainToDao(campaign))
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.campaignDaoToDomain(created), nil
}

func (r *CampaignRepository) FindByID(ctx context.Context, id uint) (domain.Campaign, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.campaignDaoToDomain(found), nil
}

func (r *CampaignRepository) FindAll(ctx context.Context) ([]domain.Campaign, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.campaignsDaoToDomain(found), nil
}

func (r *CampaignRepository) FindByOrganizationID(ctx context.Context, organizationID uint) ([]domain.Campaign, error) {
	found, err := r.dao.FindByOrganizationID(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByOrganizationID -> %w", err)
	}

	return r.campaignsDaoToDomain(found), nil
}

func (r *CampaignRepository) CreateDonation(ctx context.Context, donation domain.Donation) (domain.Donation, error) {
	created, err := r.dao.InsertDonation(ctx, r.donationDomainToDao(donation))
	if err != nil {
		return domain.Donation{}, fmt.Errorf("r.dao.InsertDonation -> %w", err)
	}

	return r.donationDaoToDomain(created), nil
}

func (r *CampaignRepository) ListDonations(ctx context.Context, campaignID uint) ([]domain.Donation, error) {
	found, err := r.dao.ListDonations(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListDonations -> %w", err)
	}

	donations := make([]domain.Donation, len(found))
	for i, donation := range found {
		donations[i] = r.donationDaoToDomain(donation)
	}

	return donations, nil
}

func (r *CampaignRepository) campaignDomainToDao(c domain.Campaign) dao.Campaign {
	return dao.Campaign{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Title:          c.Title,
		Description:    c.Description,
		GoalCents:      c.GoalCents,
		RaisedCents:    c.RaisedCents,
		Deadline:       c.Deadline,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *CampaignRepository) campaignDaoToDomain(c dao.Campaign) domain.Campaign {
	return domain.Campaign{
		ID:             c.ID,
		OrganizationID: c.OrganizationID,
		Title:          c.Title,
		Description:    c.Description,
		GoalCents:      c.GoalCents,
		RaisedCents:    c.RaisedCents,
		Deadline:       c.Deadline,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *CampaignRepository) campaignsDaoToDomain(daoCampaigns []dao.Campaign) []domain.Campaign {
	campaigns := make([]domain.Campaign, len(daoCampaigns))
	for i, campaign := range daoCampaigns {
		campaigns[i] = r.campaignDaoToDomain(campaign)
	}
	return campaigns
}

func (r *CampaignRepository) donationDomainToDao(d domain.Donation) dao.Donation {
	return dao.Donation{
		ID:            d.ID,
		CampaignID:    d.CampaignID,
		DonorID:       d.DonorID,
		AmountCents:   d.AmountCents,
		Message:       d.Message,
		ReceiptNumber: d.ReceiptNumber,
		CreatedAt:     d.CreatedAt,
	}
}

func (r *CampaignRepository) donationDaoToDomain(d dao.Donation) domain.Donation {
	return domain.Donation{
		ID:            d.ID,
		CampaignID:    d.CampaignID,
		DonorID:       d.DonorID,
		AmountCents:   d.AmountCents,
		Message:       d.Message,
		ReceiptNumber: d.ReceiptNumber,
		CreatedAt:     d.CreatedAt,
	}
}
