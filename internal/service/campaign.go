package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository"
)

var (
	ErrCampaignNotFound = repository.ErrCampaignNotFound
	ErrNotCampaignOwner = errors.New("campaign belongs to another organization")
	ErrInvalidDonation  = errors.New("donation amount must be positive")
	ErrInvalidCampaign  = errors.New("campaign goal must be positive")
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error)
	FindByID(ctx context.Context, id uint) (domain.Campaign, error)
	FindAll(ctx context.Context) ([]domain.Campaign, error)
	FindByOrganizationID(ctx context.Context, organizationID uint) ([]domain.Campaign, error)
	CreateDonation(ctx context.Context, donation domain.Donation) (domain.Donation, error)
	ListDonations(ctx context.Context, campaignID uint) ([]domain.Donation, error)
}

type CampaignService struct {
	repo     CampaignRepository
	userRepo UserRepository
}

func NewCampaignService(repo CampaignRepository, userRepo UserRepository) *CampaignService {
	return &CampaignService{
		repo:     repo,
		userRepo: userRepo,
	}
}

func (s *CampaignService) GetCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	campaigns, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return campaigns, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id uint) (domain.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			return domain.Campaign{}, ErrCampaignNotFound
		}
		return domain.Campaign{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return campaign, nil
}

func (s *CampaignService) CreateCampaign(ctx context.Context, campaign domain.Campaign, organizationUserID uint) (domain.Campaign, error) {
	if campaign.GoalCents <= 0 {
		return domain.Campaign{}, ErrInvalidCampaign
	}

	// The owning organization profile must exist.
	if _, err := s.userRepo.FindOrganizationByUserID(ctx, organizationUserID); err != nil {
		return domain.Campaign{}, fmt.Errorf("s.userRepo.FindOrganizationByUserID -> %w", err)
	}

	campaign.OrganizationID = organizationUserID
	campaign.RaisedCents = 0

	created, err := s.repo.Create(ctx, campaign)
	if err != nil {
		return domain.Campaign{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

// RecordDonation stores a donation pledge against the campaign and hands
// back a ULID receipt number. No money moves through this service.
func (s *CampaignService) RecordDonation(ctx context.Context, campaignID uint, donor domain.User, amountCents int64, message string) (domain.Donation, error) {
	if amountCents <= 0 {
		return domain.Donation{}, ErrInvalidDonation
	}

	if _, err := s.GetCampaign(ctx, campaignID); err != nil {
		return domain.Donation{}, err
	}

	donation := domain.Donation{
		CampaignID:    campaignID,
		DonorID:       donor.ID,
		AmountCents:   amountCents,
		Message:       message,
		ReceiptNumber: ulid.Make().String(),
		CreatedAt:     time.Now(),
	}

	created, err := s.repo.CreateDonation(ctx, donation)
	if err != nil {
		return domain.Donation{}, fmt.Errorf("s.repo.CreateDonation -> %w", err)
	}

	return created, nil
}

// GetDonations lists a campaign's donations for its owning organization.
func (s *CampaignService) GetDonations(ctx context.Context, campaignID uint, actor domain.User) ([]domain.Donation, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.OrganizationID != actor.ID {
		return nil, ErrNotCampaignOwner
	}

	donations, err := s.repo.ListDonations(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListDonations -> %w", err)
	}

	return donations, nil
}
