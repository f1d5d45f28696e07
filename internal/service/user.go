package service

import (
	"context"
	"fmt"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	CreateDonor(ctx context.Context, donor domain.Donor) (domain.Donor, error)
	CreateOrganization(ctx context.Context, organization domain.Organization) (domain.Organization, error)
	CreateVendor(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
	FindDonorByUserID(ctx context.Context, userID uint) (domain.Donor, error)
	FindOrganizationByUserID(ctx context.Context, userID uint) (domain.Organization, error)
	FindVendorByUserID(ctx context.Context, userID uint) (domain.Vendor, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) GetOrganizationByUserID(ctx context.Context, userID uint) (domain.Organization, error) {
	organization, err := s.repo.FindOrganizationByUserID(ctx, userID)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("s.repo.FindOrganizationByUserID -> %w", err)
	}

	return organization, nil
}

func (s *UserService) GetVendorByUserID(ctx context.Context, userID uint) (domain.Vendor, error) {
	vendor, err := s.repo.FindVendorByUserID(ctx, userID)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("s.repo.FindVendorByUserID -> %w", err)
	}

	return vendor, nil
}

func (s *UserService) GetDonorByUserID(ctx context.Context, userID uint) (domain.Donor, error) {
	donor, err := s.repo.FindDonorByUserID(ctx, userID)
	if err != nil {
		return domain.Donor{}, fmt.Errorf("s.repo.FindDonorByUserID -> %w", err)
	}

	return donor, nil
}
