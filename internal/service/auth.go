package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrWrongPassword   = errors.New("wrong password")
)

type AuthUserRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	CreateDonor(ctx context.Context, donor domain.Donor) (domain.Donor, error)
	CreateOrganization(ctx context.Context, organization domain.Organization) (domain.Organization, error)
	CreateVendor(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
}

type AuthService struct {
	repo AuthUserRepository
}

func NewAuthService(repo AuthUserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

func (s *AuthService) SignupDonor(ctx context.Context, donor domain.Donor) (domain.User, error) {
	if err := s.checkEmailExists(ctx, donor.User.Email); err != nil {
		return domain.User{}, err
	}

	hashedPassword, err := hashPassword(donor.User.Password)
	if err != nil {
		return domain.User{}, err
	}
	donor.User.Password = hashedPassword

	created, err := s.repo.CreateDonor(ctx, donor)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.CreateDonor -> %w", err)
	}

	return created.User, nil
}

func (s *AuthService) SignupOrganization(ctx context.Context, organization domain.Organization) (domain.User, error) {
	if err := s.checkEmailExists(ctx, organization.User.Email); err != nil {
		return domain.User{}, err
	}

	hashedPassword, err := hashPassword(organization.User.Password)
	if err != nil {
		return domain.User{}, err
	}
	organization.User.Password = hashedPassword

	created, err := s.repo.CreateOrganization(ctx, organization)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.CreateOrganization -> %w", err)
	}

	return created.User, nil
}

func (s *AuthService) SignupVendor(ctx context.Context, vendor domain.Vendor) (domain.User, error) {
	if err := s.checkEmailExists(ctx, vendor.User.Email); err != nil {
		return domain.User{}, err
	}

	hashedPassword, err := hashPassword(vendor.User.Password)
	if err != nil {
		return domain.User{}, err
	}
	vendor.User.Password = hashedPassword

	created, err := s.repo.CreateVendor(ctx, vendor)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.CreateVendor -> %w", err)
	}

	return created.User, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) checkEmailExists(ctx context.Context, email string) error {
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return ErrUserEmailExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	return nil
}
