package repository

import (
	"context"
	"fmt"

	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	InsertDonor(ctx context.Context, user dao.User, donor dao.Donor) (dao.Donor, error)
	InsertOrganization(ctx context.Context, user dao.User, organization dao.Organization) (dao.Organization, error)
	InsertVendor(ctx context.Context, user dao.User, vendor dao.Vendor) (dao.Vendor, error)
	FindDonorByUserID(ctx context.Context, userID uint) (dao.Donor, error)
	FindOrganizationByUserID(ctx context.Context, userID uint) (dao.Organization, error)
	FindVendorByUserID(ctx context.Context, userID uint) (dao.Vendor, error)
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) CreateDonor(ctx context.Context, donor domain.Donor) (domain.Donor, error) {
	daoUser := dao.User{
		Email:    donor.User.Email,
		Password: donor.User.Password,
		Name:     donor.User.Name,
		Role:     domain.RoleDonor,
	}

	created, err := r.dao.InsertDonor(ctx, daoUser, dao.Donor{})
	if err != nil {
		return domain.Donor{}, fmt.Errorf("r.dao.InsertDonor -> %w", err)
	}

	return r.donorDaoToDomain(created), nil
}

func (r *UserRepository) CreateOrganization(ctx context.Context, organization domain.Organization) (domain.Organization, error) {
	daoUser := dao.User{
		Email:    organization.User.Email,
		Password: organization.User.Password,
		Name:     organization.User.Name,
		Role:     domain.RoleOrganization,
	}

	daoOrganization := dao.Organization{
		Description: organization.Description,
		Website:     organization.Website,
	}

	created, err := r.dao.InsertOrganization(ctx, daoUser, daoOrganization)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("r.dao.InsertOrganization -> %w", err)
	}

	return r.organizationDaoToDomain(created), nil
}

func (r *UserRepository) CreateVendor(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error) {
	daoUser := dao.User{
		Email:    vendor.User.Email,
		Password: vendor.User.Password,
		Name:     vendor.User.Name,
		Role:     domain.RoleVendor,
	}

	daoVendor := dao.Vendor{
		Company: vendor.Company,
	}

	created, err := r.dao.InsertVendor(ctx, daoUser, daoVendor)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("r.dao.InsertVendor -> %w", err)
	}

	return r.vendorDaoToDomain(created), nil
}

func (r *UserRepository) FindDonorByUserID(ctx context.Context, userID uint) (domain.Donor, error) {
	found, err := r.dao.FindDonorByUserID(ctx, userID)
	if err != nil {
		return domain.Donor{}, fmt.Errorf("r.dao.FindDonorByUserID -> %w", err)
	}

	return r.donorDaoToDomain(found), nil
}

func (r *UserRepository) FindOrganizationByUserID(ctx context.Context, userID uint) (domain.Organization, error) {
	found, err := r.dao.FindOrganizationByUserID(ctx, userID)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("r.dao.FindOrganizationByUserID -> %w", err)
	}

	return r.organizationDaoToDomain(found), nil
}

func (r *UserRepository) FindVendorByUserID(ctx context.Context, userID uint) (domain.Vendor, error) {
	found, err := r.dao.FindVendorByUserID(ctx, userID)
	if err != nil {
		return domain.Vendor{}, fmt.Errorf("r.dao.FindVendorByUserID -> %w", err)
	}

	return r.vendorDaoToDomain(found), nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UserRepository) donorDaoToDomain(d dao.Donor) domain.Donor {
	return domain.Donor{
		User:   r.daoToDomain(d.User),
		UserID: d.UserID,
	}
}

func (r *UserRepository) organizationDaoToDomain(o dao.Organization) domain.Organization {
	return domain.Organization{
		User:        r.daoToDomain(o.User),
		UserID:      o.UserID,
		Description: o.Description,
		Website:     o.Website,
	}
}

func (r *UserRepository) vendorDaoToDomain(v dao.Vendor) domain.Vendor {
	return domain.Vendor{
		User:    r.daoToDomain(v.User),
		UserID:  v.UserID,
		Company: v.Company,
	}
}
