package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	Name string `gorm:"not null"`
	Role string `gorm:"not null"` // "donor", "organization", or "vendor"

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Donor struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"uniqueIndex;not null"`
	User   User `gorm:"foreignKey:UserID"`
}

type Organization struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"uniqueIndex;not null"`
	User        User `gorm:"foreignKey:UserID"`
	Description string
	Website     string
}

type Vendor struct {
	ID      uint `gorm:"primaryKey"`
	UserID  uint `gorm:"uniqueIndex;not null"`
	User    User `gorm:"foreignKey:UserID"`
	Company string
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "uni_users_email") {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) InsertDonor(ctx context.Context, user User, donor Donor) (Donor, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err, "uni_users_email") {
				return ErrUserEmailExists
			}
			return err
		}

		donor.UserID = user.ID
		return tx.Create(&donor).Error
	})
	if err != nil {
		return Donor{}, err
	}

	donor.User = user
	return donor, nil
}

func (d *UserDAO) InsertOrganization(ctx context.Context, user User, organization Organization) (Organization, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err, "uni_users_email") {
				return ErrUserEmailExists
			}
			return err
		}

		organization.UserID = user.ID
		return tx.Create(&organization).Error
	})
	if err != nil {
		return Organization{}, err
	}

	organization.User = user
	return organization, nil
}

func (d *UserDAO) InsertVendor(ctx context.Context, user User, vendor Vendor) (Vendor, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err, "uni_users_email") {
				return ErrUserEmailExists
			}
			return err
		}

		vendor.UserID = user.ID
		return tx.Create(&vendor).Error
	})
	if err != nil {
		return Vendor{}, err
	}

	vendor.User = user
	return vendor, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindDonorByUserID(ctx context.Context, userID uint) (Donor, error) {
	var donor Donor

	result := d.db.WithContext(ctx).Preload("User").First(&donor, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Donor{}, ErrUserNotFound
		}

		return Donor{}, result.Error
	}

	return donor, nil
}

func (d *UserDAO) FindOrganizationByUserID(ctx context.Context, userID uint) (Organization, error) {
	var organization Organization

	result := d.db.WithContext(ctx).Preload("User").First(&organization, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Organization{}, ErrUserNotFound
		}

		return Organization{}, result.Error
	}

	return organization, nil
}

func (d *UserDAO) FindVendorByUserID(ctx context.Context, userID uint) (Vendor, error) {
	var vendor Vendor

	result := d.db.WithContext(ctx).Preload("User").First(&vendor, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Vendor{}, ErrUserNotFound
		}

		return Vendor{}, result.Error
	}

	return vendor, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		strings.Contains(pgErr.Message, constraint)
}
