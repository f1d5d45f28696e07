package domain

import "time"

const (
	RoleDonor        = "donor"
	RoleOrganization = "organization"
	RoleVendor       = "vendor"
)

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Donor struct {
	User
	UserID uint `json:"user_id"`
}

type Organization struct {
	User
	UserID      uint   `json:"user_id"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

type Vendor struct {
	User
	UserID  uint   `json:"user_id"`
	Company string `json:"company"`
}
