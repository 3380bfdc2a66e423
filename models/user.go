package models

import "time"

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleStaff    UserRole = "staff"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone     string    `json:"phone"`
	Role      UserRole  `json:"role" gorm:"not null;default:'customer'"`
	BranchID  *uint     `json:"branch_id"` // nil = company-wide staff
	Branch    *Branch   `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompanyWide reports whether a staff member receives events for every branch.
func (u *User) CompanyWide() bool {
	return u.BranchID == nil
}
