package directory

import (
	"branch-order-api/models"

	"gorm.io/gorm"
)

// Directory answers staff lookups against the user store.
type Directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// NotifyTargets computes the audience for a branch event: every staff
// member assigned to the branch plus every staff member with no branch
// assignment (company-wide staff receive every event).
func (d *Directory) NotifyTargets(branchID uint) ([]uint, error) {
	var staff []models.User
	err := d.db.
		Where("role IN ?", []models.UserRole{models.RoleStaff, models.RoleAdmin}).
		Where("branch_id = ? OR branch_id IS NULL", branchID).
		Find(&staff).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(staff))
	for _, u := range staff {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// Profile loads a user by id.
func (d *Directory) Profile(userID uint) (*models.User, error) {
	var user models.User
	if err := d.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
