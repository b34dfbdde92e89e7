package entity

import "time"

// DbRole is a named permission set referenced by users.
type DbRole struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Title       string      `gorm:"column:title;type:varchar(100);uniqueIndex;not null" json:"title"`
	Description string      `gorm:"column:description;type:text" json:"description"`
	Permissions StringArray `gorm:"column:permissions;type:text" json:"permissions"`
	IsActive    bool        `gorm:"column:is_active;not null;default:true" json:"isActive"`
	IsDeleted   bool        `gorm:"column:is_deleted;not null" json:"isDeleted"`
	CreatedBy   *uint       `gorm:"column:created_by" json:"createdBy,omitempty"`
	UpdatedBy   *uint       `gorm:"column:updated_by" json:"updatedBy,omitempty"`
}

// TableName overrides default pluralised name.
func (DbRole) TableName() string {
	return "roles"
}

type RoleCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type RoleUpdateRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
	IsActive    *bool     `json:"isActive,omitempty"`
}

type RoleListResponse struct {
	Roles []DbRole `json:"roles"`
}
