package entity

import "time"

const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBanned   = "banned"
)

// DbUser represents a persisted account together with its verification state.
type DbUser struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	Fullname         string     `gorm:"column:fullname;type:varchar(255);not null" json:"fullname"`
	Username         string     `gorm:"column:username;type:varchar(100);uniqueIndex;not null" json:"username"`
	Email            string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"column:password_hash;type:varchar(512);not null" json:"-"`
	Phone            string     `gorm:"column:phone;type:varchar(50)" json:"phone"`
	Address          string     `gorm:"column:address;type:varchar(512)" json:"address"`
	Avatar           string     `gorm:"column:avatar;type:varchar(1024)" json:"avatar"`
	Slug             string     `gorm:"column:slug;type:varchar(255);uniqueIndex;not null" json:"slug"`
	// RefreshTokenHash is the hex sha256 of the single active refresh token.
	RefreshTokenHash string     `gorm:"column:refresh_token_hash;type:char(64);index" json:"-"`
	RoleID           *uint      `gorm:"column:role_id;index" json:"roleId"`
	CodeVerify       string     `gorm:"column:code_verify;type:varchar(16)" json:"-"`
	TimeSendCode     *time.Time `gorm:"column:time_send_code" json:"-"`
	VerifyEmail      bool       `gorm:"column:verify_email;not null" json:"verifyEmail"`
	Status           string     `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	IsDeleted        bool       `gorm:"column:is_deleted;index;not null" json:"isDeleted"`
	CreatedBy        *uint      `gorm:"column:created_by" json:"createdBy,omitempty"`
	UpdatedBy        *uint      `gorm:"column:updated_by" json:"updatedBy,omitempty"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// UserSummary is the public projection of a user. It never carries secrets.
type UserSummary struct {
	ID          uint      `json:"id"`
	Fullname    string    `json:"fullname"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	Slug        string    `json:"slug"`
	RoleID      *uint     `json:"roleId,omitempty"`
	VerifyEmail bool      `json:"verifyEmail"`
	Status      string    `json:"status"`
	IsDeleted   bool      `json:"isDeleted,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary projects the user without secrets.
func (u *DbUser) Summary() UserSummary {
	var roleID *uint
	if u.RoleID != nil {
		id := *u.RoleID
		roleID = &id
	}
	return UserSummary{
		ID:          u.ID,
		Fullname:    u.Fullname,
		Username:    u.Username,
		Email:       u.Email,
		Phone:       u.Phone,
		Address:     u.Address,
		Avatar:      u.Avatar,
		Slug:        u.Slug,
		RoleID:      roleID,
		VerifyEmail: u.VerifyEmail,
		Status:      u.Status,
		IsDeleted:   u.IsDeleted,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	BaseParams
	Status         string `json:"status" form:"status" query:"status"`
	Keyword        string `json:"keyword" form:"keyword" query:"keyword"`
	IncludeDeleted bool   `json:"includeDeleted" form:"include_deleted" query:"include_deleted"`
}

type UserCreateRequest struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Avatar   string `json:"avatar"`
	RoleID   *uint  `json:"roleId"`
	Status   string `json:"status"`
}

type UserUpdateRequest struct {
	Fullname *string `json:"fullname,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	RoleID   *uint   `json:"roleId,omitempty"`
	Status   *string `json:"status,omitempty"`
}

type UserListResponse struct {
	Users []UserSummary `json:"users"`
	Meta  *Meta         `json:"meta"`
}
