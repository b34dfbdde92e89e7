package entity

import "time"

// UserUpdates lists user columns to change; nil pointers are left untouched.
type UserUpdates struct {
	Fullname         *string
	Username         *string
	Email            *string
	PasswordHash     *string
	Phone            *string
	Address          *string
	Avatar           *string
	Slug             *string
	RefreshTokenHash *string
	RoleID           *uint
	ClearRole        bool
	CodeVerify       *string
	TimeSendCode     *time.Time
	// ClearCode empties code_verify and nulls time_send_code.
	ClearCode        bool
	VerifyEmail      *bool
	Status           *string
	IsDeleted        *bool
	UpdatedBy        *uint
}

// ToMap converts the updates to a GORM column map.
func (u UserUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Fullname != nil {
		updates["fullname"] = *u.Fullname
	}
	if u.Username != nil {
		updates["username"] = *u.Username
	}
	if u.Email != nil {
		updates["email"] = *u.Email
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.Phone != nil {
		updates["phone"] = *u.Phone
	}
	if u.Address != nil {
		updates["address"] = *u.Address
	}
	if u.Avatar != nil {
		updates["avatar"] = *u.Avatar
	}
	if u.Slug != nil {
		updates["slug"] = *u.Slug
	}
	if u.RefreshTokenHash != nil {
		updates["refresh_token_hash"] = *u.RefreshTokenHash
	}
	if u.ClearRole {
		updates["role_id"] = nil
	} else if u.RoleID != nil {
		updates["role_id"] = *u.RoleID
	}
	if u.ClearCode {
		updates["code_verify"] = ""
		updates["time_send_code"] = nil
	} else {
		if u.CodeVerify != nil {
			updates["code_verify"] = *u.CodeVerify
		}
		if u.TimeSendCode != nil {
			updates["time_send_code"] = *u.TimeSendCode
		}
	}
	if u.VerifyEmail != nil {
		updates["verify_email"] = *u.VerifyEmail
	}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	if u.IsDeleted != nil {
		updates["is_deleted"] = *u.IsDeleted
	}
	if u.UpdatedBy != nil {
		updates["updated_by"] = *u.UpdatedBy
	}
	return updates
}

// IsEmpty reports whether no column would change.
func (u UserUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// Apply copies the updates onto an in-memory user.
func (u UserUpdates) Apply(user *DbUser) {
	if user == nil {
		return
	}
	if u.Fullname != nil {
		user.Fullname = *u.Fullname
	}
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	if u.Address != nil {
		user.Address = *u.Address
	}
	if u.Avatar != nil {
		user.Avatar = *u.Avatar
	}
	if u.Slug != nil {
		user.Slug = *u.Slug
	}
	if u.RefreshTokenHash != nil {
		user.RefreshTokenHash = *u.RefreshTokenHash
	}
	if u.ClearRole {
		user.RoleID = nil
	} else if u.RoleID != nil {
		id := *u.RoleID
		user.RoleID = &id
	}
	if u.ClearCode {
		user.CodeVerify = ""
		user.TimeSendCode = nil
	} else {
		if u.CodeVerify != nil {
			user.CodeVerify = *u.CodeVerify
		}
		if u.TimeSendCode != nil {
			ts := *u.TimeSendCode
			user.TimeSendCode = &ts
		}
	}
	if u.VerifyEmail != nil {
		user.VerifyEmail = *u.VerifyEmail
	}
	if u.Status != nil {
		user.Status = *u.Status
	}
	if u.IsDeleted != nil {
		user.IsDeleted = *u.IsDeleted
	}
	if u.UpdatedBy != nil {
		id := *u.UpdatedBy
		user.UpdatedBy = &id
	}
}

// RoleUpdates lists role columns to change; nil pointers are left untouched.
type RoleUpdates struct {
	Title       *string
	Description *string
	Permissions *StringArray
	IsActive    *bool
	IsDeleted   *bool
	UpdatedBy   *uint
}

// ToMap converts the updates to a GORM column map.
func (u RoleUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Title != nil {
		updates["title"] = *u.Title
	}
	if u.Description != nil {
		updates["description"] = *u.Description
	}
	if u.Permissions != nil {
		updates["permissions"] = *u.Permissions
	}
	if u.IsActive != nil {
		updates["is_active"] = *u.IsActive
	}
	if u.IsDeleted != nil {
		updates["is_deleted"] = *u.IsDeleted
	}
	if u.UpdatedBy != nil {
		updates["updated_by"] = *u.UpdatedBy
	}
	return updates
}

// IsEmpty reports whether no column would change.
func (u RoleUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}

// Apply copies the updates onto an in-memory role.
func (u RoleUpdates) Apply(role *DbRole) {
	if role == nil {
		return
	}
	if u.Title != nil {
		role.Title = *u.Title
	}
	if u.Description != nil {
		role.Description = *u.Description
	}
	if u.Permissions != nil {
		role.Permissions = append(StringArray(nil), (*u.Permissions)...)
	}
	if u.IsActive != nil {
		role.IsActive = *u.IsActive
	}
	if u.IsDeleted != nil {
		role.IsDeleted = *u.IsDeleted
	}
	if u.UpdatedBy != nil {
		id := *u.UpdatedBy
		role.UpdatedBy = &id
	}
}
