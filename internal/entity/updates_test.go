package entity

import (
	"testing"
	"time"
)

func TestUserUpdatesClearCode(t *testing.T) {
	code := "123456"
	now := time.Now()
	updates := UserUpdates{CodeVerify: &code, TimeSendCode: &now, ClearCode: true}

	m := updates.ToMap()
	if m["code_verify"] != "" {
		t.Fatalf("expected code to be emptied, got %v", m["code_verify"])
	}
	if v, ok := m["time_send_code"]; !ok || v != nil {
		t.Fatalf("expected time_send_code to be nulled, got %v", v)
	}

	user := &DbUser{CodeVerify: "999999", TimeSendCode: &now}
	updates.Apply(user)
	if user.CodeVerify != "" || user.TimeSendCode != nil {
		t.Fatalf("expected code state cleared, got %q %v", user.CodeVerify, user.TimeSendCode)
	}
}

func TestUserUpdatesIsEmpty(t *testing.T) {
	if !(UserUpdates{}).IsEmpty() {
		t.Fatal("expected empty updates")
	}
	name := "Ann"
	if (UserUpdates{Fullname: &name}).IsEmpty() {
		t.Fatal("expected non-empty updates")
	}
	if (UserUpdates{ClearRole: true}).IsEmpty() {
		t.Fatal("clearing the role is an update")
	}
}

func TestRoleUpdatesApplyCopiesPermissions(t *testing.T) {
	perms := StringArray{"user:read"}
	role := &DbRole{}
	RoleUpdates{Permissions: &perms}.Apply(role)
	perms[0] = "user:delete"
	if role.Permissions[0] != "user:read" {
		t.Fatalf("permissions slice was aliased: %v", role.Permissions)
	}
}
