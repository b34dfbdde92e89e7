package entity

type AuthRegisterRequest struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest accepts either identifier field; EmailOrUsername wins when set.
type AuthLoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

// Identifier returns the first non-empty login identifier.
func (r AuthLoginRequest) Identifier() string {
	for _, v := range []string{r.EmailOrUsername, r.Email, r.Username} {
		if v != "" {
			return v
		}
	}
	return ""
}

type AuthVerifyCodeRequest struct {
	Email      string `json:"email"`
	Code       string `json:"code"`
	CodeVerify string `json:"codeVerify"`
}

// CandidateCode prefers code and falls back to the legacy codeVerify field.
func (r AuthVerifyCodeRequest) CandidateCode() string {
	if r.Code != "" {
		return r.Code
	}
	return r.CodeVerify
}

type AuthEmailRequest struct {
	Email string `json:"email"`
}

type AuthResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	CodeVerify  string `json:"codeVerify"`
	NewPassword string `json:"newPassword"`
}

// CandidateCode prefers code and falls back to the legacy codeVerify field.
func (r AuthResetPasswordRequest) CandidateCode() string {
	if r.Code != "" {
		return r.Code
	}
	return r.CodeVerify
}

type AuthChangePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type AuthUpdateProfileRequest struct {
	Fullname *string `json:"fullname,omitempty"`
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

type AuthRefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthRegisterResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

type AuthTokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type AuthLoginResponse struct {
	Message string `json:"message"`
	AuthTokenPair
}

type AuthFederatedResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Created bool          `json:"created"`
	Data    AuthTokenPair `json:"data"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
