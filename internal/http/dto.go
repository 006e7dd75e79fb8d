package http

import (
	"time"

	"github.com/nexushq/nexus/internal/domain"
)

// userResponse is the wire shape of a user. The password hash and 2FA
// secret never leave the service.
type userResponse struct {
	ID               string  `json:"id"`
	Username         string  `json:"username"`
	Email            string  `json:"email"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	DNI              *string `json:"dni"`
	BirthDate        *string `json:"birthDate"`
	PhoneNumber      *string `json:"phoneNumber"`
	Enabled          bool    `json:"enabled"`
	Role             string  `json:"role"`
	TwoFactorEnabled bool    `json:"twoFactorEnabled"`
	AvatarURL        *string `json:"avatarUrl"`
	CreatedAt        string  `json:"createdAt"`
}

func toUserResponse(u domain.User) userResponse {
	var birth *string
	if u.BirthDate != nil {
		s := u.BirthDate.Format("2006-01-02")
		birth = &s
	}
	return userResponse{
		ID:               string(u.ID),
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		DNI:              u.DNI,
		BirthDate:        birth,
		PhoneNumber:      u.PhoneNumber,
		Enabled:          u.Enabled,
		Role:             u.RoleName,
		TwoFactorEnabled: u.TwoFactorEnabled,
		AvatarURL:        u.AvatarURL,
		CreatedAt:        u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse has two shapes. A completed login carries accessToken plus
// the profile; the 2FA pending step carries token plus is2faRequired. Both
// always carry tokenType "Bearer".
type loginResponse struct {
	AccessToken       string        `json:"accessToken,omitempty"`
	Token             string        `json:"token,omitempty"`
	TokenType         string        `json:"tokenType"`
	Message           string        `json:"message,omitempty"`
	TwoFactorRequired bool          `json:"is2faRequired"`
	User              *userResponse `json:"user,omitempty"`
}

type verify2FARequest struct {
	VerificationCode string `json:"verificationCode"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type verificationCodeRequest struct {
	VerificationCode string `json:"verificationCode"`
}

type createUserRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DNI         *string `json:"dni"`
	BirthDate   *string `json:"birthDate"` // YYYY-MM-DD
	PhoneNumber *string `json:"phoneNumber"`
	Role        string  `json:"role"`
}

type updateUserRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	DNI         *string `json:"dni"`
	BirthDate   *string `json:"birthDate"` // YYYY-MM-DD
	PhoneNumber *string `json:"phoneNumber"`
	Role        *string `json:"role"`
}

type updateProfileRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	DNI         *string `json:"dni"`
	PhoneNumber *string `json:"phoneNumber"`
}

type roleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type logEntryResponse struct {
	ID             string  `json:"id"`
	CreatedAt      string  `json:"createdAt"`
	EventType      string  `json:"eventType"`
	Username       string  `json:"username"`
	TargetUsername *string `json:"targetUsername"`
	Description    string  `json:"description"`
	Result         string  `json:"result"`
	IPAddress      string  `json:"ipAddress"`
}

// pageResponse is the pagination envelope for list endpoints.
type pageResponse struct {
	Content       any   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

type summaryResponse struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	InactiveUsers int64 `json:"inactiveUsers"`
}

type monthlyRegistrationsResponse struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}
