package dto

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/faraddouglas/conecsa-api/internal/domain"
	apperrors "github.com/faraddouglas/conecsa-api/pkg/util"
)

const dateLayout = "2006-01-02"

// Format check only; deliverability is proven by the reset mail itself.
var emailFormat = validation.Match(regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)).Error("must be a valid email address")

// bcrypt ignores input past 72 bytes.
var passwordRules = []validation.Rule{validation.Required, validation.Length(6, 72)}

// RegisterRequest payload for new users.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	BirthAt  *string `json:"birth_at"`
}

// Validate checks the registration payload.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 63)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 127), emailFormat),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.BirthAt, validation.Date(dateLayout)),
	)
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, emailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// ForgetRequest payload for starting a password reset.
type ForgetRequest struct {
	Email string `json:"email"`
}

// Validate checks the forget payload.
func (r ForgetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, emailFormat),
	)
}

// ResetRequest payload for completing a password reset.
type ResetRequest struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

// Validate checks the reset payload.
func (r ResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.Token, validation.Required),
	)
}

// UserRequest payload for creating or replacing a user.
type UserRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	BirthAt  *string `json:"birth_at"`
	Role     *int    `json:"role"`
}

// Validate checks the user payload.
func (r UserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 63)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 127), emailFormat),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.BirthAt, validation.Date(dateLayout)),
		validation.Field(&r.Role, validation.In(int(domain.RoleUser), int(domain.RoleAdmin))),
	)
}

// UserPatchRequest payload for partially updating a user. Absent fields are left unchanged.
type UserPatchRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	BirthAt  *string `json:"birth_at"`
	Role     *int    `json:"role"`
}

// Validate checks the fields that are present.
func (r UserPatchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 63)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, 127), emailFormat),
		validation.Field(&r.Password, validation.NilOrNotEmpty, validation.Length(6, 72)),
		validation.Field(&r.BirthAt, validation.Date(dateLayout)),
		validation.Field(&r.Role, validation.In(int(domain.RoleUser), int(domain.RoleAdmin))),
	)
}

// ParseDate converts an optional yyyy-mm-dd string. Validate must have accepted it.
func ParseDate(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil
	}
	return &parsed
}

// ValidationError converts ozzo validation errors into a VALIDATION_FAILED error with per-field details.
func ValidationError(err error) error {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		details[field] = fieldErr.Error()
	}
	return apperrors.NewValidationError("invalid payload", details)
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	BirthAt   *string     `json:"birth_at,omitempty"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewUserResponse maps a domain user, omitting the password hash.
func NewUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if user.BirthAt != nil {
		birth := user.BirthAt.Format(dateLayout)
		resp.BirthAt = &birth
	}
	return resp
}
