package dto

import (
	"time"

	"github.com/roomify/roomify/internal/model"
)

// CreateUserRequest represents the request body for registering an account.
type CreateUserRequest struct {
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	FullName        string `json:"full_name"`
	NationalID      string `json:"national_id,omitempty"`
	NationalIDImage string `json:"national_id_image,omitempty"`
	Role            string `json:"role,omitempty"`
}

// UpdateUserRequest represents the request body for updating a profile.
type UpdateUserRequest struct {
	FullName        *string `json:"full_name,omitempty"`
	NationalID      *string `json:"national_id,omitempty"`
	NationalIDImage *string `json:"national_id_image,omitempty"`
	Password        *string `json:"password,omitempty"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// UserResponse represents an account in API responses.
// The password hash never leaves the server.
type UserResponse struct {
	ID         string    `json:"user_id"`
	Phone      string    `json:"phone"`
	FullName   string    `json:"full_name"`
	NationalID string    `json:"national_id,omitempty"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Phone:      user.Phone,
		FullName:   user.FullName,
		NationalID: user.NationalID,
		Role:       user.Role,
		CreatedAt:  user.CreatedAt,
	}
}

// ToUserListResponse converts a slice of User models.
func ToUserListResponse(users []*model.User) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i, u := range users {
		responses[i] = *ToUserResponse(u)
	}
	return responses
}
