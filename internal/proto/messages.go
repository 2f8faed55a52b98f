package proto

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// The message types below are the JSON shapes carried inside the Struct
// payloads. The HTTP API uses the same shapes as request and response bodies.

type RegisterRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	FullName *string `json:"full_name,omitempty"`
	Password string  `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type UpdateMeRequest struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

// ListUsersRequest pages through users. A nil Limit selects the server
// default; an explicit zero is rejected.
type ListUsersRequest struct {
	Skip  int  `json:"skip"`
	Limit *int `json:"limit,omitempty"`
}

type UserIDRequest struct {
	ID string `json:"id"`
}

// TokenResponse is returned by Register and Login. ExpiresIn is the access
// token lifetime in seconds.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserResponse is the public view of an account. It never carries the
// password hash.
type UserResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	FullName   *string    `json:"full_name"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastLogin  *time.Time `json:"last_login"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type PingResponse struct {
	Status string `json:"status"`
}

// ToStruct converts a message into a Struct through its JSON form.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

// FromStruct fills v from s. A nil Struct leaves v unchanged.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return nil
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
