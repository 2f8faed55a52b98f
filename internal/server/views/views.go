// Package views turns service results into the wire messages shared by the
// gRPC and HTTP transports.
package views

import (
	"time"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

func User(u *models.User) pb.UserResponse {
	return pb.UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       string(u.Role),
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		LastLogin:  u.LastLogin,
	}
}

func Users(list []*models.User) pb.UserListResponse {
	out := pb.UserListResponse{Users: make([]pb.UserResponse, 0, len(list))}
	for _, u := range list {
		out.Users = append(out.Users, User(u))
	}
	return out
}

func Tokens(p *services.TokenPair) pb.TokenResponse {
	return pb.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    seconds(p.ExpiresIn),
	}
}

func Access(a *services.AccessToken) pb.RefreshResponse {
	return pb.RefreshResponse{
		AccessToken: a.AccessToken,
		TokenType:   a.TokenType,
		ExpiresIn:   seconds(a.ExpiresIn),
	}
}

func RegisterInput(r pb.RegisterRequest) services.RegisterInput {
	return services.RegisterInput{
		Email:    r.Email,
		Username: r.Username,
		FullName: r.FullName,
		Password: r.Password,
	}
}

func ProfileUpdate(r pb.UpdateMeRequest) services.ProfileUpdate {
	return services.ProfileUpdate{
		Email:    r.Email,
		Username: r.Username,
		FullName: r.FullName,
	}
}

func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
