package handler

import (
	"github.com/photoportfolio/portfolio-api/internal/core/domain"
	"github.com/photoportfolio/portfolio-api/internal/core/ports"
)

// --- Request → Service input ---

func toRegisterInput(req registerRequest) ports.RegisterInput {
	return ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      domain.Role(req.Role),
	}
}

func toCreateUserInput(req createUserRequest) ports.CreateUserInput {
	return ports.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      domain.Role(req.Role),
	}
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	in := ports.UpdateUserInput{FirstName: req.FirstName, LastName: req.LastName}
	if req.Role != nil {
		r := domain.Role(*req.Role)
		in.Role = &r
	}
	return in
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

func toAuthResponse(r *ports.AuthResult) authResponse {
	return authResponse{AccessToken: r.AccessToken, User: toUserResponse(r.User)}
}

func toPrincipalResponse(p domain.Principal) principalResponse {
	return principalResponse{ID: p.ID, Email: p.Email, Role: p.Role}
}

func toListUsersResponse(r *ports.ListUsersResult) listUsersResponse {
	users := make([]userResponse, 0, len(r.Users))
	for _, u := range r.Users {
		users = append(users, toUserResponse(u))
	}
	return listUsersResponse{Users: users, Total: r.Total, Page: r.Page, Limit: r.Limit}
}

func toStatsResponse(s *domain.Stats) statsResponse {
	return statsResponse{Total: s.Total, Photographers: s.Photographers, Admins: s.Admins}
}
