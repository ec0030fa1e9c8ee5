package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/inspectra/internal/domain"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
)

// AuthService covers login, logout and the current user.
type AuthService struct {
	c       httpclient.Client
	session Session
}

type loginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login exchanges credentials for a token and stores it in the session slot.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.User{}, errors.New("email and password are required")
	}

	var out loginResult
	err := call(ctx, s.c, &httpclient.Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if strings.TrimSpace(out.Token) == "" {
		return domain.User{}, errors.New("login: response carried no token")
	}
	if s.session == nil {
		return domain.User{}, errors.New("login: no session store configured")
	}
	if err := s.session.Save(out.Token); err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	return out.User, nil
}

// Logout notifies the backend and clears the session slot whatever the
// backend answered. A 401 from the backend is not reported as a failure.
func (s *AuthService) Logout(ctx context.Context) error {
	err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPost, Path: "/auth/logout"}, nil)
	if httpclient.IsUnauthorized(err) {
		err = nil
	}

	var clearErr error
	if s.session != nil {
		clearErr = s.session.Clear()
	}
	if err != nil || clearErr != nil {
		return fmt.Errorf("logout: %w", errors.Join(err, clearErr))
	}
	return nil
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	if err := call(ctx, s.c, &httpclient.Request{Path: "/auth/me"}, &u); err != nil {
		return domain.User{}, fmt.Errorf("current user: %w", err)
	}
	return u, nil
}

// ProfileService manages the signed-in user's own profile.
type ProfileService struct {
	c httpclient.Client
}

type ProfileUpdate struct {
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
}

func (s *ProfileService) Get(ctx context.Context) (domain.Profile, error) {
	var p domain.Profile
	if err := call(ctx, s.c, &httpclient.Request{Path: "/profile"}, &p); err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, upd ProfileUpdate) (domain.Profile, error) {
	var p domain.Profile
	err := call(ctx, s.c, &httpclient.Request{Method: http.MethodPut, Path: "/profile", Body: upd}, &p)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return errors.New("current and new password are required")
	}
	err := call(ctx, s.c, &httpclient.Request{
		Method: http.MethodPut,
		Path:   "/profile/password",
		Body:   map[string]string{"currentPassword": current, "newPassword": next},
	}, nil)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}
