package service

import (
	"context"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/RoyceAzure/lab/freshmarket/internal/session"
)

type AuthService struct {
	api  client.API
	sess *session.Session
}

func NewAuthService(api client.API, sess *session.Session) *AuthService {
	return &AuthService{api: api, sess: sess}
}

// Login 成功後寫入 session，remember 決定存在哪個 scope
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*model.User, error) {
	res := &model.AuthResult{}
	if err := s.api.Post(ctx, "/auth/login", model.LoginRequest{Email: email, Password: password}, res); err != nil {
		return nil, err
	}
	if err := s.sess.Login(ctx, res.AccessToken, constants.Role(res.User.Role), remember); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Register 後端有回 token 時直接登入 (僅本次)
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	res := &model.AuthResult{}
	if err := s.api.Post(ctx, "/auth/register", req, res); err != nil {
		return nil, err
	}
	if res.AccessToken != "" {
		if err := s.sess.Login(ctx, res.AccessToken, constants.Role(res.User.Role), false); err != nil {
			return nil, err
		}
	}
	return &res.User, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.sess.Logout(ctx)
}

func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	u := &model.User{}
	if err := s.api.Get(ctx, "/me", u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Addresses(ctx context.Context) ([]model.Address, error) {
	var out []model.Address
	if err := s.api.Get(ctx, "/me/addresses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AuthService) AddAddress(ctx context.Context, addr model.Address) (*model.Address, error) {
	out := &model.Address{}
	if err := s.api.Post(ctx, "/me/addresses", addr, out); err != nil {
		return nil, err
	}
	return out, nil
}
