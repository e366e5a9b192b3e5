package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/infra/storage"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoToken = errors.New("no token in session")

// Claims token 中前端會用到的欄位，未驗簽
type Claims struct {
	Subject   string
	Role      constants.Role
	ExpiresAt time.Time
}

/*
Session 整個 process 唯一的登入狀態來源
token 讀取順序: session scope > durable scope
兩者都必須是三段式 JWT 才會被使用
*/
type Session struct {
	mu      sync.RWMutex
	session storage.Store
	durable storage.Store
}

func New(sessionScope, durableScope storage.Store) *Session {
	if util.IsNil(sessionScope) || util.IsNil(durableScope) {
		panic("session dependency store is nil")
	}
	return &Session{session: sessionScope, durable: durableScope}
}

// Token 回傳目前可用的 token，皆不合格時回傳空字串
func (s *Session) Token(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token(ctx)
}

func (s *Session) token(ctx context.Context) string {
	if t, ok, err := s.session.Get(ctx, constants.SessionTokenKey); err == nil && ok && IsJWT(t) {
		return t
	}
	if t, ok, err := s.durable.Get(ctx, constants.DurableTokenKey); err == nil && ok && IsJWT(t) {
		return t
	}
	return ""
}

func (s *Session) IsAuthenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// Role 先看存下來的 role，沒有時由 token claims 取得
func (s *Session) Role(ctx context.Context) constants.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok := s.token(ctx)
	if tok == "" {
		return ""
	}
	if r, ok, err := s.durable.Get(ctx, constants.RoleKey); err == nil && ok && r != "" {
		return constants.Role(r)
	}
	if c, err := ParseClaims(tok); err == nil {
		return c.Role
	}
	return ""
}

func (s *Session) HasRole(ctx context.Context, roles ...constants.Role) bool {
	r := s.Role(ctx)
	if r == "" {
		return false
	}
	return slices.Contains(roles, r)
}

func (s *Session) Claims(ctx context.Context) (*Claims, error) {
	tok := s.Token(ctx)
	if tok == "" {
		return nil, ErrNoToken
	}
	return ParseClaims(tok)
}

// Subject 無法取得時回傳空字串，給 activity event 當 key 用
func (s *Session) Subject(ctx context.Context) string {
	c, err := s.Claims(ctx)
	if err != nil {
		return ""
	}
	return c.Subject
}

/*
Login 寫入 token 與 role
remember=true: token 寫 durable scope，並清掉 session scope 舊 token
remember=false: token 寫 session scope，並清掉 durable scope 的舊憑證
*/
func (s *Session) Login(ctx context.Context, token string, role constants.Role, remember bool) error {
	if !IsJWT(token) {
		return fmt.Errorf("token is not a jwt")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if remember {
		if err := s.session.Delete(ctx, constants.SessionTokenKey); err != nil {
			return err
		}
		if err := s.durable.Set(ctx, constants.DurableTokenKey, token); err != nil {
			return err
		}
	} else {
		if err := s.durable.Delete(ctx, constants.DurableTokenKey); err != nil {
			return err
		}
		if err := s.session.Set(ctx, constants.SessionTokenKey, token); err != nil {
			return err
		}
	}
	if role == "" {
		return s.durable.Delete(ctx, constants.RoleKey)
	}
	return s.durable.Set(ctx, constants.RoleKey, string(role))
}

// Logout 清除兩個 scope 的 token 與 role
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err1 := s.session.Delete(ctx, constants.SessionTokenKey)
	err2 := s.durable.Delete(ctx, constants.DurableTokenKey, constants.RoleKey)
	return errors.Join(err1, err2)
}

// IsJWT 只檢查格式: 三段且皆非空
func IsJWT(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

type roleClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseClaims 不驗簽，只用於顯示與路由判斷，真正授權由後端決定
func ParseClaims(token string) (*Claims, error) {
	rc := &roleClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, rc); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	c := &Claims{Subject: rc.Subject, Role: constants.Role(rc.Role)}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}
