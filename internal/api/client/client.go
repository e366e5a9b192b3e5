package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/navigation"
	"github.com/RoyceAzure/lab/freshmarket/internal/session"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// API 所有 service 依賴的介面，測試時可替換
type API interface {
	Get(ctx context.Context, path string, out any, opts ...RequestOption) error
	Delete(ctx context.Context, path string, out any, opts ...RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

/*
Client 包裝 resty
  - request body 與 query key 轉 snake_case，response key 轉回 camelCase
  - 自動附帶 bearer token 與 request id
  - 任何 401 都會清掉登入狀態並導到 /login
  - 所有錯誤都是 *apperror.Error
*/
type Client struct {
	rc     *resty.Client
	sess   *session.Session
	nav    navigation.Navigator
	logger *zerolog.Logger
}

var _ API = (*Client)(nil)

func New(cfg Config, sess *session.Session, nav navigation.Navigator, logger *zerolog.Logger) *Client {
	if sess == nil {
		panic("api client dependency session is nil")
	}
	if nav == nil {
		nav = navigation.Nop{}
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultAPITimeout
	}

	c := &Client{sess: sess, nav: nav, logger: logger}
	c.rc = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		OnBeforeRequest(c.attachHeaders).
		OnAfterResponse(c.handleUnauthorized)
	return c
}

func (c *Client) attachHeaders(_ *resty.Client, r *resty.Request) error {
	if r.Header.Get(constants.HeaderRequestID) == "" {
		r.SetHeader(constants.HeaderRequestID, uuid.NewString())
	}
	if tok := c.sess.Token(r.Context()); tok != "" {
		r.SetHeader(constants.HeaderAuthorization, constants.AuthorizationBearer+" "+tok)
	}
	return nil
}

// 不論哪一個呼叫收到 401，一律登出並回到登入頁
func (c *Client) handleUnauthorized(_ *resty.Client, resp *resty.Response) error {
	if resp.StatusCode() != http.StatusUnauthorized {
		return nil
	}
	ctx := context.Background()
	if resp.Request != nil {
		ctx = context.WithoutCancel(resp.Request.Context())
	}
	if err := c.sess.Logout(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to clear session after 401")
	}
	c.nav.Navigate(constants.RouteLogin, nil)
	return nil
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPatch, path, body, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	o := &requestOptions{}
	for _, opt := range opts {
		opt(o)
	}

	req := c.rc.R().SetContext(ctx)
	for k, v := range o.headers {
		req.SetHeader(k, v)
	}
	for k, v := range o.query {
		if v == nil {
			continue
		}
		req.SetQueryParam(util.ToSnake(k), fmt.Sprint(v))
	}
	if body != nil {
		var (
			b   []byte
			err error
		)
		if o.rawBody {
			b, err = json.Marshal(body)
		} else {
			b, err = util.SnakeCaseJSON(body)
		}
		if err != nil {
			return apperror.Wrap(apperror.InternalErrorCode, fmt.Errorf("failed to encode request body: %w", err))
		}
		req.SetHeader("Content-Type", "application/json").SetBody(b)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("api request failed")
		return apperror.Wrap(apperror.InternalErrorCode, fmt.Errorf("%s %s: %w", method, path, err))
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Str("request_id", resp.Request.Header.Get(constants.HeaderRequestID)).
		Dur("duration", resp.Time()).
		Msg("api request")

	if resp.IsError() {
		return parseError(resp.StatusCode(), resp.Body())
	}
	if out == nil {
		return nil
	}
	if err := decodeResponse(resp.Body(), out); err != nil {
		return apperror.Wrap(apperror.InternalErrorCode, fmt.Errorf("failed to decode %s %s: %w", method, path, err))
	}
	return nil
}
