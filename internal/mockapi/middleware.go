package mockapi

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type StatusRecoder struct {
	http.ResponseWriter
	status int
}

func (w *StatusRecoder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecoder) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func getRequestID(r *http.Request) string {
	if v, ok := r.Context().Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return "unknown"
}

func getPayload(ctx context.Context) *Payload {
	p, _ := ctx.Value(constants.AuthorizationPayloadKey).(*Payload)
	return p
}

func RequestIdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//從header內檢查是否有 request id
		requestId := r.Header.Get(constants.HeaderRequestID)
		if requestId == "" {
			requestId = uuid.New().String()
		}
		w.Header().Set(constants.HeaderRequestID, requestId)

		ctx := context.WithValue(r.Context(), constants.RequestIDKey, requestId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// 只解析 token，失敗也不中斷，交給 AuthMiddleware 判斷
func AuthPayloadMiddleware(tokenMaker *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := checkAuthPayload(tokenMaker, r)
			if ok {
				ctx := context.WithValue(r.Context(), constants.AuthorizationPayloadKey, payload)
				next.ServeHTTP(w, r.WithContext(ctx))
			} else {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func checkAuthPayload(tokenMaker *TokenMaker, r *http.Request) (*Payload, bool) {
	fields := strings.Fields(r.Header.Get(constants.HeaderAuthorization))
	if len(fields) < 2 {
		return nil, false
	}
	if !strings.EqualFold(fields[0], constants.AuthorizationBearer) {
		return nil, false
	}
	payload, err := tokenMaker.VerifyToken(fields[1])
	if err != nil {
		return nil, false
	}
	return payload, true
}

// 驗證 ctx 是否有 token payload
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getPayload(r.Context()) == nil {
			writeError(w, apperror.FromResponse(http.StatusUnauthorized, string(apperror.UnauthorizedCode), "Authentication required.", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireRole(roles ...constants.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := getPayload(r.Context())
			if p == nil || !slices.Contains(roles, p.Role) {
				writeError(w, apperror.FromResponse(http.StatusForbidden, string(apperror.ForbiddenCode), "", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// 記錄request 請求，panic 時回 500
func LoggerMiddleware(logger *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recoder := &StatusRecoder{ResponseWriter: w}
			start := time.Now()

			defer func() {
				if err := recover(); err != nil {
					logger.Error().
						Str("request_id", getRequestID(r)).
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Str("error", fmt.Sprintf("%v", err)).
						Bytes("stack", debug.Stack()).
						Msg("request panic")
					writeError(recoder, apperror.FromResponse(http.StatusInternalServerError, string(apperror.InternalErrorCode), "", nil))
				}
			}()

			next.ServeHTTP(recoder, r)

			userID := "anonymous"
			if p := getPayload(r.Context()); p != nil {
				userID = p.UserID
			}
			logger.Info().
				Str("request_id", getRequestID(r)).
				Str("user_id", userID).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", recoder.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
