package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/util"
)

// writeData 回應一律包在 {data} 內，key 轉 snake_case
func writeData(w http.ResponseWriter, status int, v any) {
	b, err := util.SnakeCaseJSON(map[string]any{"data": v})
	if err != nil {
		writeError(w, apperror.Wrap(apperror.InternalErrorCode, err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

type errorBody struct {
	Code    apperror.Code  `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		ae = apperror.Wrap(apperror.InternalErrorCode, err)
	}
	status := ae.Status
	if status == 0 {
		status = statusOf(ae.Code)
	}
	b, _ := util.SnakeCaseJSON(errorBody{Code: ae.Code, Message: ae.Message, Details: ae.Details})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func statusOf(code apperror.Code) int {
	switch code {
	case apperror.UnauthorizedCode:
		return http.StatusUnauthorized
	case apperror.ForbiddenCode:
		return http.StatusForbidden
	case apperror.NotFoundCode:
		return http.StatusNotFound
	case apperror.ValidationErrorCode, apperror.InvalidSlotCode:
		return http.StatusUnprocessableEntity
	case apperror.InsufficientStockCode, apperror.ConflictCode:
		return http.StatusConflict
	case apperror.PaymentFailedCode:
		return http.StatusPaymentRequired
	case apperror.RateLimitedCode:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody 請求 body 是 snake_case，轉 camelCase 後解到 dst
func decodeBody(r *http.Request, dst any) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return apperror.New(apperror.ValidationErrorCode, "Unable to read request body.")
	}
	b, err := util.CamelCaseJSON(raw)
	if err != nil {
		return apperror.New(apperror.ValidationErrorCode, "Request body is not valid JSON.")
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return apperror.New(apperror.ValidationErrorCode, "Request body has unexpected fields.")
	}
	return nil
}
