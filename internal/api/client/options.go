package client

import "github.com/RoyceAzure/lab/freshmarket/internal/constants"

type RequestOption func(*requestOptions)

type requestOptions struct {
	query   map[string]any
	headers map[string]string
	rawBody bool
}

// WithQuery key 會轉為 snake_case，value 轉字串，nil 略過
func WithQuery(query map[string]any) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(map[string]any, len(query))
		}
		for k, v := range query {
			o.query[k] = v
		}
	}
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

func WithIdempotencyKey(key string) RequestOption {
	return WithHeader(constants.HeaderIdempotencyKey, key)
}

// WithRawBody body 原樣送出，不轉 snake_case
func WithRawBody() RequestOption {
	return func(o *requestOptions) {
		o.rawBody = true
	}
}
