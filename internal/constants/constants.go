package constants

import "time"

// storage keys，前端時代的固定key名稱，不可任意更動
const (
	SessionTokenKey = "mami_session_token" // session scope
	DurableTokenKey = "mami_token"         // remember me
	RoleKey         = "mami_role"          // 與durable token一起存放

	CartSnapshotKey         = "cart"
	OrderSuccessKeyPrefix   = "order_success_"
	IdempotencyKeyKeyPrefix = "checkout_idempotency_"
)

// hash based routes
const (
	RouteLogin        = "/login"
	RouteCart         = "/cart"
	RouteCheckout     = "/checkout"
	RouteOrderSuccess = "/order-success"
)

// http header
const (
	HeaderAuthorization  = "Authorization"
	HeaderRequestID      = "X-Request-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
	AuthorizationBearer  = "Bearer"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// 可進入營運後台的角色
var StaffRoles = []Role{RoleEmployee, RoleManager, RoleAdmin}

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

type ContextKey string

const (
	RequestIDKey            ContextKey = "request_id"
	AuthorizationPayloadKey ContextKey = "authorization_payload"
)

const (
	DefaultAPITimeout          = 30 * time.Second
	DefaultCatalogCacheTTL     = 5 * time.Minute
	DefaultPagingSize      int = 20
)
