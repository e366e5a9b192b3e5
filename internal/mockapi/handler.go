package mockapi

import (
	"net/http"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler 假後端所有路由的 handler
type Handler struct {
	state         *state
	tokenMaker    *TokenMaker
	tokenDuration time.Duration
	logger        *zerolog.Logger
}

func userID(r *http.Request) string {
	if p := getPayload(r.Context()); p != nil {
		return p.UserID
	}
	return ""
}

// ---- auth ----

func (h *Handler) issue(w http.ResponseWriter, status int, u *model.User) {
	token, err := h.tokenMaker.CreateToken(u.ID, constants.Role(u.Role), h.tokenDuration)
	if err != nil {
		writeError(w, apperror.Wrap(apperror.InternalErrorCode, err))
		return
	}
	writeData(w, status, model.AuthResult{AccessToken: token, User: *u})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.state.login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issue(w, http.StatusOK, u)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.state.register(req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.issue(w, http.StatusCreated, u)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.state.me(userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.addresses(userID(r)))
}

func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var req model.Address
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	addr, err := h.state.addAddress(userID(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, addr)
}

// ---- catalog ----

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeData(w, http.StatusOK, h.state.listProducts(q.Get("search"), q.Get("category_id")))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.state.product(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.categories)
}

func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.branches)
}

func (h *Handler) ListDeliverySlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.state.listSlots(r.URL.Query().Get("branch_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, slots)
}

// ---- cart ----

type cartItemBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.getCart(userID(r)))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.state.addToCart(userID(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemBody
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := h.state.setCartQuantity(userID(r), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.removeFromCart(userID(r), chi.URLParam(r, "productID")))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.clearCart(userID(r)))
}

// ---- checkout ----

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req model.PreviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.state.preview(userID(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	key := r.Header.Get(constants.HeaderIdempotencyKey)
	res, err := h.state.confirm(userID(r), key, req)
	if err != nil {
		h.logger.Warn().Err(err).Str("idempotency_key", key).Msg("checkout confirm rejected")
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, res)
}

func (h *Handler) CreatePaymentToken(w http.ResponseWriter, r *http.Request) {
	var card model.Card
	if err := decodeBody(r, &card); err != nil {
		writeError(w, err)
		return
	}
	t, err := h.state.createPaymentToken(card)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, t)
}

// ---- orders ----

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.listOrders(userID(r)))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.state.getOrder(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.state.cancelOrder(userID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

// ---- ops ----

func (h *Handler) ListPickingOrders(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.listPicking(r.URL.Query().Get("status")))
}

func (h *Handler) UpdatePickStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PickedStatus model.PickedStatus `json:"pickedStatus"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	po, err := h.state.updatePick(chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), req.PickedStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, po)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	po, err := h.state.updateOrderStatus(chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, po)
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.listInventory(r.URL.Query().Get("branch_id")))
}

func (h *Handler) AdjustInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AvailableQuantity int `json:"availableQuantity"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.state.adjustInventory(chi.URLParam(r, "id"), req.AvailableQuantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state.stats())
}

// ---- admin ----

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.state.createProduct(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.state.updateProduct(chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.state.setProductActive(chi.URLParam(r, "id"), req.IsActive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}
