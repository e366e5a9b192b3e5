package service

import (
	"context"
	"net/url"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/apperror"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
)

// RoleChecker 由 session 實作
type RoleChecker interface {
	HasRole(ctx context.Context, roles ...constants.Role) bool
}

// requireRole 前端先擋，不送出請求；真正的權限仍由後端判斷
func requireRole(ctx context.Context, rc RoleChecker, roles ...constants.Role) error {
	if !rc.HasRole(ctx, roles...) {
		return apperror.New(apperror.ForbiddenCode, "")
	}
	return nil
}

// OpsService 門市揀貨與庫存，需要員工以上角色
type OpsService struct {
	api   client.API
	roles RoleChecker
}

func NewOpsService(api client.API, roles RoleChecker) *OpsService {
	return &OpsService{api: api, roles: roles}
}

func (s *OpsService) ListPickingOrders(ctx context.Context, status string) ([]model.PickingOrder, error) {
	if err := requireRole(ctx, s.roles, constants.StaffRoles...); err != nil {
		return nil, err
	}
	var out []model.PickingOrder
	if err := s.api.Get(ctx, "/ops/orders", &out, client.WithQuery(map[string]any{"status": emptyAsNil(status)})); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OpsService) UpdatePickStatus(ctx context.Context, orderID, itemID string, status model.PickedStatus) (*model.PickingOrder, error) {
	if err := requireRole(ctx, s.roles, constants.StaffRoles...); err != nil {
		return nil, err
	}
	out := &model.PickingOrder{}
	path := "/ops/orders/" + url.PathEscape(orderID) + "/items/" + url.PathEscape(itemID)
	if err := s.api.Patch(ctx, path, map[string]any{"pickedStatus": status}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OpsService) UpdateOrderStatus(ctx context.Context, orderID, status string) (*model.PickingOrder, error) {
	if err := requireRole(ctx, s.roles, constants.StaffRoles...); err != nil {
		return nil, err
	}
	out := &model.PickingOrder{}
	if err := s.api.Patch(ctx, "/ops/orders/"+url.PathEscape(orderID)+"/status", map[string]any{"status": status}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OpsService) ListInventory(ctx context.Context, branchID string) ([]model.InventoryRecord, error) {
	if err := requireRole(ctx, s.roles, constants.StaffRoles...); err != nil {
		return nil, err
	}
	var out []model.InventoryRecord
	if err := s.api.Get(ctx, "/ops/inventory", &out, client.WithQuery(map[string]any{"branchId": emptyAsNil(branchID)})); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OpsService) AdjustInventory(ctx context.Context, id string, availableQuantity int) (*model.InventoryRecord, error) {
	if err := requireRole(ctx, s.roles, constants.StaffRoles...); err != nil {
		return nil, err
	}
	if availableQuantity < 0 {
		return nil, apperror.New(apperror.ValidationErrorCode, "Available quantity cannot be negative.")
	}
	out := &model.InventoryRecord{}
	if err := s.api.Patch(ctx, "/ops/inventory/"+url.PathEscape(id), map[string]any{"availableQuantity": availableQuantity}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *OpsService) Stats(ctx context.Context) (*model.OpsStats, error) {
	if err := requireRole(ctx, s.roles, constants.StaffRoles...); err != nil {
		return nil, err
	}
	out := &model.OpsStats{}
	if err := s.api.Get(ctx, "/ops/stats", out); err != nil {
		return nil, err
	}
	return out, nil
}

func emptyAsNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
