package service

import (
	"context"
	"net/url"

	"github.com/RoyceAzure/lab/freshmarket/internal/api/client"
	"github.com/RoyceAzure/lab/freshmarket/internal/constants"
	"github.com/RoyceAzure/lab/freshmarket/internal/model"
)

// AdminService 商品管理，只有 admin 可用，每次寫入都清掉 catalog cache
type AdminService struct {
	api     client.API
	roles   RoleChecker
	catalog *CatalogService
}

func NewAdminService(api client.API, roles RoleChecker, catalog *CatalogService) *AdminService {
	return &AdminService{api: api, roles: roles, catalog: catalog}
}

func (s *AdminService) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if err := requireRole(ctx, s.roles, constants.RoleAdmin); err != nil {
		return nil, err
	}
	out := &model.Product{}
	if err := s.api.Post(ctx, "/admin/products", in, out); err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx)
	return out, nil
}

func (s *AdminService) UpdateProduct(ctx context.Context, id string, in model.ProductInput) (*model.Product, error) {
	if err := requireRole(ctx, s.roles, constants.RoleAdmin); err != nil {
		return nil, err
	}
	out := &model.Product{}
	if err := s.api.Patch(ctx, "/admin/products/"+url.PathEscape(id), in, out); err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx)
	return out, nil
}

func (s *AdminService) SetProductActive(ctx context.Context, id string, active bool) (*model.Product, error) {
	if err := requireRole(ctx, s.roles, constants.RoleAdmin); err != nil {
		return nil, err
	}
	out := &model.Product{}
	if err := s.api.Patch(ctx, "/admin/products/"+url.PathEscape(id)+"/active", map[string]any{"isActive": active}, out); err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx)
	return out, nil
}
