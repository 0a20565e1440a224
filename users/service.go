package users

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	"github.com/pkg/errors"
)

// API is the part of apiclient.Client the accounts service needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
}

var _ API = (*apiclient.Client)(nil)

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

// List returns one page of accounts matching search.
func (s *Service) List(ctx context.Context, limit, page int, search string) (apiclient.Page[User], error) {
	var result apiclient.Page[User]
	if err := s.api.Get(ctx, apiclient.RouteUser, apiclient.PageQuery(limit, page, search), &result); err != nil {
		return result, errors.Wrap(err, "[users.List]")
	}
	return result, nil
}

// ListWithUserRole returns every account holding the "user" role, unpaginated.
func (s *Service) ListWithUserRole(ctx context.Context) ([]User, error) {
	var result []User
	if err := s.api.Get(ctx, apiclient.RouteUserWithRoles, nil, &result); err != nil {
		return nil, errors.Wrap(err, "[users.ListWithUserRole]")
	}
	return result, nil
}
