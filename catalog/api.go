package catalog

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-shop-admin/apiclient"
)

// API is the part of apiclient.Client the catalog services need.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, body, out any) error
	Upload(ctx context.Context, path string, fields map[string]string, file apiclient.File, out any) error
}

var _ API = (*apiclient.Client)(nil)

func itemPath(route, id string) string {
	return route + "/" + url.PathEscape(id)
}
