package catalog

import (
	"context"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	"github.com/pkg/errors"
)

// Category is a node of the category tree as /category returns it.
type Category struct {
	ID            string     `json:"id,omitempty"`
	Name          string     `json:"name"`
	ParentID      *string    `json:"parent_id"`
	SubCategories []Category `json:"sub_categories,omitempty"`
}

// FlatCategory is one row of a flattened tree.
type FlatCategory struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type categoryRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// Categories talks to the /category endpoints.
type Categories struct {
	api API
}

func NewCategories(api API) *Categories {
	return &Categories{api: api}
}

// List returns the whole category tree.
func (c *Categories) List(ctx context.Context) ([]Category, error) {
	var tree []Category
	if err := c.api.Get(ctx, apiclient.RouteCategory, nil, &tree); err != nil {
		return nil, errors.Wrap(err, "[Categories.List]")
	}
	return tree, nil
}

// Create adds a category; an empty parentID makes it a root.
func (c *Categories) Create(ctx context.Context, name, parentID string) (*Category, error) {
	var created Category
	if err := c.api.Post(ctx, apiclient.RouteCategory, newCategoryRequest(name, parentID), &created); err != nil {
		return nil, errors.Wrap(err, "[Categories.Create]")
	}
	return &created, nil
}

func (c *Categories) Update(ctx context.Context, id, name, parentID string) (*Category, error) {
	var updated Category
	if err := c.api.Put(ctx, itemPath(apiclient.RouteCategory, id), newCategoryRequest(name, parentID), &updated); err != nil {
		return nil, errors.Wrap(err, "[Categories.Update]")
	}
	return &updated, nil
}

func (c *Categories) Delete(ctx context.Context, id string) error {
	if err := c.api.Delete(ctx, itemPath(apiclient.RouteCategory, id), nil, nil); err != nil {
		return errors.Wrap(err, "[Categories.Delete]")
	}
	return nil
}

func newCategoryRequest(name, parentID string) categoryRequest {
	req := categoryRequest{Name: name}
	if parentID != "" {
		req.ParentID = &parentID
	}
	return req
}

// Flatten lists every node of tree depth first, parents before their children.
func Flatten(tree []Category) []FlatCategory {
	var flat []FlatCategory
	for _, node := range tree {
		flat = append(flat, FlatCategory{ID: node.ID, Name: node.Name, ParentID: node.ParentID})
		flat = append(flat, Flatten(node.SubCategories)...)
	}
	return flat
}

// NameIndex maps category id to name.
func NameIndex(rows []FlatCategory) map[string]string {
	index := make(map[string]string, len(rows))
	for _, row := range rows {
		index[row.ID] = row.Name
	}
	return index
}
