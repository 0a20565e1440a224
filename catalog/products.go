package catalog

import (
	"context"
	"io"
	"strings"

	"github.com/jrsteele09/go-shop-admin/apiclient"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/pkg/errors"
)

const copySuffix = " (Copy)"

type Product struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	Discount      float64  `json:"discount"`
	Quantity      int      `json:"quantity"`
	Sold          int      `json:"sold,omitempty"`
	IsFeatured    bool     `json:"is_featured"`
	ImageURL      string   `json:"image_url,omitempty"`
	CategoryIDs   []string `json:"category_ids,omitempty"`
	CategoryNames []string `json:"category_names,omitempty"`
}

// Image is a product picture to upload.
type Image struct {
	Name    string
	Content io.Reader
}

type uploadResult struct {
	ImageURL string `json:"image_url"`
}

type deleteManyRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// Products talks to the /products endpoints.
type Products struct {
	api API
}

func NewProducts(api API) *Products {
	return &Products{api: api}
}

// List returns one page of products whose name matches search.
func (p *Products) List(ctx context.Context, limit, page int, search string) (apiclient.Page[Product], error) {
	var result apiclient.Page[Product]
	if err := p.api.Get(ctx, apiclient.RouteProducts, apiclient.PageQuery(limit, page, search), &result); err != nil {
		return result, errors.Wrap(err, "[Products.List]")
	}
	return result, nil
}

func (p *Products) ListByCategory(ctx context.Context, categoryID string, limit, page int) (apiclient.Page[Product], error) {
	var result apiclient.Page[Product]
	if categoryID == "" {
		return result, errors.Wrap(apperrors.ErrInvalidRequest, "[Products.ListByCategory] category id is required")
	}
	query := apiclient.PageQuery(limit, page, "")
	query.Del("SearchText")
	if err := p.api.Get(ctx, itemPath(apiclient.RouteProductsByCategory, categoryID), query, &result); err != nil {
		return result, errors.Wrap(err, "[Products.ListByCategory]")
	}
	return result, nil
}

func (p *Products) Get(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := p.api.Get(ctx, itemPath(apiclient.RouteProducts, id), nil, &product); err != nil {
		return nil, errors.Wrap(err, "[Products.Get]")
	}
	return &product, nil
}

// Create adds product and returns it with its server assigned id.
func (p *Products) Create(ctx context.Context, product Product) (*Product, error) {
	product.ID = ""
	var created Product
	if err := p.api.Post(ctx, apiclient.RouteProducts, product, &created); err != nil {
		return nil, errors.Wrap(err, "[Products.Create]")
	}
	return &created, nil
}

// CreateByCategoryNames adds product, linking categories by CategoryNames instead of ids.
func (p *Products) CreateByCategoryNames(ctx context.Context, product Product) (*Product, error) {
	product.ID = ""
	var created Product
	if err := p.api.Post(ctx, apiclient.RouteProductsByCategoryNames, product, &created); err != nil {
		return nil, errors.Wrap(err, "[Products.CreateByCategoryNames]")
	}
	return &created, nil
}

// Duplicate creates a copy of product named "<name> (Copy)".
func (p *Products) Duplicate(ctx context.Context, product Product) (*Product, error) {
	product.Name = DuplicateName(product.Name)
	created, err := p.CreateByCategoryNames(ctx, product)
	if err != nil {
		return nil, errors.Wrap(err, "[Products.Duplicate]")
	}
	return created, nil
}

func (p *Products) Update(ctx context.Context, product Product) (*Product, error) {
	if product.ID == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidRequest, "[Products.Update] product id is required")
	}
	var updated Product
	if err := p.api.Put(ctx, itemPath(apiclient.RouteProducts, product.ID), product, &updated); err != nil {
		return nil, errors.Wrap(err, "[Products.Update]")
	}
	return &updated, nil
}

// Save creates product when it has no id and updates it otherwise, then uploads image if given.
func (p *Products) Save(ctx context.Context, product Product, image *Image) (*Product, error) {
	var (
		saved *Product
		err   error
	)
	if product.ID == "" {
		saved, err = p.Create(ctx, product)
	} else {
		saved, err = p.Update(ctx, product)
	}
	if err != nil {
		return nil, err
	}
	if image == nil || saved.ID == "" {
		return saved, nil
	}

	imageURL, err := p.UploadImage(ctx, saved.ID, *image)
	if err != nil {
		return saved, errors.Wrap(err, "[Products.Save]")
	}
	saved.ImageURL = imageURL
	return saved, nil
}

func (p *Products) Delete(ctx context.Context, id string) error {
	if err := p.api.Delete(ctx, itemPath(apiclient.RouteProducts, id), nil, nil); err != nil {
		return errors.Wrap(err, "[Products.Delete]")
	}
	return nil
}

// DeleteMany removes every product in ids with a single request.
func (p *Products) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.Wrap(apperrors.ErrInvalidRequest, "[Products.DeleteMany] no products selected")
	}
	if err := p.api.Delete(ctx, apiclient.RouteProductsDeleteMultiple, deleteManyRequest{ProductIDs: ids}, nil); err != nil {
		return errors.Wrap(err, "[Products.DeleteMany]")
	}
	return nil
}

// UploadImage sends image as the product's picture and returns the stored image path.
func (p *Products) UploadImage(ctx context.Context, productID string, image Image) (string, error) {
	var result uploadResult
	err := p.api.Upload(ctx, apiclient.RouteProductsUploadMedia,
		map[string]string{"ProductId": productID},
		apiclient.File{Field: "File", Name: image.Name, Content: image.Content},
		&result,
	)
	if err != nil {
		return "", errors.Wrap(err, "[Products.UploadImage]")
	}
	return result.ImageURL, nil
}

func DuplicateName(name string) string {
	return name + copySuffix
}

// ImageURL joins the media server, bucket and stored image path.
// Paths that are already absolute URLs are returned unchanged.
func ImageURL(mediaBase, bucket, imagePath string) string {
	if imagePath == "" {
		return ""
	}
	if strings.HasPrefix(imagePath, "http://") || strings.HasPrefix(imagePath, "https://") {
		return imagePath
	}
	parts := make([]string, 0, 3)
	for _, part := range []string{strings.TrimRight(mediaBase, "/"), strings.Trim(bucket, "/"), strings.TrimLeft(imagePath, "/")} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/")
}
