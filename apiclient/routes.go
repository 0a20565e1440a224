package apiclient

// Admin API paths, relative to the configured base URL.
const (
	// Auth
	RouteAuthLogin   = "/auth/login"
	RouteAuthMe      = "/auth/me"
	RouteAuthRefresh = "/auth/refresh-token"

	// Products
	RouteProducts                = "/products"
	RouteProductsByCategory      = "/products/category"
	RouteProductsDeleteMultiple  = "/products/delete-multiple"
	RouteProductsUploadMedia     = "/products/upload-media"
	RouteProductsByCategoryNames = "/products/create-by-category-names"

	// Categories
	RouteCategory = "/category"

	// Accounts
	RouteUser          = "/user"
	RouteUserWithRoles = "/user/users"

	// Orders
	RouteOrders = "/orders"
)
