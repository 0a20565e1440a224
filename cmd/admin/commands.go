package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-shop-admin/catalog"
	"github.com/jrsteele09/go-shop-admin/internal/app"
	"github.com/jrsteele09/go-shop-admin/internal/config"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/jrsteele09/go-shop-admin/listquery"
	"github.com/jrsteele09/go-shop-admin/orders"
	"github.com/pkg/errors"
)

type command struct {
	usage  string
	public bool // runs without a signed in user
	run    func(ctx context.Context, a *app.App, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"login":           {usage: "-email EMAIL [-password PASSWORD]", public: true, run: loginCmd},
		"logout":          {usage: "", public: true, run: logoutCmd},
		"me":              {usage: "", run: meCmd},
		"products":        {usage: "[-url '/products?Page=0&Limit=10&SearchText='] [-page N] [-limit N] [-search TEXT] [-category ID]", run: productsCmd},
		"duplicate":       {usage: "PRODUCT_ID", run: duplicateCmd},
		"delete-products": {usage: "PRODUCT_ID...", run: deleteProductsCmd},
		"upload":          {usage: "-product ID -file PATH", run: uploadCmd},
		"categories":      {usage: "", run: categoriesCmd},
		"category-add":    {usage: "-name NAME [-parent ID]", run: categoryAddCmd},
		"category-rename": {usage: "-id ID -name NAME [-parent ID]", run: categoryRenameCmd},
		"category-delete": {usage: "CATEGORY_ID", run: categoryDeleteCmd},
		"users":           {usage: "[-url '/user?Page=0&Limit=10&SearchText='] [-shoppers]", run: usersCmd},
		"order":           {usage: "-email EMAIL [-name NAME] [-phone PHONE] [-note NOTE] -item PRODUCT_ID[:QTY]...", run: orderCmd},
	}
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "usage: admin COMMAND [flags]")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].usage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: admin %s %s\n", name, commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

func loginCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", config.GetEnv("ADMIN_PASSWORD", ""), "account password (default $ADMIN_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		fs.Usage()
		return errors.Wrap(apperrors.ErrInvalidRequest, "email and password are required")
	}

	if err := a.Session.LoginWithCredentials(ctx, *email, *password); err != nil {
		return err
	}
	user, err := a.Authenticate(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s\n", user.DisplayName())
	return nil
}

func logoutCmd(ctx context.Context, a *app.App, _ []string) error {
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func meCmd(_ context.Context, a *app.App, _ []string) error {
	user := a.Session.User()
	w := newTable()
	fmt.Fprintf(w, "ID\t%s\n", user.ID)
	fmt.Fprintf(w, "Name\t%s\n", user.DisplayName())
	fmt.Fprintf(w, "Email\t%s\n", user.Email)
	fmt.Fprintf(w, "Roles\t%s\n", joinRoles(user.Roles))
	return w.Flush()
}

// listFlags binds the deep link and the explicit overrides shared by list commands.
type listFlags struct {
	url    *string
	page   *int
	limit  *int
	search *string
}

func bindListFlags(fs *flag.FlagSet, defaultURL string) listFlags {
	return listFlags{
		url:    fs.String("url", defaultURL, "list location, e.g. "+defaultURL+"?Page=2&Limit=20&SearchText=shoe"),
		page:   fs.Int("page", 0, "page index, from 0"),
		limit:  fs.Int("limit", 0, "page size"),
		search: fs.String("search", "", "search text"),
	}
}

// resolve builds the list state from the deep link, then applies any flag given explicitly.
func (lf listFlags) resolve(a *app.App, fs *flag.FlagSet) (*listquery.Location, *listquery.Synchronizer, error) {
	loc, q, err := a.ListQuery(*lf.url)
	if err != nil {
		return nil, nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "page":
			q.SetPage(*lf.page)
		case "limit":
			q.SetLimit(*lf.limit)
		case "search":
			q.SetSearchText(*lf.search)
			q.SetPage(0)
		}
	})
	return loc, q, nil
}

func productsCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("products")
	lf := bindListFlags(fs, "/products")
	category := fs.String("category", "", "only products in this category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	loc, q, err := lf.resolve(a, fs)
	if err != nil {
		return err
	}

	var page struct {
		data  []catalog.Product
		total int
	}
	if *category != "" {
		res, err := a.Products.ListByCategory(ctx, *category, q.PageSize(), q.Page())
		if err != nil {
			return err
		}
		page.data, page.total = res.Data, res.RowCount()
	} else {
		res, err := a.Products.List(ctx, q.PageSize(), q.Page(), q.SearchText())
		if err != nil {
			return err
		}
		page.data, page.total = res.Data, res.RowCount()
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tDISCOUNT\tQTY\tSOLD\tFEATURED\tIMAGE")
	for _, p := range page.data {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%d\t%d\t%t\t%s\n",
			p.ID, p.Name, p.Price, p.Discount, p.Quantity, p.Sold, p.IsFeatured, a.ImageURL(p.ImageURL))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPageFooter(q.PaginationModel(), len(page.data), page.total, loc)
	return nil
}

func duplicateCmd(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(apperrors.ErrInvalidRequest, "usage: admin duplicate "+commands["duplicate"].usage)
	}
	original, err := a.Products.Get(ctx, args[0])
	if err != nil {
		return err
	}
	copied, err := a.Products.Duplicate(ctx, *original)
	if err != nil {
		return err
	}
	a.Reporter.Success("Duplicate product successfully")
	fmt.Printf("%s\t%s\n", copied.ID, copied.Name)
	return nil
}

func deleteProductsCmd(ctx context.Context, a *app.App, args []string) error {
	switch len(args) {
	case 0:
		a.Reporter.Warn("No products selected to delete.")
		return errors.Wrap(apperrors.ErrInvalidRequest, "no product ids given")
	case 1:
		if err := a.Products.Delete(ctx, args[0]); err != nil {
			return err
		}
	default:
		if err := a.Products.DeleteMany(ctx, args); err != nil {
			return err
		}
	}
	a.Reporter.Success(fmt.Sprintf("Deleted %d product(s)", len(args)))
	return nil
}

func uploadCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("upload")
	productID := fs.String("product", "", "product id")
	path := fs.String("file", "", "image file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *productID == "" || *path == "" {
		fs.Usage()
		return errors.Wrap(apperrors.ErrInvalidRequest, "product and file are required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	imagePath, err := a.Products.UploadImage(ctx, *productID, catalog.Image{Name: filepath.Base(*path), Content: f})
	if err != nil {
		return err
	}
	fmt.Println(a.ImageURL(imagePath))
	return nil
}

func categoriesCmd(ctx context.Context, a *app.App, _ []string) error {
	tree, err := a.Categories.List(ctx)
	if err != nil {
		return err
	}
	rows := catalog.Flatten(tree)
	names := catalog.NameIndex(rows)

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tPARENT")
	for _, row := range rows {
		parent := ""
		if row.ParentID != nil {
			parent = names[*row.ParentID]
			if parent == "" {
				parent = *row.ParentID
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.ID, row.Name, parent)
	}
	return w.Flush()
}

func categoryAddCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("category-add")
	name := fs.String("name", "", "category name")
	parent := fs.String("parent", "", "parent category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		fs.Usage()
		return errors.Wrap(apperrors.ErrInvalidRequest, "name is required")
	}
	created, err := a.Categories.Create(ctx, *name, *parent)
	if err != nil {
		return err
	}
	a.Reporter.Success("Add new category successfully!")
	fmt.Println(created.ID)
	return nil
}

func categoryRenameCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("category-rename")
	id := fs.String("id", "", "category id")
	name := fs.String("name", "", "new name")
	parent := fs.String("parent", "", "parent category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *name == "" {
		fs.Usage()
		return errors.Wrap(apperrors.ErrInvalidRequest, "id and name are required")
	}
	if _, err := a.Categories.Update(ctx, *id, *name, *parent); err != nil {
		return err
	}
	a.Reporter.Success("Update category successfully!")
	return nil
}

func categoryDeleteCmd(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.Wrap(apperrors.ErrInvalidRequest, "usage: admin category-delete "+commands["category-delete"].usage)
	}
	if err := a.Categories.Delete(ctx, args[0]); err != nil {
		return err
	}
	a.Reporter.Success("Delete category successfully!")
	return nil
}

func usersCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("users")
	lf := bindListFlags(fs, "/user")
	shoppers := fs.Bool("shoppers", false, "only accounts with the user role, unpaginated")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tACTIVE\tROLES")
	if *shoppers {
		found, err := a.Users.ListWithUserRole(ctx)
		if err != nil {
			return err
		}
		for _, u := range found {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.DisplayName(), u.Email, u.PhoneNumber, u.IsActive, joinRoles(u.Roles))
		}
		return w.Flush()
	}

	loc, q, err := lf.resolve(a, fs)
	if err != nil {
		return err
	}
	page, err := a.Users.List(ctx, q.PageSize(), q.Page(), q.SearchText())
	if err != nil {
		return err
	}
	for _, u := range page.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n", u.ID, u.DisplayName(), u.Email, u.PhoneNumber, u.IsActive, joinRoles(u.Roles))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	printPageFooter(q.PaginationModel(), len(page.Data), page.RowCount(), loc)
	return nil
}

// itemFlag collects repeated -item PRODUCT_ID[:QTY] values.
type itemFlag []orders.Detail

func (f *itemFlag) String() string {
	parts := make([]string, 0, len(*f))
	for _, d := range *f {
		parts = append(parts, d.ProductID+":"+strconv.Itoa(d.Quantity))
	}
	return strings.Join(parts, ",")
}

func (f *itemFlag) Set(value string) error {
	id, qty, found := strings.Cut(value, ":")
	d := orders.Detail{ProductID: id}
	if found {
		n, err := strconv.Atoi(qty)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", qty)
		}
		d.Quantity = n
	}
	*f = append(*f, d)
	return nil
}

func orderCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("order")
	var items itemFlag
	email := fs.String("email", "", "customer email")
	name := fs.String("name", "", "customer name")
	phone := fs.String("phone", "", "customer phone number")
	note := fs.String("note", "", "order note")
	fs.Var(&items, "item", "PRODUCT_ID[:QTY], repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errors.Wrap(apperrors.ErrInvalidRequest, "email is required")
	}

	details := make([]orders.Detail, 0, len(items))
	for _, item := range items {
		p, err := a.Products.Get(ctx, item.ProductID)
		if err != nil {
			return err
		}
		item.ProductName, item.Price = p.Name, p.Price
		details = append(details, item)
	}

	order, err := orders.NewOrder(orders.Customer{Email: *email, UserName: *name, PhoneNumber: *phone}, *note, details)
	if err != nil {
		return err
	}
	if err := a.Orders.Create(ctx, order, nil); err != nil {
		return err
	}
	a.Reporter.Success("Order created successfully!")
	fmt.Printf("Total %.2f\n", order.TotalAmount)
	return nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printPageFooter(model *listquery.Model, shown, total int, loc *listquery.Location) {
	fmt.Printf("\npage %d, %d of %d rows (limit %d)\n%s\n", model.Page, shown, total, model.PageSize, loc)
}

func joinRoles[T ~string](roles []T) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
