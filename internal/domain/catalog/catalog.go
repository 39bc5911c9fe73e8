// Package catalog holds the reference product catalog browsed by the
// conversational flow: category → subcategory → series → product →
// package. The catalog is reference data, loaded once at startup into
// read-only lookup structures.
package catalog

// Category is a top-level business category.
type Category struct {
	ID   string
	Name string
}

// Subcategory belongs to a category.
type Subcategory struct {
	ID         string
	CategoryID string
	Name       string
}

// Series groups related products within a subcategory.
type Series struct {
	ID            string
	SubcategoryID string
	Name          string
}

// Product is a sellable item within a series.
type Product struct {
	ID       string
	SeriesID string
	Name     string
	Price    float64
}

// Package is a purchase option for a product.
type Package struct {
	ID        string
	ProductID string
	Name      string
	Months    int
	Deposit   float64
}

// Directory resolves catalog lookups. Implementations must be safe for
// concurrent readers.
type Directory interface {
	Categories() []Category
	CategoryByID(id string) (Category, bool)
	CategoryByName(name string) (Category, bool)

	Subcategories(categoryID string) []Subcategory
	SubcategoryByID(id string) (Subcategory, bool)
	SubcategoryByName(categoryID, name string) (Subcategory, bool)

	SeriesFor(subcategoryID string) []Series
	SeriesByID(id string) (Series, bool)

	Products(seriesID string) []Product
	ProductByID(id string) (Product, bool)

	Packages(productID string) []Package
	PackageByID(id string) (Package, bool)
}
