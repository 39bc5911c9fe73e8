package catalog

import "strings"

// StaticDirectory is an immutable in-memory Directory built once at
// startup. All maps are read-only after construction.
type StaticDirectory struct {
	categories    []Category
	subcategories []Subcategory
	series        []Series
	products      []Product
	packages      []Package

	categoryByID    map[string]Category
	subcategoryByID map[string]Subcategory
	seriesByID      map[string]Series
	productByID     map[string]Product
	packageByID     map[string]Package
}

// NewStaticDirectory indexes the given catalog data.
func NewStaticDirectory(categories []Category, subcategories []Subcategory, series []Series, products []Product, packages []Package) *StaticDirectory {
	d := &StaticDirectory{
		categories:      categories,
		subcategories:   subcategories,
		series:          series,
		products:        products,
		packages:        packages,
		categoryByID:    make(map[string]Category, len(categories)),
		subcategoryByID: make(map[string]Subcategory, len(subcategories)),
		seriesByID:      make(map[string]Series, len(series)),
		productByID:     make(map[string]Product, len(products)),
		packageByID:     make(map[string]Package, len(packages)),
	}
	for _, c := range categories {
		d.categoryByID[c.ID] = c
	}
	for _, s := range subcategories {
		d.subcategoryByID[s.ID] = s
	}
	for _, s := range series {
		d.seriesByID[s.ID] = s
	}
	for _, p := range products {
		d.productByID[p.ID] = p
	}
	for _, p := range packages {
		d.packageByID[p.ID] = p
	}
	return d
}

func (d *StaticDirectory) Categories() []Category {
	out := make([]Category, len(d.categories))
	copy(out, d.categories)
	return out
}

func (d *StaticDirectory) CategoryByID(id string) (Category, bool) {
	c, ok := d.categoryByID[id]
	return c, ok
}

func (d *StaticDirectory) CategoryByName(name string) (Category, bool) {
	for _, c := range d.categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Category{}, false
}

func (d *StaticDirectory) Subcategories(categoryID string) []Subcategory {
	var out []Subcategory
	for _, s := range d.subcategories {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out
}

func (d *StaticDirectory) SubcategoryByID(id string) (Subcategory, bool) {
	s, ok := d.subcategoryByID[id]
	return s, ok
}

func (d *StaticDirectory) SubcategoryByName(categoryID, name string) (Subcategory, bool) {
	for _, s := range d.subcategories {
		if s.CategoryID == categoryID && strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Subcategory{}, false
}

func (d *StaticDirectory) SeriesFor(subcategoryID string) []Series {
	var out []Series
	for _, s := range d.series {
		if s.SubcategoryID == subcategoryID {
			out = append(out, s)
		}
	}
	return out
}

func (d *StaticDirectory) SeriesByID(id string) (Series, bool) {
	s, ok := d.seriesByID[id]
	return s, ok
}

func (d *StaticDirectory) Products(seriesID string) []Product {
	var out []Product
	for _, p := range d.products {
		if p.SeriesID == seriesID {
			out = append(out, p)
		}
	}
	return out
}

func (d *StaticDirectory) ProductByID(id string) (Product, bool) {
	p, ok := d.productByID[id]
	return p, ok
}

func (d *StaticDirectory) Packages(productID string) []Package {
	var out []Package
	for _, p := range d.packages {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out
}

func (d *StaticDirectory) PackageByID(id string) (Package, bool) {
	p, ok := d.packageByID[id]
	return p, ok
}

// Default returns the built-in reference catalog used when no external
// catalog source is configured.
func Default() *StaticDirectory {
	return NewStaticDirectory(
		[]Category{
			{ID: "1", Name: "Agriculture"},
			{ID: "2", Name: "Retail"},
			{ID: "3", Name: "Transport"},
			{ID: "5", Name: "Farming Inputs"},
		},
		[]Subcategory{
			{ID: "11", CategoryID: "1", Name: "Irrigation"},
			{ID: "12", CategoryID: "1", Name: "Livestock"},
			{ID: "21", CategoryID: "2", Name: "Grocery Stock"},
			{ID: "31", CategoryID: "3", Name: "Spares"},
			{ID: "51", CategoryID: "5", Name: "Maize"},
			{ID: "52", CategoryID: "5", Name: "Fertilizer"},
		},
		[]Series{
			{ID: "111", SubcategoryID: "11", Name: "Drip Kits"},
			{ID: "511", SubcategoryID: "51", Name: "Seed Varieties"},
			{ID: "521", SubcategoryID: "52", Name: "Compound Blends"},
		},
		[]Product{
			{ID: "1111", SeriesID: "111", Name: "Drip Kit 0.5ha", Price: 450},
			{ID: "5111", SeriesID: "511", Name: "SC419 10kg", Price: 38},
			{ID: "5112", SeriesID: "511", Name: "SC649 25kg", Price: 85},
			{ID: "5211", SeriesID: "521", Name: "Compound D 50kg", Price: 42},
		},
		[]Package{
			{ID: "p1", ProductID: "5111", Name: "3 months", Months: 3, Deposit: 10},
			{ID: "p2", ProductID: "5111", Name: "6 months", Months: 6, Deposit: 5},
			{ID: "p3", ProductID: "5211", Name: "6 months", Months: 6, Deposit: 8},
			{ID: "p4", ProductID: "1111", Name: "12 months", Months: 12, Deposit: 50},
		},
	)
}
