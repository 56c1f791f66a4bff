package pricing

import (
	"strings"

	"github.com/example/ride-booking/internal/models"
)

// Catalog is the static vehicle-class reference table. Read-only for the
// lifetime of a session; a proposal's carType must resolve against it.
type Catalog struct {
	classes []models.VehicleClass
}

// DefaultCatalog returns the stock vehicle options.
func DefaultCatalog() *Catalog {
	return &Catalog{classes: []models.VehicleClass{
		{ID: 1, Name: "Economy", SeatCapacity: 4, PerKmRate: 12, Description: "Affordable, compact rides", ImageRef: "/economy.png"},
		{ID: 2, Name: "Comfort", SeatCapacity: 4, PerKmRate: 18, Description: "Newer cars with extra legroom", ImageRef: "/comfort.png"},
		{ID: 3, Name: "XL", SeatCapacity: 6, PerKmRate: 24, Description: "Vans and SUVs for groups", ImageRef: "/xl.png"},
		{ID: 4, Name: "Premium", SeatCapacity: 4, PerKmRate: 32, Description: "Luxury rides with top drivers", ImageRef: "/premium.png"},
	}}
}

// NewCatalog builds a catalog from explicit reference data.
func NewCatalog(classes []models.VehicleClass) *Catalog {
	return &Catalog{classes: classes}
}

// Classes returns the reference table in display order.
func (c *Catalog) Classes() []models.VehicleClass {
	out := make([]models.VehicleClass, len(c.classes))
	copy(out, c.classes)
	return out
}

// ByName resolves a class by its display name, case-insensitively.
func (c *Catalog) ByName(name string) (models.VehicleClass, bool) {
	for _, vc := range c.classes {
		if strings.EqualFold(vc.Name, name) {
			return vc, true
		}
	}
	return models.VehicleClass{}, false
}
