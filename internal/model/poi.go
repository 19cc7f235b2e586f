package model

// Category is the closed set of point-of-interest categories. Adding a
// category is a compile-time decision: the maplayer styling switch must be
// extended to cover it.
type Category string

const (
	CategoryUniversity Category = "university"
	CategoryHealth     Category = "health"
	CategoryHousing    Category = "housing"
	CategoryFood       Category = "food"
	CategoryTransport  Category = "transport"
	CategoryOther      Category = "other"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryUniversity,
		CategoryHealth,
		CategoryHousing,
		CategoryFood,
		CategoryTransport,
		CategoryOther,
	}
}

// Label returns the Spanish display label used in marker popups.
func (c Category) Label() string {
	switch c {
	case CategoryUniversity:
		return "Sede universitaria"
	case CategoryHealth:
		return "Salud"
	case CategoryHousing:
		return "Alojamiento"
	case CategoryFood:
		return "Gastronomía"
	case CategoryTransport:
		return "Transporte"
	case CategoryOther:
		return "Otros"
	}
	return string(c)
}

// PointOfInterest is one renderable map marker. Built fresh on every
// aggregation pass from current source rows; never persisted by this core.
type PointOfInterest struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Coordinate  Coordinate `json:"coordinate"`
	Category    Category   `json:"category"`
}
