package dto

// MapQuery is bound from the query string of GET /api/map/stations.
type MapQuery struct {
	Product string   `query:"product" validate:"omitempty,fuel_product"`
	MinLat  *float64 `query:"min_lat" validate:"omitempty,latitude"`
	MinLng  *float64 `query:"min_lng" validate:"omitempty,longitude"`
	MaxLat  *float64 `query:"max_lat" validate:"omitempty,latitude"`
	MaxLng  *float64 `query:"max_lng" validate:"omitempty,longitude"`
}

// HasBounds reports whether a full bounding box was given.
func (q MapQuery) HasBounds() bool {
	return q.MinLat != nil && q.MinLng != nil && q.MaxLat != nil && q.MaxLng != nil
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string            `json:"type"`
	Geometry   Geometry          `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Geometry is a GeoJSON point, coordinates in [lng, lat] order.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type MapPriceDTO struct {
	Product    string   `json:"product"`
	Price      MoneyDTO `json:"price"`
	ObservedAt string   `json:"observed_at"`
}

type FeatureProperties struct {
	ID           uint64        `json:"id"`
	Name         string        `json:"name"`
	Brand        *string       `json:"brand"`
	City         *string       `json:"city"`
	IsCompetitor bool          `json:"is_competitor"`
	Prices       []MapPriceDTO `json:"prices"`
}
