package models

// Point is a geographic coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a point of interest returned by a places-search provider.
type Place struct {
	ID    string
	Name  string
	Point *Point // nil when the provider did not return coordinates
}

// NearbyPlace is a summary entry: a place and the resolved distance to it.
type NearbyPlace struct {
	Name           string `json:"name"`
	DistanceMeters int    `json:"distance_meters"`
}

// Category is one infrastructure category searched around an address.
type Category struct {
	Label string // Human-readable header, used in prompts
	Query string // Search query sent to the provider
}

// DefaultCategories is the fixed set of categories searched for every address.
var DefaultCategories = []Category{
	{Label: "Супермаркеты", Query: "супермаркет"},
	{Label: "Торговые центры", Query: "тц"},
	{Label: "Школы", Query: "школа"},
	{Label: "Станции метро", Query: "метро"},
	{Label: "Спортзалы и фитнес-клубы", Query: "спортзал, фитнес"},
	{Label: "Рестораны и кафе", Query: "ресторан, кафе"},
	{Label: "Парки", Query: "парк"},
}

// CategoryPlaces holds the places of one category ordered by ascending distance.
type CategoryPlaces struct {
	Category string        `json:"category"`
	Places   []NearbyPlace `json:"places"`
}

// InfrastructureSummary is a categorized, distance-sorted list of places near an address.
// Categories without places are never present.
type InfrastructureSummary []CategoryPlaces

// IsEmpty reports whether the summary has no categories.
func (s InfrastructureSummary) IsEmpty() bool {
	return len(s) == 0
}

// Places returns the entries of the given category, or nil if it is absent.
func (s InfrastructureSummary) Places(category string) []NearbyPlace {
	for _, c := range s {
		if c.Category == category {
			return c.Places
		}
	}
	return nil
}

// Clone returns a deep copy of the summary.
func (s InfrastructureSummary) Clone() InfrastructureSummary {
	if s == nil {
		return nil
	}
	out := make(InfrastructureSummary, len(s))
	for i, c := range s {
		places := make([]NearbyPlace, len(c.Places))
		copy(places, c.Places)
		out[i] = CategoryPlaces{Category: c.Category, Places: places}
	}
	return out
}
