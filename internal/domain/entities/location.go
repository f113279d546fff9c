package entities

// School is a historic site shown on the locations page.
type School struct {
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
	VisitorInfo string  `json:"visitor_info"`
	Website     string  `json:"website,omitempty"`
}
