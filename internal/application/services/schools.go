package services

import "github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"

var schools = []entities.School{
	{
		Slug:        "central-high",
		Name:        "Little Rock Central High School",
		Address:     "1500 S Park St, Little Rock, AR 72202",
		Latitude:    34.7367,
		Longitude:   -92.2980,
		Description: "National Historic Site and still an active high school. In 1957 nine Black students enrolled here under federal protection.",
		VisitorInfo: "Visitor center open 9 AM to 4:30 PM, free admission. Guided tours need a reservation. Phone (501) 374-1957.",
		Website:     "https://www.nps.gov/chsc/",
	},
	{
		Slug:        "dunbar",
		Name:        "Historic Dunbar High School",
		Address:     "1100 Wright Ave, Little Rock, AR 72202",
		Latitude:    34.7399,
		Longitude:   -92.2867,
		Description: "Now Dunbar Magnet Middle School. A model of educational excellence for Little Rock's African American community and a stop on the African American Heritage Trail.",
		VisitorInfo: "Historical markers on site. Photography allowed outside the building; respect the active school zone during school hours.",
	},
}

// Schools lists the historic school sites shown on the locations page.
func Schools() []entities.School {
	out := make([]entities.School, len(schools))
	copy(out, schools)
	return out
}

// SchoolBySlug finds a site by its URL slug.
func SchoolBySlug(slug string) (entities.School, bool) {
	for _, s := range schools {
		if s.Slug == slug {
			return s, true
		}
	}
	return entities.School{}, false
}
