package enums

// AdminResource enumerates the back-office content collections proxied to the
// commerce backend.
type AdminResource string

const (
	ResourceGymClasses AdminResource = "gym-classes"
	ResourceTrainers   AdminResource = "trainers"
	ResourceSeries     AdminResource = "series"
	ResourceThemes     AdminResource = "themes"
	ResourceBlogHero   AdminResource = "blog-hero"
	ResourceSettings   AdminResource = "settings"
)

// AdminResources lists every proxied collection.
var AdminResources = []AdminResource{
	ResourceGymClasses,
	ResourceTrainers,
	ResourceSeries,
	ResourceThemes,
	ResourceBlogHero,
	ResourceSettings,
}

func (r AdminResource) IsValid() bool {
	for _, known := range AdminResources {
		if r == known {
			return true
		}
	}
	return false
}
