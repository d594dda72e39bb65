package types

// Category classifies an entity. The set is closed: unknown frontmatter
// values fold into CategoryOther rather than failing the document.
type Category string

const (
	CategoryPerson       Category = "person"
	CategoryProject      Category = "project"
	CategoryTechnology   Category = "technology"
	CategoryConcept      Category = "concept"
	CategoryOrganization Category = "organization"
	CategoryLocation     Category = "location"
	CategoryHealth       Category = "health"
	CategoryAcronym      Category = "acronym"
	CategoryAnimal       Category = "animal"
	CategoryMedia        Category = "media"
	CategoryEvent        Category = "event"
	CategoryDocument     Category = "document"
	CategoryFinance      Category = "finance"
	CategoryFood         Category = "food"
	CategoryHobby        Category = "hobby"
	CategoryOther        Category = "other"
)

// knownCategories is the closed set accepted from frontmatter.
var knownCategories = map[Category]bool{
	CategoryPerson: true, CategoryProject: true, CategoryTechnology: true,
	CategoryConcept: true, CategoryOrganization: true, CategoryLocation: true,
	CategoryHealth: true, CategoryAcronym: true, CategoryAnimal: true,
	CategoryMedia: true, CategoryEvent: true, CategoryDocument: true,
	CategoryFinance: true, CategoryFood: true, CategoryHobby: true,
	CategoryOther: true,
}

// ParseCategory maps a raw frontmatter type string onto the closed
// category set. Unrecognized or empty values become CategoryOther.
func ParseCategory(raw string) Category {
	c := Category(NormalizeAlias(raw))
	if knownCategories[c] {
		return c
	}
	return CategoryOther
}

// Entity is a named thing documents can reference: a person, project,
// concept, and so on. An entity is owned by exactly one document (Path);
// (Name, Path) is unique across the catalog. Aliases are not unique:
// collisions are expected and resolved downstream.
type Entity struct {
	// Name is the display name, usually the owning note's title.
	Name string `json:"name"`

	// Category is the entity classification (see Category constants).
	Category Category `json:"category"`

	// Path identifies the owning document.
	Path string `json:"path"`

	// Aliases are alternative names, in frontmatter order. May be empty.
	Aliases []string `json:"aliases,omitempty"`

	// Popularity is the hub score: how central the entity is in the
	// link graph (inbound link count). Never negative.
	Popularity int `json:"popularity"`
}

// Key returns the catalog identity of the entity. Path alone is
// sufficient because each document owns at most one entity.
func (e *Entity) Key() string {
	return e.Path
}
