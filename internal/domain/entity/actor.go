package entity

// Actor identifies who requests an operation and whether they hold elevated privilege
type Actor struct {
	ID       string `json:"id"`
	Elevated bool   `json:"elevated"`
}

// NewActor creates a regular actor
func NewActor(id string) Actor {
	return Actor{ID: id}
}

// NewAdmin creates an actor carrying the elevated privilege flag
func NewAdmin(id string) Actor {
	return Actor{ID: id, Elevated: true}
}
