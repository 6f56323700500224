package models

import "time"

// Team is a club registered on the marketplace.
type Team struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Country      string    `json:"country" db:"country"`
	League       string    `json:"league" db:"league"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	ImageKey *string `json:"image,omitempty" db:"image_key"`
	ImageURL *string `json:"image_url,omitempty" db:"-"`
}

// Snapshot copies the identifying fields of the team at this moment.
// Players keep the copy; later edits to the team are not propagated.
func (t Team) Snapshot() TeamSnapshot {
	return TeamSnapshot{
		ID:      t.ID,
		Name:    t.Name,
		Email:   t.Email,
		Country: t.Country,
		League:  t.League,
	}
}

type TeamSnapshot struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
	League  string `json:"league"`
}
