package models

import (
	"encoding/json"
	"time"
)

type Player struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Age       int          `json:"age"`
	Height    float64      `json:"height"`
	Position  string       `json:"position"`
	Team      TeamSnapshot `json:"team"`
	Loan      Loan         `json:"-"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	ImageKey string  `json:"image"`
	ImageURL *string `json:"image_url,omitempty"`
}

func (p Player) Available() bool {
	return p.Loan.Available()
}

// MarshalJSON flattens the loan state into loan_status, available and borrower.
func (p Player) MarshalJSON() ([]byte, error) {
	type playerFields Player
	return json.Marshal(struct {
		playerFields
		LoanStatus LoanStatus    `json:"loan_status"`
		Available  bool          `json:"available"`
		Borrower   *TeamSnapshot `json:"borrower"`
	}{
		playerFields: playerFields(p),
		LoanStatus:   p.Loan.Status,
		Available:    p.Loan.Available(),
		Borrower:     p.Loan.Borrower,
	})
}
