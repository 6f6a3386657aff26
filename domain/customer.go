package domain

import "clinicpos/m/internal/money"

// Customer is the patient a sale is billed to.
type Customer struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	PatientID string `db:"patient_id" json:"patient_id"`
	Phone     string `db:"phone" json:"phone"`
}

// ConsultationService is a billable clinic service configured in settings.
type ConsultationService struct {
	ID        int64        `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Amount    money.Amount `db:"amount" json:"amount"`
	IsDefault bool         `db:"is_default" json:"is_default"`
}
