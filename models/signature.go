package models

import "time"

// Signature is a reusable signature image owned by one user.
type Signature struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	FilePath  string    `json:"file_path"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Signature) GetID() string {
	return s.ID
}

func (s *Signature) FieldsToScan() []any {
	return []any{
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.FilePath,
		&s.IsDefault,
		&s.CreatedAt,
	}
}

// SignatureColumns is the select list matching Signature.FieldsToScan order.
const SignatureColumns = "id, user_id, name, file_path, is_default, created_at"
