package domain

// User is an account that can log in and edit the catalog.
type User struct {
	Record
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Born         *int   `json:"born,omitempty"`
}
