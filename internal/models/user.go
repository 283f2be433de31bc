package models

// User is the owner of accounts
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Currency is a unit an account can be held in
type Currency struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
