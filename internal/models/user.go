package models

// User is the public shape of an account. The password hash never leaves
// the user store, so this is the whole record.
type User struct {
	Username string `json:"username"`
}

// AuthResult is the structured outcome of a register or login attempt.
// Message is written for end users and displayed verbatim.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}
