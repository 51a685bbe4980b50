package auth

// Principal is the authenticated user's profile record as returned by
// GET /user.
type Principal struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Credentials are what the user types into the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Permission describes one backend permission grant.
type Permission struct {
	Name   string `json:"name"`
	Action string `json:"action,omitempty"`
}
