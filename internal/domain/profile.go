package domain

// ProfileUpdate is the body forwarded to the backend's user settings endpoint.
// Empty fields are omitted so the backend keeps their current values.
type ProfileUpdate struct {
	FullName string `json:"full_name,omitempty" validate:"omitempty,max=100"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address  string `json:"address,omitempty" validate:"omitempty,max=255"`
}

// Empty reports whether the update carries no field.
func (p ProfileUpdate) Empty() bool {
	return p.FullName == "" && p.Email == "" && p.Phone == "" && p.Address == ""
}

// Credentials are the login form fields.
type Credentials struct {
	Email string `json:"email" validate:"required,email"`
	Pwd   string `json:"pwd" validate:"required"`
}

// UserProfile is the account as returned by the backend after an update.
type UserProfile struct {
	ID       int    `json:"id,omitempty"`
	UUID     string `json:"uuid,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Image    string `json:"image,omitempty"`
}
