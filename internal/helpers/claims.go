package helpers

// Principal is the authenticated caller attached to the request context by
// the auth middleware: token claims joined with the resolved profile.
type Principal struct {
	UserID          string `json:"id"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role"`
	Name            string `json:"name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	HasProfile      bool   `json:"has_profile"`
}

func (p *Principal) IsTeacher() bool {
	return p.Role == "teacher"
}

func (p *Principal) IsStudent() bool {
	return p.Role == "student"
}

func (p *Principal) HasRole(role string) bool {
	return p.Role == role
}

func (p *Principal) IsOwner(userID string) bool {
	return p.UserID == userID
}

func (p *Principal) GetSafeRole() string {
	if p.Role == "" {
		return "student"
	}
	return p.Role
}
