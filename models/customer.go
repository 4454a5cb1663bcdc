package models

type Customer struct {
	ID    Ref    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Order struct {
	ID       Ref `json:"id"`
	Customer Ref `json:"customer"`
	Event    Ref `json:"event"`
}

// Profile is the authenticated backend user. The role flags are pointers because the
// login response may omit them, in which case they are fetched separately.
type Profile struct {
	ID          Ref    `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	IsSuperuser *bool  `json:"is_superuser,omitempty"`
	IsStaff     *bool  `json:"is_staff,omitempty"`
}

func (p Profile) HasRoleFlags() bool {
	return p.IsSuperuser != nil || p.IsStaff != nil
}

func (p Profile) Superuser() bool {
	return p.IsSuperuser != nil && *p.IsSuperuser
}

func (p Profile) Staff() bool {
	return p.IsStaff != nil && *p.IsStaff
}
