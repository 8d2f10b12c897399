package identity

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/masomo/dashboard/core"
)

// Role is one of the fixed dashboard roles. The zero value is the unknown role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var (
	AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

	Roles = []RoleInfo{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

// ParseRole maps s onto a known Role; anything else yields the unknown role.
func ParseRole(s string) Role {
	switch r := Role(core.CleanString(s, true /* lower */)); r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return r
	default:
		return ""
	}
}

func (r Role) IsKnown() bool { return ParseRole(string(r)) != "" }

func (r Role) String() string { return string(r) }

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// Identity is the resolved user record handed out to clients.
type Identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

func (i Identity) IsZero() bool { return i.ID == "" }

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Credentials are what a user types into the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Email = core.CleanString(c.Email, true /* lower */)
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Clean()
	return validate.Struct(c)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name"`
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Role            Role   `json:"role" validate:"required,oneof=admin teacher student"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateProfile defines what a user may change on their own profile.
type UpdateProfile struct {
	Name     string `json:"name"`
	Username string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (up *UpdateProfile) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	up.Name = core.FirstNonEmpty(core.CleanString(up.Name), origUsr.Name)
	up.Username = core.FirstNonEmpty(core.CleanString(up.Username, true /* lower */), origUsr.Username)
	up.Email = core.FirstNonEmpty(core.CleanString(up.Email, true /* lower */), origUsr.Email)

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckUniqueness(up.Username, up.Email, origUsr)
}
