package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/janisrealty/janis/core"
)

// Role codes
const (
	// Privileged
	RoleManager           = "manager"
	RoleDeveloper         = "developer"
	RoleBackOffice        = "back_office"
	RoleMarketingDirector = "marketing_director"
	RoleCallCenter        = "call_center"

	// Agents
	RoleAgentInternal = "agente_i"
	RoleAgentExternal = "agente_e"

	// Others
	RoleLawyer             = "abogado"
	RolePortfolioDirector  = "portfolio_director"
	RoleCommercialDirector = "directora_comercial"
	RoleRemaxAgent         = "agente_remax"
)

// Profile themes
const (
	ThemeGreen = "green"
	ThemeBlack = "black"
)

var (
	PrivilegedRoles = []string{RoleManager, RoleDeveloper, RoleBackOffice, RoleMarketingDirector, RoleCallCenter}
	AgentRoles      = []string{RoleAgentInternal, RoleAgentExternal}

	Roles = []Role{
		{Code: RoleManager, Name: "Gerente"},
		{Code: RoleDeveloper, Name: "Desarrollador"},
		{Code: RoleBackOffice, Name: "Back Office"},
		{Code: RoleMarketingDirector, Name: "Director de Marketing"},
		{Code: RoleCallCenter, Name: "Call Center"},
		{Code: RoleAgentInternal, Name: "Agente Interno"},
		{Code: RoleAgentExternal, Name: "Agente Externo"},
		{Code: RoleLawyer, Name: "Abogado"},
		{Code: RolePortfolioDirector, Name: "Director de Cartera"},
		{Code: RoleCommercialDirector, Name: "Directora Comercial"},
		{Code: RoleRemaxAgent, Name: "Agente Remax"},
	}
)

func IsRole(code string) bool {
	for _, r := range Roles {
		if r.Code == code {
			return true
		}
	}
	return false
}

func hasRole(roles []string, code string) bool {
	for _, r := range roles {
		if r == code {
			return true
		}
	}
	return false
}

type Role struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type User struct {
	ID             int64      `json:"id" db:"id"`
	Username       string     `json:"username" db:"username"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone" db:"phone"`
	RoleCode       string     `json:"role" db:"role_code"`
	AreaID         *int64     `json:"area_id" db:"area_id"`
	IsSuperuser    bool       `json:"is_superuser" db:"is_superuser"`
	IsStaff        bool       `json:"is_staff" db:"is_staff"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	IsActiveAgent  bool       `json:"is_active_agent" db:"is_active_agent"`
	IsVerified     bool       `json:"is_verified" db:"is_verified"`
	CommissionRate *float64   `json:"commission_rate" db:"commission_rate"`
	PasswordHash   []byte     `json:"-" db:"password_hash"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"` // UTC
	LastLogin      *time.Time `json:"last_login" db:"last_login"` // UTC
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

// IsPrivileged reports whether the user may see and manage everything.
func (u User) IsPrivileged() bool {
	return u.IsSuperuser || hasRole(PrivilegedRoles, u.RoleCode)
}

func (u User) IsAgent() bool {
	return hasRole(AgentRoles, u.RoleCode)
}

func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Permissions are the UI flags of a user.
type Permissions struct {
	IsPrivileged    bool `json:"is_privileged"`
	IsAgent         bool `json:"is_agent"`
	CanViewInactive bool `json:"can_view_inactive"`
	CanDeleteDraft  bool `json:"can_delete_draft"`
}

func (u User) Permissions() Permissions {
	return Permissions{
		IsPrivileged:    u.IsPrivileged(),
		IsAgent:         u.IsAgent(),
		CanViewInactive: u.IsPrivileged(),
		CanDeleteDraft:  true,
	}
}

type Profile struct {
	UserID         int64  `json:"user_id" db:"user_id"`
	Theme          string `json:"theme" db:"theme"`
	NotifyEmail    bool   `json:"notify_email" db:"notify_email"`
	NotifyWhatsApp bool   `json:"notify_whatsapp" db:"notify_whatsapp"`
}

type UpdateProfile struct {
	Theme          string `json:"theme" validate:"omitempty,oneof=green black"`
	NotifyEmail    *bool  `json:"notify_email"`
	NotifyWhatsApp *bool  `json:"notify_whatsapp"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Theme = core.CleanString(up.Theme, true /* lower */)
	return validate.Struct(up)
}

type Area struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type NewArea struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (na *NewArea) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	return validate.Struct(na)
}

// FieldPermission tells whether a role may view or edit a given form field.
type FieldPermission struct {
	RoleCode  string `json:"role" db:"role_code" validate:"required,role_code"`
	FieldName string `json:"field_name" db:"field_name" validate:"required,max=100"`
	CanView   bool   `json:"can_view" db:"can_view"`
	CanEdit   bool   `json:"can_edit" db:"can_edit"`
}

func (fp *FieldPermission) Validate(validate *validator.Validate) error {
	fp.RoleCode = core.CleanString(fp.RoleCode, true /* lower */)
	fp.FieldName = core.CleanString(fp.FieldName, true /* lower */)
	return validate.Struct(fp)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string   `json:"username" validate:"omitempty,min=3,alphanum_"`
	FirstName       string   `json:"first_name" validate:"required"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone" validate:"omitempty,phone_"`
	RoleCode        string   `json:"role" validate:"omitempty,role_code"`
	AreaID          *int64   `json:"area_id"`
	IsStaff         bool     `json:"is_staff"`
	IsSuperuser     bool     `json:"is_superuser"`
	IsActiveAgent   bool     `json:"is_active_agent"`
	CommissionRate  *float64 `json:"commission_rate" validate:"omitempty,min=0,max=100"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nu.FirstName = core.TitleCase(nu.FirstName)
	nu.LastName = core.TitleCase(nu.LastName)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.RoleCode = core.CleanString(nu.RoleCode, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Username        string   `json:"username" validate:"omitempty,min=3,alphanum_"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           *string  `json:"phone" validate:"omitempty,phone_"`
	RoleCode        *string  `json:"role" validate:"omitempty,role_code"`
	AreaID          *int64   `json:"area_id"`
	IsActive        *bool    `json:"is_active"`
	IsActiveAgent   *bool    `json:"is_active_agent"`
	IsStaff         *bool    `json:"is_staff"`
	IsVerified      *bool    `json:"is_verified"`
	CommissionRate  *float64 `json:"commission_rate" validate:"omitempty,min=0,max=100"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// HasAdminFields reports whether the update touches fields only privileged users may change.
func (uu *UpdateUser) HasAdminFields() bool {
	return uu.IsActive != nil || uu.RoleCode != nil || uu.IsStaff != nil || uu.IsVerified != nil ||
		uu.IsActiveAgent != nil || uu.CommissionRate != nil || uu.AreaID != nil ||
		uu.Username != "" || uu.Email != ""
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	if name := core.TitleCase(uu.FirstName); name != "" {
		uu.FirstName = name
	} else {
		uu.FirstName = origUsr.FirstName
	}
	if name := core.TitleCase(uu.LastName); name != "" {
		uu.LastName = name
	} else {
		uu.LastName = origUsr.LastName
	}
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if uu.RoleCode != nil {
		role := core.CleanString(*uu.RoleCode, true /* lower */)
		uu.RoleCode = &role
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// GetFilter selects a single User. Only the first non-zero field is used.
type GetFilter struct {
	ID              int64
	Username        string
	Email           string
	UsernameOrEmail string
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	IsAgent     *bool     `query:"is_agent"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.IsAgent == nil &&
		qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Snapshot identifies a user coming from an import file.
type Snapshot struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	RoleCode  string `json:"role,omitempty"`
	AreaName  string `json:"area,omitempty"`
}
