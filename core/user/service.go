package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrAreaNotFound   = errors.New("area not found")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		UsernameExists(ctx context.Context, username string) (bool, error)
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of the names, username or email.
		FilterUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsers(ctx context.Context, ids ...int64) error

		GetProfile(ctx context.Context, userID int64) (Profile, error)
		SaveProfile(ctx context.Context, prof Profile) (Profile, error)

		ListAreas(ctx context.Context) ([]Area, error)
		GetOrCreateArea(ctx context.Context, name string) (Area, error)

		ListFieldPermissions(ctx context.Context, role string) ([]FieldPermission, error)
		SaveFieldPermission(ctx context.Context, fp FieldPermission) (FieldPermission, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id int64) (User, error)
		GetByUsername(ctx context.Context, uname string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		Delete(ctx context.Context, ids ...int64) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
		UniqueUsername(ctx context.Context, base string) (string, error)
		GetOrCreateBySnapshot(ctx context.Context, snap Snapshot) (User, bool, error)
		Profile(ctx context.Context, userID int64) (Profile, error)
		UpdateProfile(ctx context.Context, userID int64, up UpdateProfile) (Profile, error)
		Areas(ctx context.Context) ([]Area, error)
		CreateArea(ctx context.Context, na NewArea) (Area, error)
		FieldPermissions(ctx context.Context, role string) ([]FieldPermission, error)
		SetFieldPermission(ctx context.Context, fp FieldPermission) (FieldPermission, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
		tokens  tokenGenerator
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, logger core.Logger) ServiceInterface {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
	).CheckAndPanic()

	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		logger:  logger,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	uname := nu.Username
	if uname == "" {
		var err error
		base, _, _ := strings.Cut(nu.Email, "@")
		if base == "" {
			base = nu.FirstName + " " + nu.LastName
		}
		if uname, err = svc.UniqueUsername(ctx, base); err != nil {
			return User{}, err
		}
	}

	now := time.Now().UTC()
	usr := User{
		Username:       uname,
		FirstName:      nu.FirstName,
		LastName:       nu.LastName,
		Email:          nu.Email,
		Phone:          nu.Phone,
		RoleCode:       nu.RoleCode,
		AreaID:         nu.AreaID,
		IsSuperuser:    nu.IsSuperuser,
		IsStaff:        nu.IsStaff || nu.IsSuperuser,
		IsActive:       true,
		IsActiveAgent:  nu.IsActiveAgent,
		CommissionRate: nu.CommissionRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	if _, err := svc.repo.SaveProfile(ctx, defaultProfile(usr.ID)); err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

// Update applies a validated UpdateUser on usr.
func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.Phone != nil {
		usr.Phone = core.CleanString(*uu.Phone)
	}
	if uu.RoleCode != nil {
		usr.RoleCode = *uu.RoleCode
	}
	if uu.AreaID != nil {
		usr.AreaID = uu.AreaID
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.IsActiveAgent != nil {
		usr.IsActiveAgent = *uu.IsActiveAgent
	}
	if uu.IsStaff != nil {
		usr.IsStaff = *uu.IsStaff
	}
	if uu.IsVerified != nil {
		usr.IsVerified = *uu.IsVerified
	}
	if uu.CommissionRate != nil {
		usr.CommissionRate = uu.CommissionRate
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	now := time.Now().UTC()
	usr.LastLogin = &now
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...int64) error {
	return svc.repo.DeleteUsers(ctx, ids...)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	if !usr.IsActive || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Restablecer contraseña",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.FullName(),
			"UID":   EncodeUID(usr),
			"Token": svc.tokens.make(usr),
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: "invalid value"})
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: "invalid value"})
		}
		return err
	}
	if err := svc.tokens.verify(usr, data.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	_, err = svc.SetPassword(ctx, usr, data.Password)
	return err
}

// UniqueUsername slugifies base and appends "-2", "-3", ... until the username is free.
func (svc *service) UniqueUsername(ctx context.Context, base string) (string, error) {
	base = core.Slugify(base)
	if base == "" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}
	uname := base
	for i := 2; ; i++ {
		exists, err := svc.repo.UsernameExists(ctx, uname)
		if err != nil {
			return "", err
		}
		if !exists {
			return uname, nil
		}
		uname = base + "-" + strconv.Itoa(i)
	}
}

// GetOrCreateBySnapshot finds a user by email or creates one with a random password.
// Snapshots without email always create a user, named after the snapshot.
// The returned bool is true when the user was created.
func (svc *service) GetOrCreateBySnapshot(ctx context.Context, snap Snapshot) (User, bool, error) {
	email := core.CleanString(snap.Email, true /* lower */)
	if email == "" && core.CleanString(snap.FirstName+snap.LastName) == "" {
		return User{}, false, core.NewFieldError("email", "this field is required")
	}

	var usr User
	err := ErrNotFound
	if email != "" {
		usr, err = svc.GetByEmail(ctx, email)
	}
	if err == nil {
		changed := false
		if usr.Phone == "" && snap.Phone != "" {
			usr.Phone = core.CleanString(snap.Phone)
			changed = true
		}
		if snap.RoleCode != "" && !usr.IsActiveAgent {
			usr.IsActiveAgent = true
			changed = true
		}
		if changed {
			usr.UpdatedAt = time.Now().UTC()
			if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
				return User{}, false, err
			}
		}
		return usr, false, nil
	} else if err != ErrNotFound {
		return User{}, false, err
	}

	base := snap.FirstName + " " + snap.LastName
	if core.CleanString(base) == "" {
		base, _, _ = strings.Cut(email, "@")
	}
	uname, err := svc.UniqueUsername(ctx, base)
	if err != nil {
		return User{}, false, err
	}

	now := time.Now().UTC()
	usr = User{
		Username:      uname,
		FirstName:     core.TitleCase(snap.FirstName),
		LastName:      core.TitleCase(snap.LastName),
		Email:         email,
		Phone:         core.CleanString(snap.Phone),
		RoleCode:      snap.RoleCode,
		IsActive:      true,
		IsActiveAgent: snap.RoleCode != "",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if snap.AreaName != "" {
		area, err := svc.repo.GetOrCreateArea(ctx, snap.AreaName)
		if err != nil {
			return User{}, false, err
		}
		usr.AreaID = &area.ID
	}
	if err := usr.SetPassword(randomPassword()); err != nil {
		return User{}, false, err
	}
	if usr, err = svc.repo.CreateUser(ctx, usr); err != nil {
		return User{}, false, err
	}
	if _, err := svc.repo.SaveProfile(ctx, defaultProfile(usr.ID)); err != nil {
		return User{}, false, err
	}
	return usr, true, nil
}

func (svc *service) Profile(ctx context.Context, userID int64) (Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, userID)
	if err == ErrNotFound {
		return svc.repo.SaveProfile(ctx, defaultProfile(userID))
	}
	return prof, err
}

func (svc *service) UpdateProfile(ctx context.Context, userID int64, up UpdateProfile) (Profile, error) {
	prof, err := svc.Profile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if up.Theme != "" {
		prof.Theme = up.Theme
	}
	if up.NotifyEmail != nil {
		prof.NotifyEmail = *up.NotifyEmail
	}
	if up.NotifyWhatsApp != nil {
		prof.NotifyWhatsApp = *up.NotifyWhatsApp
	}
	return svc.repo.SaveProfile(ctx, prof)
}

func (svc *service) Areas(ctx context.Context) ([]Area, error) {
	return svc.repo.ListAreas(ctx)
}

func (svc *service) CreateArea(ctx context.Context, na NewArea) (Area, error) {
	return svc.repo.GetOrCreateArea(ctx, na.Name)
}

func (svc *service) FieldPermissions(ctx context.Context, role string) ([]FieldPermission, error) {
	return svc.repo.ListFieldPermissions(ctx, core.CleanString(role, true /* lower */))
}

func (svc *service) SetFieldPermission(ctx context.Context, fp FieldPermission) (FieldPermission, error) {
	return svc.repo.SaveFieldPermission(ctx, fp)
}

func defaultProfile(userID int64) Profile {
	return Profile{UserID: userID, Theme: ThemeGreen, NotifyEmail: true}
}

func randomPassword() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("user.randomPassword: %v", err))
	}
	return hex.EncodeToString(b)
}
