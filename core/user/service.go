package user

import (
	"errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

const (
	DefaultAdminUsername = "admin"
	defaultAdminName     = "System Administrator"
	defaultAdminEmail    = "admin@school.edu"
)

// Service authenticates users and tracks the single active session.
type Service struct {
	store   *Store
	current *Session
	log     core.Logger
}

// NewService seeds the default admin into `store` unless it already holds one.
func NewService(store *Store, adminPassword string, logger core.Logger) (*Service, error) {
	svc := &Service{store: store, log: logger}
	if _, err := store.Get(DefaultAdminUsername); err == ErrNotFound {
		admin := User{
			Username: DefaultAdminUsername,
			Role:     RoleAdmin,
			FullName: defaultAdminName,
			Email:    defaultAdminEmail,
			IsActive: true,
		}
		if err := admin.SetPassword(adminPassword); err != nil {
			return nil, err
		}
		store.Create(admin)
	}
	return svc, nil
}

func (svc *Service) Store() *Store {
	return svc.store
}

// Login opens a session for the matching active user.
// On failure the current session is left unchanged.
func (svc *Service) Login(username, password string) (*Session, error) {
	usr, err := svc.store.Get(username)
	if err != nil {
		svc.log.Info("login failed", map[string]interface{}{"username": username})
		return nil, ErrInvalidCredentials
	}
	if err := usr.CheckPassword(password); err != nil {
		svc.log.Info("login failed", map[string]interface{}{"username": username})
		return nil, ErrInvalidCredentials
	}
	if !usr.IsActive {
		svc.log.Warn("login refused: account disabled", usr)
		return nil, ErrAccountDisabled
	}
	svc.current = newSession(usr)
	svc.log.Info("login", usr)
	return svc.current, nil
}

func (svc *Service) Authenticate(username, password string) bool {
	_, err := svc.Login(username, password)
	return err == nil
}

func (svc *Service) Logout() {
	svc.current = nil
}

func (svc *Service) Current() *Session {
	return svc.current
}

func (svc *Service) IsLoggedIn() bool {
	return svc.current != nil
}

func (svc *Service) HasPermission(perm Permission) bool {
	return svc.current.HasPermission(perm)
}

// AddUser creates an active user, replacing any user with the same username.
// Input is not validated here: callers run NewUser.Validate first. Only hashing may fail.
func (svc *Service) AddUser(nu NewUser) (string, error) {
	usr := User{
		Username:     nu.Username,
		Role:         nu.Role,
		FullName:     nu.FullName,
		Email:        nu.Email,
		AssociatedID: nu.AssociatedID,
		IsActive:     true,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return "", err
	}
	return svc.store.Create(usr).ID, nil
}

// AddExistingUser stores a persisted user under its own id.
func (svc *Service) AddExistingUser(usr User) {
	svc.store.Restore(usr)
}

// ChangePassword replaces the password of `username` when `oldPassword` matches.
func (svc *Service) ChangePassword(username, oldPassword, newPassword string) bool {
	usr, err := svc.store.Get(username)
	if err != nil {
		return false
	}
	if err := usr.CheckPassword(oldPassword); err != nil {
		return false
	}
	if err := usr.SetPassword(newPassword); err != nil {
		svc.log.Error("hashing password", err, usr)
		return false
	}
	return svc.store.Update(usr) == nil
}

// UpdatePassword applies the password policy before changing the password.
func (svc *Service) UpdatePassword(pc PasswordChange) error {
	if err := pc.Validate(); err != nil {
		return err
	}
	if !svc.ChangePassword(pc.Username, pc.OldPassword, pc.NewPassword) {
		return ErrInvalidCredentials
	}
	return nil
}

// ResetPassword sets a new password without checking the old one.
func (svc *Service) ResetPassword(username, password string) error {
	usr, err := svc.store.Get(core.CleanString(username))
	if err != nil {
		return err
	}
	if err := ValidateNewPassword(password, usr); err != nil {
		return err
	}
	if err := usr.SetPassword(password); err != nil {
		return err
	}
	return svc.store.Update(usr)
}

// SetActive enables or disables the login of `username`.
func (svc *Service) SetActive(username string, active bool) bool {
	usr, err := svc.store.Get(username)
	if err != nil {
		return false
	}
	usr.IsActive = active
	return svc.store.Update(usr) == nil
}

func (svc *Service) RemoveUser(username string) bool {
	return svc.store.Delete(username)
}

func (svc *Service) GetUser(username string) (User, error) {
	return svc.store.Get(username)
}

func (svc *Service) AllUsers() []User {
	return svc.store.All()
}
