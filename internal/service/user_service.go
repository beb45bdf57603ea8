package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"corebank/internal/config"
	"corebank/internal/model"
	"corebank/internal/repository"
	"corebank/pkg/validate"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
}

func NewUserService(db *gorm.DB, cfg *config.Config) *UserService {
	return &UserService{
		cfg:      cfg,
		userRepo: repository.NewUserRepository(db),
	}
}

type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	CPF       string
	Birthdate time.Time
}

// Register validates and creates a new user with the default customer role.
// The password is stored as a bcrypt hash and the CPF with punctuation
// stripped.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if err := s.validateRegistration(req); err != nil {
		return nil, err
	}

	cpf := canonicalCPF(req.CPF)
	if _, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return nil, NewError(ErrKindConflict, "username already taken")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, WrapStorage("fetch user failed", err)
	}
	if _, err := s.userRepo.GetByCPF(ctx, cpf); err == nil {
		return nil, NewError(ErrKindConflict, "CPF already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, WrapStorage("fetch user failed", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, WrapStorage("hash password failed", err)
	}

	role, err := s.userRepo.GetOrCreateRole(ctx, model.RoleCustomer)
	if err != nil {
		return nil, WrapStorage("resolve default role failed", err)
	}

	user := &model.User{
		Username:  req.Username,
		Password:  string(hash),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CPF:       cpf,
		Birthdate: req.Birthdate,
		Roles:     []model.Role{*role},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, WrapStorage("create user failed", err)
	}
	return user, nil
}

func (s *UserService) validateRegistration(req RegisterRequest) error {
	rules := s.cfg.Rules.User

	if !validate.MatchesPattern(rules.UsernamePattern, req.Username, true) {
		return NewError(ErrKindInvalidValue, "invalid username")
	}
	if !validate.MatchesPattern(rules.FirstNamePattern, req.FirstName, true) {
		return NewError(ErrKindInvalidValue, "invalid first name")
	}
	if !validate.MatchesPattern(rules.LastNamePattern, req.LastName, true) {
		return NewError(ErrKindInvalidValue, "invalid last name")
	}
	if !validate.CPF(req.CPF) {
		return NewError(ErrKindInvalidValue, "invalid CPF")
	}
	if !validate.StrongPassword(req.Password, rules.MinPasswordSize, rules.MaxPasswordSize) {
		return NewError(ErrKindInvalidValue, "password too weak")
	}

	age := yearsSince(req.Birthdate, time.Now().UTC())
	if !validate.InRangeInt(rules.MinAge, rules.MaxAge, age) {
		return NewError(ErrKindInvalidValue,
			fmt.Sprintf("age must be between %d and %d years", rules.MinAge, rules.MaxAge))
	}
	return nil
}

// userSetters is the allow-list of mutable user fields, keyed by the API
// field name. Each setter validates and applies one field; anything not
// listed (cpf, birthdate, roles) is immutable for the life of the row.
var userSetters = map[string]func(*UserService, context.Context, *model.User, string) error{
	"username":   (*UserService).setUsername,
	"password":   (*UserService).setPassword,
	"first_name": (*UserService).setFirstName,
	"last_name":  (*UserService).setLastName,
}

// Update applies a partial update to a user. Unknown field names are
// rejected before anything is written; the first invalid value aborts the
// whole update.
func (s *UserService) Update(ctx context.Context, id int64, fields map[string]string) (*model.User, error) {
	if len(fields) == 0 {
		return nil, NewError(ErrKindInvalidValue, "no fields to update")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NewError(ErrKindNotFound, "user does not exist")
		}
		return nil, WrapStorage("fetch user failed", err)
	}

	for name, value := range fields {
		setter, ok := userSetters[name]
		if !ok {
			return nil, NewError(ErrKindInvalidValue, fmt.Sprintf("field %q cannot be updated", name))
		}
		if err := setter(s, ctx, user, value); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, WrapStorage("update user failed", err)
	}
	return user, nil
}

func (s *UserService) setUsername(ctx context.Context, user *model.User, value string) error {
	if !validate.MatchesPattern(s.cfg.Rules.User.UsernamePattern, value, true) {
		return NewError(ErrKindInvalidValue, "invalid username")
	}
	if other, err := s.userRepo.GetByUsername(ctx, value); err == nil {
		if other.ID != user.ID {
			return NewError(ErrKindConflict, "username already taken")
		}
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return WrapStorage("fetch user failed", err)
	}
	user.Username = value
	return nil
}

func (s *UserService) setPassword(_ context.Context, user *model.User, value string) error {
	rules := s.cfg.Rules.User
	if !validate.StrongPassword(value, rules.MinPasswordSize, rules.MaxPasswordSize) {
		return NewError(ErrKindInvalidValue, "password too weak")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(value), bcrypt.DefaultCost)
	if err != nil {
		return WrapStorage("hash password failed", err)
	}
	user.Password = string(hash)
	return nil
}

func (s *UserService) setFirstName(_ context.Context, user *model.User, value string) error {
	if !validate.MatchesPattern(s.cfg.Rules.User.FirstNamePattern, value, true) {
		return NewError(ErrKindInvalidValue, "invalid first name")
	}
	user.FirstName = value
	return nil
}

func (s *UserService) setLastName(_ context.Context, user *model.User, value string) error {
	if !validate.MatchesPattern(s.cfg.Rules.User.LastNamePattern, value, true) {
		return NewError(ErrKindInvalidValue, "invalid last name")
	}
	user.LastName = value
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, NewError(ErrKindNotFound, "user does not exist")
		}
		return nil, WrapStorage("fetch user failed", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]*model.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, WrapStorage("list users failed", err)
	}
	return users, total, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return NewError(ErrKindNotFound, "user does not exist")
		}
		return WrapStorage("delete user failed", err)
	}
	return nil
}

// yearsSince returns whole years elapsed between birthdate and now, so the
// age only ticks over on the birthday itself.
func yearsSince(birthdate, now time.Time) int {
	years := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() ||
		(now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		years--
	}
	return years
}

// canonicalCPF strips punctuation so lookups and storage share one format.
func canonicalCPF(cpf string) string {
	digits := make([]byte, 0, len(cpf))
	for i := 0; i < len(cpf); i++ {
		if cpf[i] >= '0' && cpf[i] <= '9' {
			digits = append(digits, cpf[i])
		}
	}
	return string(digits)
}
