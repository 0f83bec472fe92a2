package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("account is disabled")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type UserUsecase struct {
	repo   repository.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewUserUsecase(repo repository.UserRepository, jwtSecret string, ttl time.Duration) *UserUsecase {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &UserUsecase{repo: repo, secret: []byte(jwtSecret), ttl: ttl, now: time.Now}
}

func (u *UserUsecase) Register(ctx context.Context, name, email, password, role string) (*model.User, error) {
	if role == "" {
		role = model.RoleOperator
	}

	// 1. Email must be unused
	if _, err := u.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 2. Hash password
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 3. Save
	user := &model.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}
	if err := u.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password and returns a signed HS256 token with user_id and role claims.
func (u *UserUsecase) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	// 1. Find user by email
	user, err := u.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrUserInactive
	}

	// 2. Compare password against the stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	// 3. Issue JWT
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     u.now().Add(u.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (u *UserUsecase) Me(ctx context.Context, id uint) (*model.User, error) {
	return u.repo.FindByID(ctx, id)
}

// ChangePassword replaces the stored hash after checking the current password.
func (u *UserUsecase) ChangePassword(ctx context.Context, id uint, current, next string) error {
	user, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return u.repo.UpdatePassword(ctx, id, string(hashed))
}
