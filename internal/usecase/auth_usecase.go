package usecase

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash string, plain string) bool
}

type BcryptPasswordHasher struct {
	cost int
}

func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost: cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptPasswordHasher) Verify(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// アクセストークン発行の約束（実装はmainで注入）
type TokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

type AuthUsecase struct {
	users  repo.UserRepository
	hasher PasswordHasher
	issuer TokenIssuer
}

func NewAuthUsecase(users repo.UserRepository, hasher PasswordHasher, issuer TokenIssuer) *AuthUsecase {
	return &AuthUsecase{users: users, hasher: hasher, issuer: issuer}
}

type RegisterInput struct {
	FullName string
	Email    string
	Password string
}

type UserOutput struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type LoginOutput struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        UserOutput `json:"user"`
}

// 会員登録
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return UserOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "invalid email format")
	}
	if len(in.Password) < 8 {
		return UserOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "password too short")
	}
	if strings.TrimSpace(in.FullName) == "" {
		return UserOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "full name required")
	}

	//email重複チェック
	_, err := u.users.FindByEmail(ctx, email)
	if err == nil {
		return UserOutput{}, NewHTTPError(http.StatusConflict, CodeConflict, "user already exists")
	}
	if err != repo.ErrNotFound {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "hash error")
	}

	user := model.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, &user); err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return toUserOutput(user), nil
}

// ログイン
func (u *AuthUsecase) Login(ctx context.Context, email string, password string) (LoginOutput, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "email and password required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err == repo.ErrNotFound {
		//存在の有無は区別しない
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusForbidden, CodeForbidden, "account is disabled")
	}
	if !u.hasher.Verify(user.PasswordHash, password) {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "invalid credentials")
	}

	now := time.Now()
	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "token error")
	}

	user.LastLoginAt = &now
	if err := u.users.Update(ctx, &user); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return LoginOutput{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        toUserOutput(user),
	}, nil
}

func toUserOutput(u model.User) UserOutput {
	return UserOutput{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     string(u.Role),
	}
}
