package usecase_test

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type HasherMock struct{ mock.Mock }

func (m *HasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *HasherMock) Verify(hash string, plain string) bool {
	args := m.Called(hash, plain)
	return args.Bool(0)
}

type IssuerMock struct{ mock.Mock }

func (m *IssuerMock) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	args := m.Called(userID, role, now)
	exp, _ := args.Get(1).(time.Time)
	return args.String(0), exp, args.Error(2)
}

func authFixture() (*UserRepoMock, *HasherMock, *IssuerMock, *usecase.AuthUsecase) {
	userRepo := new(UserRepoMock)
	hasher := new(HasherMock)
	issuer := new(IssuerMock)
	uc := usecase.NewAuthUsecase(userRepo, hasher, issuer)
	return userRepo, hasher, issuer, uc
}

func TestAuthUsecase_Register_Success(t *testing.T) {
	userRepo, hasher, _, uc := authFixture()

	userRepo.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{}, repo.ErrNotFound)
	hasher.On("Hash", "password123").Return("$2a$hash", nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "taro@example.com" &&
			u.PasswordHash == "$2a$hash" &&
			u.Role == model.RoleUser &&
			u.IsActive
	})).Return(nil)

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		FullName: "山田太郎",
		Email:    " Taro@Example.com ",
		Password: "password123",
	})
	assert.NoError(t, err)
	//emailは小文字化される
	assert.Equal(t, "taro@example.com", out.Email)
	assert.Equal(t, string(model.RoleUser), out.Role)

	userRepo.AssertExpectations(t)
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	userRepo, _, _, uc := authFixture()

	userRepo.On("FindByEmail", mock.Anything, "taro@example.com").Return(model.User{ID: 1}, nil)

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		FullName: "山田太郎",
		Email:    "taro@example.com",
		Password: "password123",
	})
	assertErrContains(t, err, "user already exists")

	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Register_ShortPassword(t *testing.T) {
	_, _, _, uc := authFixture()

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		FullName: "山田太郎",
		Email:    "taro@example.com",
		Password: "short",
	})
	assertErrContains(t, err, "password too short")
}

func TestAuthUsecase_Register_InvalidEmail(t *testing.T) {
	_, _, _, uc := authFixture()

	_, err := uc.Register(context.Background(), usecase.RegisterInput{
		FullName: "山田太郎",
		Email:    "not-an-email",
		Password: "password123",
	})
	assertErrContains(t, err, "invalid email format")
}

func TestAuthUsecase_Login_Success(t *testing.T) {
	userRepo, hasher, issuer, uc := authFixture()

	user := model.User{ID: 1, Email: "taro@example.com", PasswordHash: "$2a$hash", Role: model.RoleUser, IsActive: true}
	userRepo.On("FindByEmail", mock.Anything, "taro@example.com").Return(user, nil)
	hasher.On("Verify", "$2a$hash", "password123").Return(true)
	issuer.On("Issue", int64(1), model.RoleUser, mock.Anything).Return("token123", time.Now().Add(15*time.Minute), nil)
	//最終ログイン時刻が更新される
	userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.ID == 1 && u.LastLoginAt != nil
	})).Return(nil)

	out, err := uc.Login(context.Background(), "taro@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, "token123", out.AccessToken)
	assert.Equal(t, int64(1), out.User.ID)

	userRepo.AssertExpectations(t)
	issuer.AssertExpectations(t)
}

func TestAuthUsecase_Login_WrongPassword(t *testing.T) {
	userRepo, hasher, issuer, uc := authFixture()

	user := model.User{ID: 1, Email: "taro@example.com", PasswordHash: "$2a$hash", IsActive: true}
	userRepo.On("FindByEmail", mock.Anything, "taro@example.com").Return(user, nil)
	hasher.On("Verify", "$2a$hash", "wrong").Return(false)

	_, err := uc.Login(context.Background(), "taro@example.com", "wrong")
	assertErrContains(t, err, "invalid credentials")

	issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_Login_UnknownEmail_SameError(t *testing.T) {
	userRepo, _, _, uc := authFixture()

	userRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(model.User{}, repo.ErrNotFound)

	//存在しないメールでもメッセージは同じ
	_, err := uc.Login(context.Background(), "ghost@example.com", "password123")
	assertErrContains(t, err, "invalid credentials")
}

func TestAuthUsecase_Login_InactiveUser(t *testing.T) {
	userRepo, _, _, uc := authFixture()

	user := model.User{ID: 1, Email: "taro@example.com", PasswordHash: "$2a$hash", IsActive: false}
	userRepo.On("FindByEmail", mock.Anything, "taro@example.com").Return(user, nil)

	_, err := uc.Login(context.Background(), "taro@example.com", "password123")
	assertErrContains(t, err, "account is disabled")
}
