package service_test // 测试包

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"scrum-and-tell/internal/domain"
	"scrum-and-tell/internal/repository"
	"scrum-and-tell/internal/repository/mocks"
	"scrum-and-tell/internal/service"
)

// --- 测试 Register 方法 ---

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange: 准备 Mock 对象, Service 实例, 和测试数据
	mockUserRepo := new(mocks.UserRepository)
	jwtSecret := "very-secret-key"
	jwtExpiry := 1
	authService, err := service.NewAuthService(mockUserRepo, jwtSecret, jwtExpiry)
	require.NoError(t, err, "创建 AuthService 不应失败")

	ctx := context.Background()
	username := "newbie"
	password := "StrongPass123"
	email := "newbie@example.com"

	// 设置 Mock 预期: Save 被调用时模拟保存成功，并填充 ID/时间戳。
	// 在 Run 回调里抓取 Save 时点的字段快照：Register 返回前会清空 Password。
	var savedUsername, savedEmail, savedPassword string
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { // 模拟数据库填充字段
			userArg := args.Get(1).(*domain.User)
			savedUsername = userArg.Username
			savedEmail = userArg.Email
			savedPassword = userArg.Password
			userArg.ID = 5
			userArg.CreatedAt = time.Now().Add(-time.Second)
			userArg.UpdatedAt = time.Now().Add(-time.Second)
		}).
		Return(nil).
		Once()

	// Act
	registeredUser, err := authService.Register(ctx, username, password, email)

	assert.Equal(t, username, savedUsername)
	assert.Equal(t, email, savedEmail)
	// 验证落库的密码是否已哈希
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(savedPassword), []byte(password)), "密码应被正确哈希")

	// Assert
	assert.NoError(t, err, "成功注册时不应有错误")
	assert.NotNil(t, registeredUser, "成功注册时应返回用户对象")
	if registeredUser != nil {
		assert.Equal(t, uint(5), registeredUser.ID)
		assert.Equal(t, username, registeredUser.Username)
		assert.Equal(t, email, registeredUser.Email)
		assert.Empty(t, registeredUser.Password, "返回的用户密码应为空")
		assert.False(t, registeredUser.CreatedAt.IsZero(), "创建时间应被设置")
	}

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEntry(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()
	username := "existingUser"

	// 设置 Mock 预期: Save 调用时模拟数据库返回唯一约束错误
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).Return(repository.ErrDuplicateEntry).Once()

	// Act
	_, err := authService.Register(ctx, username, "password", "email@test.com")

	// Assert
	require.Error(t, err, "用户名已存在时应返回错误")
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed), "错误类型应为 ErrRegistrationFailed")

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_EmptyUsername(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)

	// Act
	_, err := authService.Register(context.Background(), "", "password", "")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidInput))
	mockUserRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 Login 方法 ---

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "testuser"
	password := "password123"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act
	token, err := authService.Login(ctx, username, password)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "nonexistent"

	mockUserRepo.On("FindByUsername", ctx, username).Return(nil, repository.ErrUserNotFound).Once()

	// Act
	token, err := authService.Login(ctx, username, "password")

	// Assert
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_IncorrectPassword(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "testuser"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act
	token, err := authService.Login(ctx, username, "wrongpassword")

	// Assert
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))

	mockUserRepo.AssertExpectations(t)
}
