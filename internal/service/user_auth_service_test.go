package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coursebook/internal/config"
	"github.com/coursebook/internal/constants"
	"github.com/coursebook/internal/models"
	"github.com/coursebook/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-auth-test-secret"
	cfg.UserJWT.ExpireHours = 24
	cfg.UserJWT.RememberMeExpireHours = 720
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireNumber: true,
	}
	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	user, token, expiresAt, err := service.Register("  Helen@Example.COM ", "password1", "Helen")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "helen@example.com" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if user.Role != constants.ActorRoleCustomer {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected a valid token, got %q expiring %v", token, expiresAt)
	}

	claims, err := service.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	logged, _, _, err := service.Login("helen@example.com", "password1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("unexpected user id: %d", logged.ID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := service.Register("ian@example.com", "password1", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, _, _, err := service.Register("IAN@example.com", "password2", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterPasswordPolicy(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	_, _, _, err := service.Register("joy@example.com", "short1", "")
	if !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak for short password, got %v", err)
	}
	_, _, _, err = service.Register("joy@example.com", "nodigitshere", "")
	if !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak without digit, got %v", err)
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	_, _, _, err := service.Register("not-an-email", "password1", "")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestRegisterFallsBackToEmailLocalPart(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	user, _, _, err := service.Register("kim.lee@example.com", "password1", "   ")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.DisplayName != "kim.lee" {
		t.Fatalf("expected display name from email local part, got %q", user.DisplayName)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := service.Register("leo@example.com", "password1", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, _, _, err := service.Login("leo@example.com", "wrongpass1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, _, _, err = service.Login("missing@example.com", "password1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	service, db := setupUserAuthServiceTest(t)

	user, _, _, err := service.Register("mia@example.com", "password1", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}

	_, _, _, err = service.Login("mia@example.com", "password1")
	if !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestLoginRememberMeExtendsExpiry(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	if _, _, _, err := service.Register("nora@example.com", "password1", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, normalExpiry, err := service.LoginWithRememberMe("nora@example.com", "password1", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	_, _, rememberedExpiry, err := service.LoginWithRememberMe("nora@example.com", "password1", true)
	if err != nil {
		t.Fatalf("remember-me login failed: %v", err)
	}
	if !rememberedExpiry.After(normalExpiry.Add(24 * time.Hour)) {
		t.Fatalf("remember-me expiry %v should be well beyond normal expiry %v", rememberedExpiry, normalExpiry)
	}
}

func TestChangePassword(t *testing.T) {
	service, _ := setupUserAuthServiceTest(t)

	user, _, _, err := service.Register("oli@example.com", "password1", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := service.ChangePassword(user.ID, "wrongpass1", "newpassword1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := service.ChangePassword(user.ID, "password1", "weak"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}
	if err := service.ChangePassword(user.ID, "password1", "newpassword1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, _, _, err := service.Login("oli@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected, got %v", err)
	}
	if _, _, _, err := service.Login("oli@example.com", "newpassword1"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestSetUsersStatus(t *testing.T) {
	service, db := setupUserAuthServiceTest(t)

	first, _, _, err := service.Register("pat@example.com", "password1", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	second, _, _, err := service.Register("quin@example.com", "password1", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := service.SetUsersStatus([]uint{first.ID, second.ID}, constants.UserStatusDisabled); err != nil {
		t.Fatalf("set users status failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("status = ?", constants.UserStatusDisabled).Count(&count).Error; err != nil {
		t.Fatalf("count users failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 disabled users, got %d", count)
	}
}
