package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/internal/users"
	pkgauth "github.com/herbhaven/herbhaven-backend/pkg/auth"
	"github.com/herbhaven/herbhaven-backend/pkg/config"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
	pkgerrors "github.com/herbhaven/herbhaven-backend/pkg/errors"
	"github.com/herbhaven/herbhaven-backend/pkg/security"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
	created []*models.User
}

func newStubUserRepo(seed ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
	for _, u := range seed {
		repo.byEmail[u.Email] = u
		repo.byID[u.ID] = u
	}
	return repo
}

func (r *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	r.created = append(r.created, user)
	return user, nil
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if u, ok := r.byID[id]; ok {
		u.LastLoginAt = &at
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if u, ok := r.byID[id]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, dto users.UpdateProfileDTO) (*models.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if dto.Username != nil {
		u.Username = *dto.Username
	}
	if dto.AvatarURL != nil {
		u.AvatarURL = dto.AvatarURL
	}
	return u, nil
}

type stubSession struct {
	fail bool
}

func (s stubSession) Generate(ctx context.Context, accessID string) (string, error) {
	if s.fail {
		return "", errors.New("redis down")
	}
	return "refresh-" + accessID, nil
}

type stubResetStore struct {
	values map[string]string
}

func newStubResetStore() *stubResetStore {
	return &stubResetStore{values: map[string]string{}}
}

func (s *stubResetStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = fmt.Sprint(value)
	return nil
}

func (s *stubResetStore) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return "", redislib.Nil
}

func (s *stubResetStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *stubResetStore) PasswordResetKey(token string) string {
	return "hh:pwreset:" + token
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "herbhaven",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func buildTestService(repo *stubUserRepo, sess stubSession) (Service, error) {
	return NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sess,
		ResetStore:     newStubResetStore(),
		JWTConfig:      testJWTConfig(),
	})
}

func buildResetTestService(t *testing.T, repo *stubUserRepo) (Service, *stubResetStore) {
	t.Helper()
	store := newStubResetStore()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: stubSession{},
		ResetStore:     store,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, store
}

func TestServiceRegisterIssuesTokens(t *testing.T) {
	repo := newStubUserRepo()
	svc, err := buildTestService(repo, stubSession{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "Shopper@Example.com",
		Username: "shopper",
		Password: "super-secret",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(repo.created))
	}
	if repo.created[0].Email != "shopper@example.com" {
		t.Fatalf("expected normalized email, got %s", repo.created[0].Email)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Email != "shopper@example.com" {
		t.Fatalf("unexpected email claim %s", claims.Email)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected refresh token to be set")
	}
}

func TestServiceRegisterRejectsDuplicateEmail(t *testing.T) {
	existing := &models.User{
		ID:       uuid.New(),
		Email:    "taken@example.com",
		Username: "taken",
		IsActive: true,
	}
	repo := newStubUserRepo(existing)
	svc, err := buildTestService(repo, stubSession{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "taken@example.com",
		Username: "other",
		Password: "super-secret",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestServiceLoginSuccess(t *testing.T) {
	password := "super-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		Username:     "shopper",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     true,
	}
	repo := newStubUserRepo(user)
	svc, err := buildTestService(repo, stubSession{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Shopper@Example.com",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatal("expected user payload")
	}
	if user.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		Username:     "shopper",
		PasswordHash: mustHashPassword(t, "right"),
		IsActive:     true,
	}
	svc, err := buildTestService(newStubUserRepo(user), stubSession{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "super-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "dormant@example.com",
		Username:     "dormant",
		PasswordHash: mustHashPassword(t, password),
		IsActive:     false,
	}
	svc, err := buildTestService(newStubUserRepo(user), stubSession{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: password})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceChangePasswordVerifiesCurrent(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		Username:     "shopper",
		PasswordHash: mustHashPassword(t, "old-password"),
		IsActive:     true,
	}
	repo := newStubUserRepo(user)
	svc, err := buildTestService(repo, stubSession{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	err = svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, ChangePasswordRequest{
		CurrentPassword: "old-password",
		NewPassword:     "new-password",
	}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	ok, err := security.VerifyPassword("new-password", user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected new password to verify, ok=%v err=%v", ok, err)
	}
}

func TestServicePasswordResetRoundTrip(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		Username:     "shopper",
		PasswordHash: mustHashPassword(t, "old-password"),
		IsActive:     true,
	}
	repo := newStubUserRepo(user)
	svc, store := buildResetTestService(t, repo)

	token, err := svc.RequestPasswordReset(context.Background(), "Shopper@Example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}
	if _, ok := store.values["hh:pwreset:"+token]; !ok {
		t.Fatal("expected token to be stored")
	}

	if err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:       token,
		NewPassword: "brand-new-password",
	}); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	ok, err := security.VerifyPassword("brand-new-password", user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected new password to verify, ok=%v err=%v", ok, err)
	}

	// the token is single-use
	err = svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:       token,
		NewPassword: "another-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replay, got %v", err)
	}
}

func TestServiceRequestPasswordResetUnknownEmail(t *testing.T) {
	svc, store := buildResetTestService(t, newStubUserRepo())

	token, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if token != "" {
		t.Fatalf("expected no token for unknown email, got %q", token)
	}
	if len(store.values) != 0 {
		t.Fatalf("expected nothing stored, got %d entries", len(store.values))
	}
}

func TestServiceResetPasswordRejectsBadToken(t *testing.T) {
	svc, _ := buildResetTestService(t, newStubUserRepo())

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Token:       "not-a-real-token",
		NewPassword: "brand-new-password",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
