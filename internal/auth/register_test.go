package auth

import (
	"context"
	"testing"

	"github.com/cbieks/authentix/internal/users"
	"github.com/cbieks/authentix/pkg/config"
	pkgmodels "github.com/cbieks/authentix/pkg/db/models"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/cbieks/authentix/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubUserRepository struct {
	byEmail    map[string]*pkgmodels.User
	byUsername map[string]*pkgmodels.User
	created    *pkgmodels.User
	createErr  error
}

func newStubUserRepository() *stubUserRepository {
	return &stubUserRepository{
		byEmail:    map[string]*pkgmodels.User{},
		byUsername: map[string]*pkgmodels.User{},
	}
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) FindByUsername(ctx context.Context, username string) (*pkgmodels.User, error) {
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := &pkgmodels.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		Username:     dto.Username,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PasswordHash: dto.PasswordHash,
		IsActive:     true,
	}
	s.byEmail[dto.Email] = user
	s.byUsername[dto.Username] = user
	s.created = user
	return user, nil
}

func newRegisterTestService(t *testing.T, repo *stubUserRepository) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return repo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc
}

func sampleRegisterRequest(email, username string) RegisterRequest {
	return RegisterRequest{
		FirstName: "Jamie",
		LastName:  "Rivera",
		Username:  username,
		Email:     email,
		Password:  "Secret123!",
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	repo := newStubUserRepository()
	svc := newRegisterTestService(t, repo)
	req := sampleRegisterRequest("New@Example.com", "JamieR")

	if err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if repo.created == nil {
		t.Fatal("expected user to be created")
	}
	if repo.created.Email != "new@example.com" {
		t.Fatalf("expected normalized email, got %q", repo.created.Email)
	}
	if repo.created.Username != "jamier" {
		t.Fatalf("expected normalized username, got %q", repo.created.Username)
	}
	if repo.created.PasswordHash == req.Password {
		t.Fatal("password must not be stored in plaintext")
	}
	valid, err := security.VerifyPassword(req.Password, repo.created.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("stored hash does not verify: valid=%v err=%v", valid, err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newStubUserRepository()
	repo.byEmail["taken@example.com"] = &pkgmodels.User{ID: uuid.New()}
	svc := newRegisterTestService(t, repo)

	err := svc.Register(context.Background(), sampleRegisterRequest("taken@example.com", "fresh"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("expected no user creation")
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	repo := newStubUserRepository()
	repo.byUsername["taken"] = &pkgmodels.User{ID: uuid.New()}
	svc := newRegisterTestService(t, repo)

	err := svc.Register(context.Background(), sampleRegisterRequest("fresh@example.com", "Taken"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
