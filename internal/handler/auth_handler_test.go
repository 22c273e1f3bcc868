package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/habitloop/signup-api/internal/auth"
	"github.com/habitloop/signup-api/internal/entity"
	"github.com/habitloop/signup-api/internal/repository"
	"github.com/habitloop/signup-api/internal/service"
)

type stubUsersRepo struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	findByID    func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	create      func(ctx context.Context, email, passwordHash, role string) (*entity.User, error)
	list        func(ctx context.Context) ([]entity.User, error)
	update      func(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (r *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findByEmail(ctx, email)
}

func (r *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findByID(ctx, id)
}

func (r *stubUsersRepo) Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
	return r.create(ctx, email, passwordHash, role)
}

func (r *stubUsersRepo) List(ctx context.Context) ([]entity.User, error) {
	return r.list(ctx)
}

func (r *stubUsersRepo) Update(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
	return r.update(ctx, id, email, passwordHash, role)
}

func (r *stubUsersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.delete(ctx, id)
}

func postLogin(t *testing.T, h *AuthHandler, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, payload
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &entity.User{ID: uuid.New(), Email: "ops@example.com", PasswordHash: string(hash), Role: "admin"}
	repo := &stubUsersRepo{
		findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
			if email != "ops@example.com" {
				return nil, repository.ErrUserNotFound
			}
			return user, nil
		},
	}
	manager := auth.NewJWTManager("test-secret", time.Hour)
	h := NewAuthHandler(service.NewAuthService(repo, manager))

	t.Run("success", func(t *testing.T) {
		rec, payload := postLogin(t, h, `{"email":"ops@example.com","password":"hunter2"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		data, ok := payload.Data.(map[string]any)
		if !ok {
			t.Fatalf("unexpected data: %+v", payload.Data)
		}
		token, _ := data["access_token"].(string)
		if token == "" {
			t.Fatalf("expected access token in response")
		}
		claims, err := manager.ParseToken(token)
		if err != nil {
			t.Fatalf("issued token must parse: %v", err)
		}
		if claims.Email != "ops@example.com" || claims.Role != "admin" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, _ := postLogin(t, h, `{"email":"ops@example.com","password":"wrong"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		rec, _ := postLogin(t, h, `{"email":"ghost@example.com","password":"hunter2"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		rec, _ := postLogin(t, h, "{")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		rec, _ := postLogin(t, h, `{"email":"","password":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
