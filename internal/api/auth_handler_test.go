package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmccdv/parrot/internal/domain"
	"github.com/dmccdv/parrot/internal/mocks"
	"github.com/dmccdv/parrot/internal/service/auth"
)

func newAuthHandlerFixture() (*AuthHandler, *mocks.MockUserStore, *mocks.MockJWTService) {
	userStore := mocks.NewMockUserStore()
	jwtService := mocks.NewMockJWTService()
	verifier := auth.NewBcryptVerifier(bcrypt.MinCost)
	return NewAuthHandler(userStore, jwtService, verifier, verifier), userStore, jwtService
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("valid registration", func(t *testing.T) {
		t.Parallel()
		handler, userStore, _ := newAuthHandlerFixture()

		rec := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "user@example.com",
			Password: "a-long-enough-password",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		stored, ok := userStore.Users["user@example.com"]
		require.True(t, ok, "user persisted")
		assert.Empty(t, stored.Password, "plaintext cleared before storage")
		assert.NotEmpty(t, stored.HashedPassword)
		assert.NotEqual(t, "a-long-enough-password", stored.HashedPassword)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthHandlerFixture()

		payload := RegisterRequest{Email: "dupe@example.com", Password: "a-long-enough-password"}
		rec := postJSON(t, handler.Register, "/api/auth/register", payload)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = postJSON(t, handler.Register, "/api/auth/register", payload)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password rejected", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthHandlerFixture()

		rec := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "user@example.com",
			Password: "short",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthHandlerFixture()

		rec := postJSON(t, handler.Register, "/api/auth/register", RegisterRequest{
			Email:    "not-an-email",
			Password: "a-long-enough-password",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthHandlerFixture()

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		handler.Register(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	seedUser := func(t *testing.T, userStore *mocks.MockUserStore, email, password string) *domain.User {
		t.Helper()
		verifier := auth.NewBcryptVerifier(bcrypt.MinCost)
		hashed, err := verifier.Hash(password)
		require.NoError(t, err)
		user, err := domain.NewUser(email, hashed)
		require.NoError(t, err)
		user.HashedPassword = hashed
		userStore.Users[email] = user
		return user
	}

	t.Run("valid credentials", func(t *testing.T) {
		t.Parallel()
		handler, userStore, _ := newAuthHandlerFixture()
		user := seedUser(t, userStore, "user@example.com", "a-long-enough-password")

		rec := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "user@example.com",
			Password: "a-long-enough-password",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		handler, userStore, _ := newAuthHandlerFixture()
		seedUser(t, userStore, "user@example.com", "a-long-enough-password")

		rec := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "user@example.com",
			Password: "the-wrong-password!!",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email gets the same response as a wrong password", func(t *testing.T) {
		t.Parallel()
		handler, userStore, _ := newAuthHandlerFixture()
		seedUser(t, userStore, "user@example.com", "a-long-enough-password")

		wrongPassword := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "user@example.com",
			Password: "the-wrong-password!!",
		})
		unknownEmail := postJSON(t, handler.Login, "/api/auth/login", LoginRequest{
			Email:    "nobody@example.com",
			Password: "a-long-enough-password",
		})

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String(),
			"responses must not reveal whether the account exists")
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("valid refresh token", func(t *testing.T) {
		t.Parallel()
		handler, _, jwtService := newAuthHandlerFixture()
		userID := uuid.New()
		jwtService.ValidateRefreshTokenFn = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			assert.Equal(t, "valid-refresh", tokenString)
			return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
		}

		rec := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "valid-refresh",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp RefreshTokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthHandlerFixture()

		rec := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{
			RefreshToken: "garbage",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing refresh token", func(t *testing.T) {
		t.Parallel()
		handler, _, _ := newAuthHandlerFixture()

		rec := postJSON(t, handler.RefreshToken, "/api/auth/refresh", RefreshTokenRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
