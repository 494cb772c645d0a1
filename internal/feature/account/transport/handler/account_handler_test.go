package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"microblog/internal/feature/account/domain/entity"
	"microblog/internal/feature/account/transport/handler"
	"microblog/internal/feature/account/usecase"
	graphusecase "microblog/internal/feature/graph/usecase"
	postentity "microblog/internal/feature/posts/domain/entity"
	jwtmw "microblog/internal/platform/jwt"
)

type mockAccounts struct {
	RegisterFunc             func(ctx context.Context, username, email, password string) (*entity.User, error)
	LoginFunc                func(ctx context.Context, username, password string) (string, error)
	ProfileFunc              func(ctx context.Context, username string) (*entity.User, error)
	UpdateProfileFunc        func(ctx context.Context, userID uint, username, aboutMe string) (*entity.User, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ResetPasswordFunc        func(ctx context.Context, token, password string) error
}

func (m *mockAccounts) Register(ctx context.Context, username, email, password string) (*entity.User, error) {
	return m.RegisterFunc(ctx, username, email, password)
}

func (m *mockAccounts) Login(ctx context.Context, username, password string) (string, error) {
	return m.LoginFunc(ctx, username, password)
}

func (m *mockAccounts) Profile(ctx context.Context, username string) (*entity.User, error) {
	return m.ProfileFunc(ctx, username)
}

func (m *mockAccounts) UpdateProfile(ctx context.Context, userID uint, username, aboutMe string) (*entity.User, error) {
	return m.UpdateProfileFunc(ctx, userID, username, aboutMe)
}

func (m *mockAccounts) RequestPasswordReset(ctx context.Context, email string) error {
	return m.RequestPasswordResetFunc(ctx, email)
}

func (m *mockAccounts) ResetPassword(ctx context.Context, token, password string) error {
	return m.ResetPasswordFunc(ctx, token, password)
}

type stubCounts struct {
	counts graphusecase.Counts
	err    error
}

func (s stubCounts) Counts(context.Context, uint) (graphusecase.Counts, error) { return s.counts, s.err }

type stubPosts struct {
	page *postentity.Page
	err  error
}

func (s stubPosts) UserPosts(context.Context, uint, int, int) (*postentity.Page, error) {
	return s.page, s.err
}

func newRouter(accounts *mockAccounts, counts stubCounts, posts stubPosts, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewAccountHandler(accounts, counts, posts)
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/password_reset_request", h.RequestPasswordReset)
	r.POST("/password_reset/:token", h.ResetPassword)
	r.GET("/users/:username", h.Profile)
	r.PUT("/profile", func(c *gin.Context) {
		if userID != 0 {
			c.Set(jwtmw.ContextUserID, userID)
		}
	}, h.UpdateProfile)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAccountHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		err            error
		expectedStatus int
	}{
		{name: "success", body: `{"username":"susan","email":"susan@example.com","password":"password123"}`, expectedStatus: http.StatusCreated},
		{name: "error: invalid email", body: `{"username":"susan","email":"nope","password":"password123"}`, expectedStatus: http.StatusBadRequest},
		{name: "error: missing field", body: `{"username":"susan"}`, expectedStatus: http.StatusBadRequest},
		{name: "error: username taken", body: `{"username":"susan","email":"susan@example.com","password":"password123"}`, err: usecase.ErrUsernameTaken, expectedStatus: http.StatusConflict},
		{name: "error: email taken", body: `{"username":"susan","email":"susan@example.com","password":"password123"}`, err: usecase.ErrEmailTaken, expectedStatus: http.StatusConflict},
		{name: "error: short password", body: `{"username":"susan","email":"susan@example.com","password":"short"}`, err: usecase.ErrPasswordTooShort, expectedStatus: http.StatusBadRequest},
		{name: "error: internal", body: `{"username":"susan","email":"susan@example.com","password":"password123"}`, err: errors.New("boom"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &mockAccounts{
				RegisterFunc: func(ctx context.Context, username, email, password string) (*entity.User, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &entity.User{ID: 1, Username: username, Email: email}, nil
				},
			}
			w := do(newRouter(accounts, stubCounts{}, stubPosts{}, 0), http.MethodPost, "/register", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAccountHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		token          string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success", body: `{"username":"susan","password":"password123"}`, token: "jwt",
			expectedStatus: http.StatusOK, expectedBody: `{"token":"jwt"}`,
		},
		{
			name: "error: bad credentials", body: `{"username":"susan","password":"x"}`, err: usecase.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized, expectedBody: `{"error":"invalid username or password"}`,
		},
		{
			name: "error: malformed", body: `{`,
			expectedStatus: http.StatusBadRequest, expectedBody: `{"error":"invalid request"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &mockAccounts{
				LoginFunc: func(ctx context.Context, username, password string) (string, error) {
					return tt.token, tt.err
				},
			}
			w := do(newRouter(accounts, stubCounts{}, stubPosts{}, 0), http.MethodPost, "/login", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestAccountHandler_PasswordReset(t *testing.T) {
	accounts := &mockAccounts{
		RequestPasswordResetFunc: func(ctx context.Context, email string) error { return nil },
		ResetPasswordFunc: func(ctx context.Context, token, password string) error {
			if token != "good" {
				return usecase.ErrInvalidToken
			}
			return nil
		},
	}
	r := newRouter(accounts, stubCounts{}, stubPosts{}, 0)

	w := do(r, http.MethodPost, "/password_reset_request", `{"email":"anyone@example.com"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(r, http.MethodPost, "/password_reset/good", `{"password":"new-password"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/password_reset/bad", `{"password":"new-password"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid or expired reset token"}`, w.Body.String())
}

func TestAccountHandler_Profile(t *testing.T) {
	seen := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	accounts := &mockAccounts{
		ProfileFunc: func(ctx context.Context, username string) (*entity.User, error) {
			if username != "susan" {
				return nil, usecase.ErrUserNotFound
			}
			return &entity.User{ID: 2, Username: "susan", Email: "susan@example.com", AboutMe: "hi", LastSeen: seen}, nil
		},
	}
	posts := stubPosts{page: postentity.NewPage([]postentity.Post{{ID: 9, Body: "yo", UserID: 2, Author: "susan", CreatedAt: seen}}, 1, 15, 1)}
	counts := stubCounts{counts: graphusecase.Counts{Followers: 3, Following: 1}}
	r := newRouter(accounts, counts, posts, 0)

	w := do(r, http.MethodGet, "/users/susan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"followers":3`)
	assert.Contains(t, w.Body.String(), `"following":1`)
	assert.Contains(t, w.Body.String(), `"last_seen":"2024-03-01T08:00:00Z"`)
	assert.Contains(t, w.Body.String(), `"body":"yo"`)

	w = do(r, http.MethodGet, "/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = newRouter(accounts, stubCounts{err: errors.New("boom")}, posts, 0)
	w = do(r, http.MethodGet, "/users/susan", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	tests := []struct {
		name           string
		userID         uint
		err            error
		expectedStatus int
	}{
		{name: "success", userID: 2, expectedStatus: http.StatusOK},
		{name: "error: unauthenticated", userID: 0, expectedStatus: http.StatusUnauthorized},
		{name: "error: username taken", userID: 2, err: usecase.ErrUsernameTaken, expectedStatus: http.StatusConflict},
		{name: "error: about me too long", userID: 2, err: usecase.ErrInvalidInput, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &mockAccounts{
				UpdateProfileFunc: func(ctx context.Context, userID uint, username, aboutMe string) (*entity.User, error) {
					assert.Equal(t, tt.userID, userID)
					if tt.err != nil {
						return nil, tt.err
					}
					return &entity.User{ID: userID, Username: username, AboutMe: aboutMe}, nil
				},
			}
			r := newRouter(accounts, stubCounts{}, stubPosts{}, tt.userID)

			w := do(r, http.MethodPut, "/profile", `{"username":"susan","about_me":"new"}`)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
