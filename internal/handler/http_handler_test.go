package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenon0777/payever-backend-assessment/internal/domain"
	"github.com/zenon0777/payever-backend-assessment/internal/service"
	"github.com/zenon0777/payever-backend-assessment/pkg/response"
)

// ---- mock implementation ----

type mockUserService struct {
	createFn       func(*domain.CreateUserRequest) (*domain.CreateUserResult, error)
	getFn          func(string) (*domain.DirectoryUser, error)
	getAvatarFn    func(string) (string, error)
	deleteAvatarFn func(string) error
}

func (m *mockUserService) CreateUser(_ context.Context, req *domain.CreateUserRequest) (*domain.CreateUserResult, error) {
	if m.createFn != nil {
		return m.createFn(req)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockUserService) GetUser(_ context.Context, id string) (*domain.DirectoryUser, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return nil, fmt.Errorf("not configured")
}

func (m *mockUserService) GetUserAvatar(_ context.Context, id string) (string, error) {
	if m.getAvatarFn != nil {
		return m.getAvatarFn(id)
	}
	return "", fmt.Errorf("not configured")
}

func (m *mockUserService) DeleteUserAvatar(_ context.Context, id string) error {
	if m.deleteAvatarFn != nil {
		return m.deleteAvatarFn(id)
	}
	return fmt.Errorf("not configured")
}

// ---- helpers ----

func newTestRouter(svc service.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func doRequest(router *gin.Engine, method, url string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ---- POST /api/users ----

func TestCreateUser_Created(t *testing.T) {
	svc := &mockUserService{
		createFn: func(req *domain.CreateUserRequest) (*domain.CreateUserResult, error) {
			return &domain.CreateUserResult{User: &domain.User{ID: "u-1", Email: req.Email, Name: req.Name, Job: req.Job}}, nil
		},
	}
	w := doRequest(newTestRouter(svc), http.MethodPost, "/api/users", `{"email":"a@b.com","name":"A","job":"Eng"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "u-1", data["_id"])
	assert.Equal(t, "a@b.com", data["email"])
	assert.Empty(t, w.Header().Get(HeaderAdvisory))
}

func TestCreateUser_DegradedSetsAdvisoryHeader(t *testing.T) {
	svc := &mockUserService{
		createFn: func(req *domain.CreateUserRequest) (*domain.CreateUserResult, error) {
			return &domain.CreateUserResult{
				User:       &domain.User{ID: "u-2", Email: req.Email},
				Advisories: []domain.Advisory{{Effect: domain.EffectWelcomeEmail, Err: fmt.Errorf("smtp down")}},
			}, nil
		},
	}
	w := doRequest(newTestRouter(svc), http.MethodPost, "/api/users", `{"email":"a@b.com","name":"A","job":"Eng"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, domain.EffectWelcomeEmail, w.Header().Get(HeaderAdvisory))
}

func TestCreateUser_Validation(t *testing.T) {
	called := false
	svc := &mockUserService{
		createFn: func(*domain.CreateUserRequest) (*domain.CreateUserResult, error) {
			called = true
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	for _, body := range []string{
		`{"name":"A","job":"Eng"}`,
		`{"email":"not-an-email","name":"A","job":"Eng"}`,
		`{"email":"a@b.com","job":"Eng"}`,
		`{"email":"a@b.com","name":"A"}`,
		`not json`,
	} {
		w := doRequest(router, http.MethodPost, "/api/users", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, response.CodeBadRequest, decode(t, w).Error.Code)
	}
	assert.False(t, called)
}

func TestCreateUser_Conflict(t *testing.T) {
	svc := &mockUserService{
		createFn: func(*domain.CreateUserRequest) (*domain.CreateUserResult, error) {
			return nil, service.ErrEmailExists
		},
	}
	w := doRequest(newTestRouter(svc), http.MethodPost, "/api/users", `{"email":"a@b.com","name":"A","job":"Eng"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeConflict, decode(t, w).Error.Code)
}

func TestCreateUser_PublishFailure(t *testing.T) {
	svc := &mockUserService{
		createFn: func(*domain.CreateUserRequest) (*domain.CreateUserResult, error) {
			return nil, fmt.Errorf("%w: broker down", service.ErrEventPublish)
		},
	}
	w := doRequest(newTestRouter(svc), http.MethodPost, "/api/users", `{"email":"a@b.com","name":"A","job":"Eng"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- GET /api/users/:userId ----

func TestGetUser_PassesDirectoryBodyThrough(t *testing.T) {
	raw := `{"data":{"id":2,"email":"janet.weaver@reqres.in"},"support":{"text":"hi"}}`
	svc := &mockUserService{
		getFn: func(id string) (*domain.DirectoryUser, error) {
			assert.Equal(t, "2", id)
			return &domain.DirectoryUser{Raw: json.RawMessage(raw)}, nil
		},
	}
	w := doRequest(newTestRouter(svc), http.MethodGet, "/api/users/2", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, raw, w.Body.String())
}

func TestGetUser_NotFound(t *testing.T) {
	svc := &mockUserService{
		getFn: func(string) (*domain.DirectoryUser, error) { return nil, service.ErrUserNotFound },
	}
	w := doRequest(newTestRouter(svc), http.MethodGet, "/api/users/999", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, decode(t, w).Error.Code)
}

// ---- GET /api/users/:userId/avatar ----

func TestGetUserAvatar(t *testing.T) {
	svc := &mockUserService{
		getAvatarFn: func(string) (string, error) { return "aW1hZ2U=", nil },
	}
	w := doRequest(newTestRouter(svc), http.MethodGet, "/api/users/1/avatar", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aW1hZ2U=", decode(t, w).Data)
}

func TestGetUserAvatar_Errors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrUserNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: timeout", service.ErrAvatarFetch), http.StatusBadGateway},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &mockUserService{
			getAvatarFn: func(string) (string, error) { return "", tc.err },
		}
		w := doRequest(newTestRouter(svc), http.MethodGet, "/api/users/1/avatar", "")
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

// ---- DELETE /api/users/:userId/avatar ----

func TestDeleteUserAvatar(t *testing.T) {
	var got string
	svc := &mockUserService{
		deleteAvatarFn: func(id string) error { got = id; return nil },
	}
	w := doRequest(newTestRouter(svc), http.MethodDelete, "/api/users/5/avatar", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "5", got)
}

func TestDeleteUserAvatar_NotFound(t *testing.T) {
	svc := &mockUserService{
		deleteAvatarFn: func(string) error { return service.ErrAvatarNotFound },
	}
	w := doRequest(newTestRouter(svc), http.MethodDelete, "/api/users/5/avatar", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
