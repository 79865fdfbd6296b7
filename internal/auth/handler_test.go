package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seriesjp/internal/logger"
	"seriesjp/pkg/database/dbtest"
)

type fakeGoogle struct {
	id  *GoogleIdentity
	err error
}

func (f fakeGoogle) Verify(context.Context, string) (*GoogleIdentity, error) {
	return f.id, f.err
}

type authResp struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

type testEnv struct {
	router *gin.Engine
	repo   *Repo
	google *fakeGoogle
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewRepo(dbtest.Open(t))
	tokens := TokenService{Secret: []byte("test"), Issuer: "seriesjp", Duration: time.Hour}
	g := &fakeGoogle{}
	h := NewHandler(repo, tokens, g, logger.Discard())

	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"), nil)
	users := r.Group("/users", AuthMiddleware(tokens, repo))
	h.RegisterUserRoutes(users)
	return &testEnv{router: r, repo: repo, google: g}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) authResp {
	t.Helper()
	var r authResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	return r
}

func (e *testEnv) register(t *testing.T, username, email, password string) authResp {
	t.Helper()
	w := e.do(http.MethodPost, "/auth/register", "", gin.H{"username": username, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func TestRegisterThenMe(t *testing.T) {
	e := newEnv(t)
	reg := e.register(t, "ana", "Ana@Example.com", "password1")
	assert.Equal(t, "ana@example.com", reg.User.Email)
	require.NotEmpty(t, reg.Token)

	w := e.do(http.MethodGet, "/users/me", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, reg.User.ID, me.ID)
	assert.Equal(t, "ana", me.Username)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/auth/register", "", gin.H{"username": "a", "email": "nope", "password": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "username")
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestRegisterConflict(t *testing.T) {
	e := newEnv(t)
	e.register(t, "ana", "ana@example.com", "password1")

	w := e.do(http.MethodPost, "/auth/register", "", gin.H{"username": "other", "email": "ana@example.com", "password": "password1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = e.do(http.MethodPost, "/auth/register", "", gin.H{"username": "ana", "email": "x@example.com", "password": "password1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.register(t, "ana", "ana@example.com", "password1")

	w := e.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ANA@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w).Token)

	w = e.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ana@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ghost@example.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	e := newEnv(t)
	reg := e.register(t, "ana", "ana@example.com", "password1")

	w := e.do(http.MethodPost, "/auth/logout", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/users/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	reg := e.register(t, "ana", "ana@example.com", "password1")

	w := e.do(http.MethodPost, "/auth/change-password", reg.Token, gin.H{"old_password": "bad", "new_password": "password2"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/auth/change-password", reg.Token, gin.H{"old_password": "password1", "new_password": "password2"})
	require.Equal(t, http.StatusOK, w.Code)

	// old token is gone, new password works
	w = e.do(http.MethodGet, "/users/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ana@example.com", "password": "password2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingBearer(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodGet, "/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoogleCreatesThenFindsBySubject(t *testing.T) {
	e := newEnv(t)
	e.google.id = &GoogleIdentity{Subject: "g-1", Email: "luis@gmail.com", EmailVerified: true, Name: "Luis"}

	w := e.do(http.MethodPost, "/auth/google", "", gin.H{"id_token": "tok"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode(t, w)
	assert.Equal(t, "Luis", first.User.Username)

	w = e.do(http.MethodPost, "/auth/google", "", gin.H{"id_token": "tok"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.User.ID, decode(t, w).User.ID)
}

func TestGoogleLinksExistingEmail(t *testing.T) {
	e := newEnv(t)
	reg := e.register(t, "ana", "ana@gmail.com", "password1")
	e.google.id = &GoogleIdentity{Subject: "g-2", Email: "ana@gmail.com", EmailVerified: true}

	w := e.do(http.MethodPost, "/auth/google", "", gin.H{"id_token": "tok"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, reg.User.ID, decode(t, w).User.ID)

	u, err := e.repo.GetByGoogleSub(context.Background(), "g-2")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, reg.User.ID, u.ID)
}

func TestGoogleLinkRevokesPasswordAndTokens(t *testing.T) {
	e := newEnv(t)
	// someone registered the address before its owner signed in with Google
	squatter := e.register(t, "squat", "victim@gmail.com", "password1")
	e.google.id = &GoogleIdentity{Subject: "g-9", Email: "victim@gmail.com", EmailVerified: true}

	w := e.do(http.MethodPost, "/auth/google", "", gin.H{"id_token": "tok"})
	require.Equal(t, http.StatusOK, w.Code)
	owner := decode(t, w)

	w = e.do(http.MethodPost, "/auth/login", "", gin.H{"email": "victim@gmail.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodGet, "/users/me", squatter.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodGet, "/users/me", owner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// the owner can set a password without knowing the old one
	w = e.do(http.MethodPost, "/auth/change-password", owner.Token, gin.H{"new_password": "mine-now"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	e := newEnv(t)
	reg := e.register(t, "ana", "ana@example.com", "password1")
	db := e.repo.DB

	_, err := db.Exec(`INSERT INTO watchlist (user_id, kind, title_id, title) VALUES (?, 'series', 1399, 'GoT')`, reg.User.ID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO ratings (user_id, kind, title_id, score) VALUES (?, 'movie', 550, 9)`, reg.User.ID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO favorites (user_id, id, title, type) VALUES (?, '550', 'Fight Club', 'pelicula')`, reg.User.ID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO comments (id, kind, title_id, user_id, username, score, date, text)
		VALUES ('c1', 'movie', 550, ?, 'ana', 9, '2024-01-01', 'top')`, reg.User.ID)
	require.NoError(t, err)

	w := e.do(http.MethodDelete, "/users/me", reg.Token, gin.H{"password": "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodDelete, "/users/me", reg.Token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodDelete, "/users/me", reg.Token, gin.H{"password": "password1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, table := range []string{"watchlist", "ratings", "favorites"} {
		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table+` WHERE user_id = ?`, reg.User.ID))
		assert.Zero(t, n, table)
	}
	var comments int
	require.NoError(t, db.Get(&comments, `SELECT COUNT(*) FROM comments WHERE user_id = ?`, reg.User.ID))
	assert.Equal(t, 1, comments)

	w = e.do(http.MethodGet, "/users/me", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = e.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ana@example.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// the address is free again
	e.register(t, "ana", "ana@example.com", "password1")
}

func TestDeleteGoogleOnlyAccount(t *testing.T) {
	e := newEnv(t)
	e.google.id = &GoogleIdentity{Subject: "g-5", Email: "luis@gmail.com", EmailVerified: true, Name: "Luis"}
	w := e.do(http.MethodPost, "/auth/google", "", gin.H{"id_token": "tok"})
	require.Equal(t, http.StatusCreated, w.Code)
	tok := decode(t, w).Token

	w = e.do(http.MethodDelete, "/users/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := e.repo.GetByGoogleSub(context.Background(), "g-5")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGoogleUsernameCollision(t *testing.T) {
	e := newEnv(t)
	e.register(t, "Luis", "luis@example.com", "password1")
	e.google.id = &GoogleIdentity{Subject: "g-3", Email: "other@gmail.com", EmailVerified: true, Name: "Luis"}

	w := e.do(http.MethodPost, "/auth/google", "", gin.H{"id_token": "tok"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, decode(t, w).User.Username, "Luis-")
}

func TestGoogleRejected(t *testing.T) {
	e := newEnv(t)
	e.google.err = errors.New("bad signature")
	w := e.do(http.MethodPost, "/auth/google", "", gin.H{"id_token": "tok"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/auth/google", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
