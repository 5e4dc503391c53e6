package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/vr-campus-tours/internal/model"
	"github.com/iliyamo/vr-campus-tours/internal/utils"
)

const testSecret = "auth-test-secret"

// fakeSessions resolves token hashes from a map; a missing hash reads as
// revoked/expired, exactly like the repository reports it.
type fakeSessions struct {
	byHash map[string]uint64
}

func (f *fakeSessions) Validate(_ context.Context, tokenHash string) (uint64, error) {
	if id, ok := f.byHash[tokenHash]; ok {
		return id, nil
	}
	return 0, sql.ErrNoRows
}

type fakeUsers struct {
	byID map[uint64]model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return model.User{}, sql.ErrNoRows
}

// authFixture issues a token for the given user, registers its session and
// returns everything a request needs.
type authFixture struct {
	sessions *fakeSessions
	users    *fakeUsers
	token    string
}

func newAuthFixture(t *testing.T, u model.User, ttlMin int) *authFixture {
	t.Helper()
	access, err := utils.NewAccessToken(testSecret, u.ID, u.Role, ttlMin)
	require.NoError(t, err)
	return &authFixture{
		sessions: &fakeSessions{byHash: map[string]uint64{utils.HashToken(access.Token): u.ID}},
		users:    &fakeUsers{byID: map[uint64]model.User{u.ID: u}},
		token:    access.Token,
	}
}

func (fx *authFixture) do(t *testing.T, token string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var passed echo.Context
	next := func(c echo.Context) error {
		passed = c
		return c.NoContent(http.StatusOK)
	}
	err := Auth(testSecret, fx.sessions, fx.users)(next)(c)
	require.NoError(t, err)
	return rec, passed
}

func TestAuthValidTokenPassesThrough(t *testing.T) {
	u := model.User{ID: 7, Name: "Ada", Email: "ada@example.com", Role: model.RoleUser}
	fx := newAuthFixture(t, u, 15)

	rec, passed := fx.do(t, fx.token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, passed)
	assert.Equal(t, uint64(7), passed.Get("user_id"))
	assert.Equal(t, model.RoleUser, passed.Get("role"))
	assert.Equal(t, utils.HashToken(fx.token), passed.Get("token_hash"))
}

func TestAuthMissingBearer(t *testing.T) {
	fx := newAuthFixture(t, model.User{ID: 7, Role: model.RoleUser}, 15)
	rec, passed := fx.do(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, passed)
}

func TestAuthRevokedSessionRejected(t *testing.T) {
	u := model.User{ID: 7, Role: model.RoleUser}
	fx := newAuthFixture(t, u, 15)

	// Logout revokes the session row; the JWT itself is still within its
	// expiry window but must stop working immediately.
	delete(fx.sessions.byHash, utils.HashToken(fx.token))

	rec, passed := fx.do(t, fx.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "session expired or revoked")
	assert.Nil(t, passed)
}

func TestAuthExpiredTokenRejected(t *testing.T) {
	u := model.User{ID: 7, Role: model.RoleUser}
	fx := newAuthFixture(t, u, -5) // issued already expired

	rec, passed := fx.do(t, fx.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
	assert.Nil(t, passed)
}

func TestAuthStaleRoleClaimRejected(t *testing.T) {
	u := model.User{ID: 7, Role: model.RoleAdmin}
	fx := newAuthFixture(t, u, 15)

	// The user was demoted after the token was issued. The stored role is
	// authoritative; the old admin claim must not pass.
	demoted := u
	demoted.Role = model.RoleUser
	fx.users.byID[u.ID] = demoted

	rec, passed := fx.do(t, fx.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "role changed")
	assert.Nil(t, passed)
}

func TestAuthDeletedUserRejected(t *testing.T) {
	u := model.User{ID: 7, Role: model.RoleUser}
	fx := newAuthFixture(t, u, 15)
	delete(fx.users.byID, u.ID)

	rec, passed := fx.do(t, fx.token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "account no longer exists")
	assert.Nil(t, passed)
}

func TestAuthForeignSignatureRejected(t *testing.T) {
	u := model.User{ID: 7, Role: model.RoleUser}
	fx := newAuthFixture(t, u, 15)

	forged, err := utils.NewAccessToken("some-other-secret", u.ID, u.Role, 15)
	require.NoError(t, err)

	rec, passed := fx.do(t, forged.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, passed)
}
