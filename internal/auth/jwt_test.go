package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParseRoundTrip(t *testing.T) {
	ts := TokenService{Secret: []byte("s"), Issuer: "seriesjp", Duration: time.Hour}
	raw, exp, err := ts.Sign(&User{ID: "u1", Username: "ana", Email: "ana@example.com", TokenVersion: 3})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	c, err := ts.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, 3, c.TokenVersion)
}

func TestParseRejects(t *testing.T) {
	ts := TokenService{Secret: []byte("s"), Issuer: "seriesjp", Duration: time.Hour}
	raw, _, err := ts.Sign(&User{ID: "u1"})
	require.NoError(t, err)

	_, err = TokenService{Secret: []byte("other"), Issuer: "seriesjp"}.Parse(raw)
	assert.Error(t, err)
	_, err = TokenService{Secret: []byte("s"), Issuer: "someone"}.Parse(raw)
	assert.Error(t, err)

	expired, _, err := TokenService{Secret: []byte("s"), Issuer: "seriesjp", Duration: -time.Minute}.Sign(&User{ID: "u1"})
	require.NoError(t, err)
	_, err = ts.Parse(expired)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
}
