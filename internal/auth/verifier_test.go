package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify(t *testing.T) {
	v := NewVerifier("s3cret")
	tok, err := v.Issue("ops", RoleAdmin, time.Hour)
	require.NoError(t, err)

	p, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ops", p.Subject)
	assert.True(t, p.IsAdmin())
}

func TestVerify_Rejects(t *testing.T) {
	v := NewVerifier("s3cret")
	other := NewVerifier("different")
	wrongSig, err := other.Issue("ops", RoleAdmin, time.Hour)
	require.NoError(t, err)
	expired, err := v.Issue("ops", RoleAdmin, -time.Hour)
	require.NoError(t, err)
	foreign := NewVerifier("s3cret")
	foreign.Issuer = "someone-else"
	wrongIssuer, err := foreign.Issue("ops", RoleAdmin, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name string
		tok  string
	}{
		{"garbage", "not.a.jwt"},
		{"wrong signature", wrongSig},
		{"expired", expired},
		{"wrong issuer", wrongIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.tok)
			assert.Error(t, err)
		})
	}
}

func TestFromRequest(t *testing.T) {
	v := NewVerifier("s3cret")
	admin, err := v.Issue("ops", RoleAdmin, time.Hour)
	require.NoError(t, err)
	viewer, err := v.Issue("bob", "viewer", time.Hour)
	require.NoError(t, err)

	req := func(h string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/v1/admin/jobs/cleanup", nil)
		if h != "" {
			r.Header.Set("Authorization", h)
		}
		return r
	}

	_, err = v.FromRequest(req(""))
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = v.FromRequest(req("Basic abc"))
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = v.FromRequest(req("Bearer " + viewer))
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := v.FromRequest(req("bearer " + admin))
	require.NoError(t, err)
	assert.Equal(t, "ops", p.Subject)
}
