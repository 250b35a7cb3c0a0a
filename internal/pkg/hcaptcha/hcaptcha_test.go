package hcaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, handler http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	v := NewVerifier("s3cret")
	v.endpoint = srv.URL
	return v
}

func TestVerify(t *testing.T) {
	v := newTestVerifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	})

	assert.NoError(t, v.Verify(context.Background(), "good"))

	err := v.Verify(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid-input-response")

	assert.ErrorIs(t, v.Verify(context.Background(), ""), ErrMissingToken)
}
