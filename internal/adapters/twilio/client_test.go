package twilio_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/lynkia-agent/internal/adapters/twilio"
	"github.com/PabloGalante/lynkia-agent/internal/domain"
)

func newClient(t *testing.T, srv *httptest.Server) *twilio.Client {
	t.Helper()
	c, err := twilio.NewClient(twilio.Config{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "+14155238886",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	return c
}

func TestDeliverPostsForm(t *testing.T) {
	var got http.Request
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid": "SM1"}`))
	}))
	defer srv.Close()

	err := newClient(t, srv).Deliver(context.Background(), "+33600000000", "✅ Intervention créée")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.URL.Path)
	user, pass, ok := got.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "AC123", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, []string{"whatsapp:+14155238886"}, form["From"])
	assert.Equal(t, []string{"whatsapp:+33600000000"}, form["To"])
	assert.Equal(t, []string{"✅ Intervention créée"}, form["Body"])
}

func TestDeliverTruncatesLongBodies(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		body = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	require.NoError(t, newClient(t, srv).Deliver(context.Background(), "whatsapp:+33600000000", strings.Repeat("é", 2000)))
	assert.Equal(t, 1600, utf8.RuneCountInString(body))
	assert.True(t, strings.HasSuffix(body, "…"))
}

func TestDeliverErrors(t *testing.T) {
	status := http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message": "invalid To"}`))
	}))
	defer srv.Close()
	c := newClient(t, srv)

	err := c.Deliver(context.Background(), "+33600000000", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, err.Error(), "invalid To")

	status = http.StatusServiceUnavailable
	err = c.Deliver(context.Background(), "+33600000000", "x")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestFetchMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "AC123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	data, ct, err := newClient(t, srv).FetchMedia(context.Background(), srv.URL+"/2010-04-01/Accounts/AC123/Messages/MM1/Media/ME1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", ct)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := twilio.NewClient(twilio.Config{AccountSID: "AC123"})
	assert.Error(t, err)
}
