package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	users map[string]string
	got   []map[string]any
}

func (f *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	f.got = append(f.got, body)

	w.Header().Set("Content-Type", "application/json")
	user, _ := body["data"].(string)
	pass, _ := body["password"].(string)

	if _, ok := body["register"]; ok {
		if _, exists := f.users[user]; exists {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "user exists"})
			return
		}
		f.users[user] = pass
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + user})
		return
	}

	if f.users[user] != pass || pass == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + user})
}

func newTestClient(t *testing.T) (*Client, *fakeServer) {
	t.Helper()
	f := &fakeServer{users: map[string]string{"ada": "secret"}}

	r := mux.NewRouter()
	r.HandleFunc("/auth", f.handle).
		Methods(http.MethodPost).
		Headers("Content-Type", "application/json;charset=utf-8", "Accept", "application/json")
	r.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		URL:       srv.URL + "/auth",
		AppID:     "io.realm.RealmTasks",
		RealmPath: "realmtasks",
		Timeout:   5 * time.Second,
	}, nil)
	return c, f
}

func TestClient_LogIn(t *testing.T) {
	ctx := context.Background()
	c, f := newTestClient(t)

	token, err := c.LogIn(ctx, "ada", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-ada", token)

	require.Len(t, f.got, 1)
	assert.Equal(t, map[string]any{
		"provider": "password",
		"data":     "ada",
		"password": "secret",
		"app_id":   "io.realm.RealmTasks",
		"path":     "realmtasks",
	}, f.got[0])
}

func TestClient_BadCredentials(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.LogIn(context.Background(), "ada", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)
	assert.Equal(t, "Incorrect username or password.", err.Error())
}

func TestClient_Register(t *testing.T) {
	ctx := context.Background()
	c, f := newTestClient(t)

	token, err := c.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-bob", token)
	assert.InDelta(t, 1, f.got[0]["register"], 0)

	_, err = c.Register(ctx, "bob", "pw")
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusConflict, serr.Status)
	assert.Equal(t, "user exists", serr.Message)
}

func TestClient_MissingToken(t *testing.T) {
	c, _ := newTestClient(t)
	c.cfg.URL = c.cfg.URL[:len(c.cfg.URL)-len("/auth")] + "/broken"

	_, err := c.LogIn(context.Background(), "ada", "secret")
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "failed getting token", serr.Message)
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1/auth", Timeout: time.Second}, nil)
	_, err := c.LogIn(context.Background(), "ada", "secret")
	require.Error(t, err)
}
