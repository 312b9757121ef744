package supabase_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/vaultpanel/internal/adapter/driven/supabase"
	"github.com/ericfisherdev/vaultpanel/internal/domain/model"
	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

const testAnonKey = "anon-key"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := supabase.NewClient(server.URL+"/", testAnonKey, server.Client(), discardLogger)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func tokenBody(userID, email, access string, expiresAt time.Time) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": "refresh-" + access,
		"token_type":    "bearer",
		"expires_at":    expiresAt.Unix(),
		"user":          map[string]any{"id": userID, "email": email},
	}
}

// memSessionStore is an in-memory driven.SessionStore.
type memSessionStore struct {
	mu      sync.Mutex
	session *model.Session
	saves   int
	clears  int
}

func (m *memSessionStore) Save(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.session = &s
	return nil
}

func (m *memSessionStore) Load(_ context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	s := *m.session
	return &s, nil
}

func (m *memSessionStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.session = nil
	return nil
}

func receive(t *testing.T, ch <-chan model.AuthEvent) model.AuthEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no auth event received")
		return model.AuthEvent{}
	}
}

func TestNewClient_RejectsBadConfig(t *testing.T) {
	_, err := supabase.NewClient("ftp://example.com", testAnonKey, nil, discardLogger)
	assert.Error(t, err)

	_, err = supabase.NewClient("https://example.supabase.co", "", nil, discardLogger)
	assert.Error(t, err)

	_, err = supabase.NewClient("https://example.supabase.co", testAnonKey, nil, discardLogger)
	assert.NoError(t, err)
}

func TestAuth_SignInEmitsSignedInAndPersists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Equal(t, "hunter22", body["password"])

		writeJSON(w, http.StatusOK, tokenBody("user-1", "alice@example.com", "tok-1", time.Now().Add(time.Hour)))
	})
	store := &memSessionStore{}
	auth := supabase.NewAuth(client, store, discardLogger)
	events, unsubscribe := auth.Subscribe()
	defer unsubscribe()

	require.NoError(t, auth.SignInWithPassword(context.Background(), "alice@example.com", "hunter22"))

	ev := receive(t, events)
	assert.Equal(t, model.AuthEventSignedIn, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "user-1", ev.Session.UserID)
	assert.Equal(t, "tok-1", ev.Session.AccessToken)

	sess, err := auth.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "alice@example.com", sess.Email)
	assert.Equal(t, 1, store.saves)
}

func TestAuth_SignInErrorCarriesBackendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	})
	auth := supabase.NewAuth(client, nil, discardLogger)

	err := auth.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)

	var be *driven.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadRequest, be.Status)
	assert.Equal(t, "Invalid login credentials", be.Message)

	sess, err := auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestAuth_SignUpDoesNotSignIn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		writeJSON(w, http.StatusOK, tokenBody("user-1", "alice@example.com", "tok-1", time.Now().Add(time.Hour)))
	})
	auth := supabase.NewAuth(client, nil, discardLogger)
	events, unsubscribe := auth.Subscribe()
	defer unsubscribe()

	require.NoError(t, auth.SignUp(context.Background(), "alice@example.com", "hunter22"))

	sess, err := auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Empty(t, events)
}

func TestAuth_SignUpErrorUsesMsgField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"code": 422, "msg": "User already registered"})
	})
	auth := supabase.NewAuth(client, nil, discardLogger)

	err := auth.SignUp(context.Background(), "alice@example.com", "hunter22")

	var be *driven.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "User already registered", be.Message)
}

func TestAuth_SignOutClearsSessionEvenWhenTokenExpired(t *testing.T) {
	var logoutAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			writeJSON(w, http.StatusOK, tokenBody("user-1", "alice@example.com", "tok-1", time.Now().Add(time.Hour)))
		case "/auth/v1/logout":
			logoutAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "JWT expired"})
		default:
			http.NotFound(w, r)
		}
	})
	store := &memSessionStore{}
	auth := supabase.NewAuth(client, store, discardLogger)
	events, unsubscribe := auth.Subscribe()
	defer unsubscribe()

	require.NoError(t, auth.SignInWithPassword(context.Background(), "alice@example.com", "pw"))
	receive(t, events)

	require.NoError(t, auth.SignOut(context.Background()))

	assert.Equal(t, "Bearer tok-1", logoutAuth)
	assert.Equal(t, model.AuthEventSignedOut, receive(t, events).Type)
	sess, err := auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, 1, store.clears)
}

func TestAuth_SignOutServerErrorKeepsSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/token" {
			writeJSON(w, http.StatusOK, tokenBody("user-1", "alice@example.com", "tok-1", time.Now().Add(time.Hour)))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	auth := supabase.NewAuth(client, nil, discardLogger)
	require.NoError(t, auth.SignInWithPassword(context.Background(), "alice@example.com", "pw"))

	require.Error(t, auth.SignOut(context.Background()))

	sess, err := auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestAuth_GetSessionRestoresAndRefreshes(t *testing.T) {
	var refreshBody map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&refreshBody))
		writeJSON(w, http.StatusOK, tokenBody("user-1", "alice@example.com", "tok-2", time.Now().Add(time.Hour)))
	})
	store := &memSessionStore{session: &model.Session{
		UserID:       "user-1",
		Email:        "alice@example.com",
		AccessToken:  "tok-1",
		RefreshToken: "refresh-tok-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	}}
	auth := supabase.NewAuth(client, store, discardLogger)
	events, unsubscribe := auth.Subscribe()
	defer unsubscribe()

	sess, err := auth.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "tok-2", sess.AccessToken)
	assert.Equal(t, "refresh-tok-1", refreshBody["refresh_token"])

	ev := receive(t, events)
	assert.Equal(t, model.AuthEventTokenRefreshed, ev.Type)
	assert.Equal(t, "tok-2", ev.Session.AccessToken)
	assert.Equal(t, "tok-2", store.session.AccessToken)
}

func TestAuth_RejectedRefreshSignsOut(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error_description": "Invalid Refresh Token"})
	})
	store := &memSessionStore{session: &model.Session{
		UserID:       "user-1",
		AccessToken:  "tok-1",
		RefreshToken: "stale",
		ExpiresAt:    time.Now().Add(-time.Hour),
	}}
	auth := supabase.NewAuth(client, store, discardLogger)
	events, unsubscribe := auth.Subscribe()
	defer unsubscribe()

	sess, err := auth.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, model.AuthEventSignedOut, receive(t, events).Type)
	assert.Nil(t, store.session)
}

func TestAuth_UnsubscribeClosesChannel(t *testing.T) {
	auth := supabase.NewAuth(newTestClient(t, http.NotFound), nil, discardLogger)
	events, unsubscribe := auth.Subscribe()

	unsubscribe()
	unsubscribe()

	_, open := <-events
	assert.False(t, open)
}

// expiringTokenServer signs in with an access token that expires inside the
// refresh margin and only accepts the refreshed token on the data API.
type expiringTokenServer struct {
	mu          sync.Mutex
	refreshes   int
	refreshBody []string
	bearers     []string
}

func (s *expiringTokenServer) handle(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "password":
			writeJSON(w, http.StatusOK, tokenBody("user-1", "alice@example.com", "A1", time.Now().Add(5*time.Second)))

		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			s.mu.Lock()
			s.refreshes++
			s.refreshBody = append(s.refreshBody, body["refresh_token"])
			s.mu.Unlock()
			writeJSON(w, http.StatusOK, tokenBody("user-1", "alice@example.com", "A2", time.Now().Add(time.Hour)))

		case r.URL.Path == "/rest/v1/passwords":
			bearer := r.Header.Get("Authorization")
			s.mu.Lock()
			s.bearers = append(s.bearers, bearer)
			s.mu.Unlock()
			if bearer != "Bearer A2" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "JWT expired"})
				return
			}
			writeJSON(w, http.StatusOK, []map[string]any{})

		default:
			http.NotFound(w, r)
		}
	}
}

func TestEntryRepo_RefreshesExpiringTokenOnce(t *testing.T) {
	srv := &expiringTokenServer{}
	client := newTestClient(t, srv.handle(t))
	auth := supabase.NewAuth(client, nil, discardLogger)
	repo := supabase.NewEntryRepo(client, auth)

	events, unsubscribe := auth.Subscribe()
	defer unsubscribe()

	require.NoError(t, auth.SignInWithPassword(context.Background(), "alice@example.com", "hunter22"))
	signedIn := receive(t, events)
	require.Equal(t, model.AuthEventSignedIn, signedIn.Type)
	frozen := *signedIn.Session
	require.Equal(t, "A1", frozen.AccessToken)

	const callers = 5
	var wg sync.WaitGroup
	wg.Add(callers)
	for range callers {
		go func() {
			defer wg.Done()
			_, err := repo.ListByOwner(context.Background(), frozen)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, 1, srv.refreshes, "concurrent callers share one refresh")
	assert.Equal(t, []string{"refresh-A1"}, srv.refreshBody)
	for _, b := range srv.bearers {
		assert.Equal(t, "Bearer A2", b)
	}

	refreshed := receive(t, events)
	assert.Equal(t, model.AuthEventTokenRefreshed, refreshed.Type)
	assert.Equal(t, "A2", refreshed.Session.AccessToken)
}

func TestEntryRepo_UsesSessionTokenForAnotherUser(t *testing.T) {
	var bearer string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		bearer = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []map[string]any{})
	})
	auth := supabase.NewAuth(client, nil, discardLogger)
	repo := supabase.NewEntryRepo(client, auth)

	_, err := repo.ListByOwner(context.Background(), model.Session{UserID: "user-9", AccessToken: "tok-9"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-9", bearer)
}

func TestAuth_StartRefreshesBeforeExpiry(t *testing.T) {
	srv := &expiringTokenServer{}
	auth := supabase.NewAuth(newTestClient(t, srv.handle(t)), nil, discardLogger)
	auth.SetRefreshCheck(10 * time.Millisecond)

	events, unsubscribe := auth.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go auth.Start(ctx)

	require.NoError(t, auth.SignInWithPassword(context.Background(), "alice@example.com", "hunter22"))
	assert.Equal(t, model.AuthEventSignedIn, receive(t, events).Type)

	ev := receive(t, events)
	assert.Equal(t, model.AuthEventTokenRefreshed, ev.Type)
	assert.Equal(t, "A2", ev.Session.AccessToken)
}

func TestEntryRepo_ListByOwner(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/passwords", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eq.user-1", q.Get("user_id"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, testAnonKey, r.Header.Get("apikey"))

		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 7, "user_id": "user-1", "service_name": "GitHub", "password": "s3cr3t!", "created_at": "2026-01-02T10:00:00.123456+00:00"},
			{"id": 3, "user_id": "user-1", "service_name": "Email", "password": "pw", "created_at": "2026-01-01T10:00:00+00:00"},
		})
	})
	repo := supabase.NewEntryRepo(client, nil)

	entries, err := repo.ListByOwner(context.Background(), model.Session{UserID: "user-1", AccessToken: "tok-1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "7", entries[0].ID)
	assert.Equal(t, "GitHub", entries[0].ServiceName)
	assert.Equal(t, "s3cr3t!", entries[0].Secret)
	assert.Equal(t, "user-1", entries[0].OwnerUserID)
	assert.Equal(t, 2026, entries[0].CreatedAt.Year())
	assert.Equal(t, "3", entries[1].ID)
}

func TestEntryRepo_Insert(t *testing.T) {
	var got []map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})
	repo := supabase.NewEntryRepo(client, nil)

	err := repo.Insert(context.Background(),
		model.Session{UserID: "user-1", AccessToken: "tok-1"},
		model.NewEntry{OwnerUserID: "user-1", ServiceName: "GitHub", Secret: "s3cr3t!"},
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"user_id": "user-1", "service_name": "GitHub", "password": "s3cr3t!"}, got[0])
}

func TestEntryRepo_InsertErrorCarriesPostgRESTMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"code":    "42501",
			"message": `new row violates row-level security policy for table "passwords"`,
		})
	})
	repo := supabase.NewEntryRepo(client, nil)

	err := repo.Insert(context.Background(), model.Session{UserID: "user-1"}, model.NewEntry{ServiceName: "x", Secret: "y"})

	var be *driven.BackendError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Message, "row-level security")
}

func TestEntryRepo_Deletes(t *testing.T) {
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		queries = append(queries, r.URL.RawQuery)
		w.WriteHeader(http.StatusNoContent)
	})
	repo := supabase.NewEntryRepo(client, nil)
	sess := model.Session{UserID: "user-1", AccessToken: "tok-1"}

	require.NoError(t, repo.DeleteByID(context.Background(), sess, "7"))
	require.NoError(t, repo.DeleteByOwner(context.Background(), sess))

	require.Len(t, queries, 2)
	assert.Equal(t, "id=eq.7&user_id=eq.user-1", queries[0])
	assert.Equal(t, "user_id=eq.user-1", queries[1])
}

func TestFunctions_DeleteAccount(t *testing.T) {
	var authHeader string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/functions/v1/delete-account", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	require.NoError(t, supabase.NewFunctions(client).DeleteAccount(context.Background(), "tok-1"))
	assert.Equal(t, "Bearer tok-1", authHeader)
}

func TestFunctions_DeleteAccountError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "User not found"})
	})

	err := supabase.NewFunctions(client).DeleteAccount(context.Background(), "tok-1")

	var be *driven.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "User not found", be.Message)
}

func TestFunctions_DeleteAccountWithoutTokenSendsNothing(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	err := supabase.NewFunctions(client).DeleteAccount(context.Background(), "")
	assert.Error(t, err)
	assert.False(t, called)
}
