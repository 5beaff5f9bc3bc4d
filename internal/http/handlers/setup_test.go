package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/handlers"
	"github.com/itcons/afisha/internal/http/middleware"
	"github.com/itcons/afisha/internal/storage"
	"github.com/itcons/afisha/pkg/auth"
)

const testPassword = "correct-horse"

type testAPI struct {
	srv        *httptest.Server
	accounts   *mockAccountRepo
	organizers *mockOrganizerRepo
	catalog    *mockCatalogRepo
	state      *eventState
	verifs     *mockVerificationRepo
	mail       *mockMailer
	bus        *mockPublisher
	tokens     *auth.TokenService
}

// setupTestAPI wires the full router the way main does, with in-memory
// repositories and a real token service.
func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	accounts := newMockAccountRepo()
	organizers := newMockOrganizerRepo()
	cat := newMockCatalogRepo()
	state := newEventState(cat)
	verifs := newMockVerificationRepo()
	mail := &mockMailer{}
	bus := &mockPublisher{}

	store, err := storage.NewMediaStore(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("media store: %v", err)
	}

	tokens := auth.NewTokenService("test-secret", "afisha-auth", time.Hour)
	guard := middleware.NewGuard(tokens, accounts)

	eventsRepo := mockEventRepo{state}
	imagesRepo := mockImageRepo{state}

	publicH := handlers.NewPublicHandler(eventsRepo)
	authH := handlers.NewAuthHandler(accounts, tokens, guard, nil)
	adminH := handlers.NewAdminHandler(accounts, mail, bus)
	companyH := handlers.NewCompanyHandler(accounts, organizers)
	eventsH := handlers.NewEventsHandler(accounts, organizers, cat, eventsRepo, store, bus)
	imagesH := handlers.NewImagesHandler(accounts, organizers, eventsRepo, imagesRepo, store, bus)
	verifH := handlers.NewVerificationHandler(accounts, organizers, verifs, mail, bus)

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		publicH.Register(api)
		api.Route("/auth", func(ar chi.Router) { authH.Register(ar) })
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(guard.RequireRole(domain.RoleAdmin))
			adminH.Register(ar)
			verifH.RegisterAdmin(ar)
		})
		api.Route("/organizer", func(or chi.Router) {
			or.Use(guard.RequireRole(domain.RoleOrganizer))
			companyH.Register(or)
			eventsH.Register(or)
			imagesH.Register(or)
			verifH.RegisterOrganizer(or)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testAPI{
		srv: srv, accounts: accounts, organizers: organizers, catalog: cat,
		state: state, verifs: verifs, mail: mail, bus: bus, tokens: tokens,
	}
}

func jsonDecode(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

func eventPath(id int64) string {
	return fmt.Sprintf("/api/organizer/events/%d", id)
}

// waitFor polls for a condition reached by a background goroutine, such
// as the best-effort mail send.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return h
}

func (a *testAPI) seedAdmin(t *testing.T, email string) *domain.AdminAccount {
	t.Helper()
	admin, err := a.accounts.CreateAdmin(nil, email, hash(t, testPassword))
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return admin
}

func (a *testAPI) seedOrganizer(t *testing.T, email string) *domain.OrganizerAccount {
	t.Helper()
	org, err := a.accounts.CreateOrganizer(nil, email, nil, hash(t, testPassword))
	if err != nil {
		t.Fatalf("seed organizer: %v", err)
	}
	return org
}

func (a *testAPI) seedUser(t *testing.T, email string) *domain.UserAccount {
	t.Helper()
	u, err := a.accounts.CreateUser(nil, &email, nil, hash(t, testPassword), "Иван", "Иванов")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (a *testAPI) token(t *testing.T, role string, id int64, login string) string {
	t.Helper()
	tok, err := a.tokens.Issue(role, id, login)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// doJSON sends a request with an optional bearer token and JSON body and
// decodes the JSON response into a map.
func (a *testAPI) doJSON(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var out map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}
