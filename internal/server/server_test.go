package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/contactbook/internal/config"
	"github.com/conneroisu/contactbook/internal/contact"
	"github.com/conneroisu/contactbook/internal/logging"
	"github.com/conneroisu/contactbook/internal/notify"
	"github.com/conneroisu/contactbook/internal/store"
	"github.com/conneroisu/contactbook/internal/version"
	ws "github.com/conneroisu/contactbook/internal/websocket"
)

const testOrigin = "http://example.com"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			Environment:    "test",
			AllowedOrigins: []string{"https://trusted.example"},
		},
		Notifications: config.NotificationsConfig{AutoClose: 3 * time.Second},
		Log:           config.LogConfig{Level: "error", Format: "text"},
	}
}

type fixture struct {
	srv     *ContactServer
	store   *store.Memory
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemory(contact.Contact{ID: "anna", Name: "Anna", Number: "+1 555 0100"})
	n := 0
	var mu sync.Mutex
	ids := contact.IDGeneratorFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	})

	srv := New(testConfig(), st, logging.NewNopLogger(), WithIDGenerator(ids))
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})

	return &fixture{srv: srv, store: st, handler: srv.Handler()}
}

func postForm(path string, values url.Values, origin string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func messages(toasts []notify.Toast) []string {
	out := make([]string, 0, len(toasts))
	for _, t := range toasts {
		out = append(out, t.Message)
	}
	return out
}

func TestIndexRendersPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `<form class="contact-form"`)
	assert.Contains(t, body, `<tr data-id="anna">`)
	assert.Contains(t, body, `src="/static/contactbook.js"`)
	assert.NotContains(t, body, "<script>")
}

func TestSecurityHeaders(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'self'")
	assert.NotContains(t, csp, "unsafe-inline")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestSubmitAddsContact(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/contacts", url.Values{"name": {"Boris"}, "number": {"+1 555 0200"}}, testOrigin))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	snap := f.store.Snapshot()
	require.Equal(t, 2, snap.Len())
	boris, ok := snap.FindByName("Boris")
	require.True(t, ok)
	assert.Equal(t, "id-1", boris.ID)
	assert.Equal(t, "+1 555 0200", boris.Number)
	assert.Equal(t, []string{"Contact Boris is added!"}, messages(f.srv.toasts.Active()))

	page := f.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.Contains(t, page, "Contact Boris is added!")
	assert.Contains(t, page, `<tr data-id="id-1">`)
}

func TestSubmitInvalidKeepsValues(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/contacts", url.Values{"name": {"john"}, "number": {""}}, testOrigin))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="john"`)
	assert.Contains(t, body, `id="name-error"`)
	assert.Contains(t, body, contact.MessageNumberRequired)
	assert.Equal(t, 1, f.store.Len())
	assert.Empty(t, f.srv.toasts.Active())
}

func TestSubmitDuplicateWarns(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/contacts", url.Values{"name": {"Anna"}, "number": {"+1 555 0999"}}, testOrigin))

	require.Equal(t, http.StatusConflict, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="+1 555 0999"`)
	assert.Contains(t, body, "Anna is already in contacts.")
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, []string{"Anna is already in contacts."}, messages(f.srv.toasts.Active()))
}

func TestSubmitRejectsForeignOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{"no origin", "", http.StatusForbidden},
		{"foreign origin", "http://evil.example", http.StatusForbidden},
		{"configured origin", "https://trusted.example", http.StatusSeeOther},
		{"own origin", testOrigin, http.StatusSeeOther},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			name := []string{"Boris", "Clara", "Dora", "Emil"}[i]

			rec := f.do(postForm("/contacts", url.Values{"name": {name}, "number": {"5551234"}}, tt.origin))

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, 1, f.store.Len())
			}
		})
	}
}

func TestSubmitRefererFallback(t *testing.T) {
	f := newFixture(t)

	req := postForm("/contacts", url.Values{"name": {"Boris"}, "number": {"5551234"}}, "")
	req.Header.Set("Referer", testOrigin+"/")

	assert.Equal(t, http.StatusSeeOther, f.do(req).Code)
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	codes := make(chan int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := f.do(postForm("/contacts", url.Values{"name": {"Clara"}, "number": {"5551234"}}, testOrigin))
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	added := 0
	for code := range codes {
		if code == http.StatusSeeOther {
			added++
		} else {
			assert.Equal(t, http.StatusConflict, code)
		}
	}
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, f.store.Len())
}

func TestDeleteContact(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/contacts/anna/delete", url.Values{}, testOrigin))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.srv.toasts.Active())
}

func TestDeleteEscapedID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Add(contact.Contact{ID: "c 3/x", Name: "Clara", Number: "5551234"}))

	rec := f.do(postForm(f.srv.list.DeleteAction("c 3/x"), url.Values{}, testOrigin))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, f.store.Snapshot().HasID("c 3/x"))
	assert.Equal(t, 1, f.store.Len())
}

func TestDeleteUnknownContactWarns(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/contacts/missing/delete", url.Values{}, testOrigin))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, []string{MissingContactMessage}, messages(f.srv.toasts.Active()))
}

func TestAPIContacts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"id":"anna","name":"Anna","number":"+1 555 0100"}]`, rec.Body.String())

	require.NoError(t, f.store.Delete("anna"))
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPIToasts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/toasts", nil))
	assert.JSONEq(t, `[]`, rec.Body.String())

	f.srv.toasts.Warn("Anna is already in contacts.")
	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/toasts", nil))

	var toasts []notify.Toast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &toasts))
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelWarning, toasts[0].Level)
	assert.Equal(t, 3*time.Second, toasts[0].ExpiresAt.Sub(toasts[0].CreatedAt))
}

func TestSetAutoClose(t *testing.T) {
	f := newFixture(t)

	f.srv.SetAutoClose(500 * time.Millisecond)
	f.srv.toasts.Success("Contact Boris is added!")

	toasts := f.srv.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, 500*time.Millisecond, toasts[0].ExpiresAt.Sub(toasts[0].CreatedAt))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, version.Get().IsRelease(), health["release"])
	checks := health["checks"].(map[string]interface{})
	assert.EqualValues(t, 1, checks["contacts"].(map[string]interface{})["count"])
}

func TestStaticAssets(t *testing.T) {
	f := newFixture(t)

	js := f.do(httptest.NewRequest(http.MethodGet, "/static/contactbook.js", nil))
	require.Equal(t, http.StatusOK, js.Code)
	assert.Contains(t, js.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, js.Body.String(), "contacts_changed")

	css := f.do(httptest.NewRequest(http.MethodGet, "/static/contactbook.css", nil))
	require.Equal(t, http.StatusOK, css.Code)
	assert.Contains(t, css.Header().Get("Content-Type"), "text/css")

	assert.Equal(t, http.StatusNotFound, f.do(httptest.NewRequest(http.MethodGet, "/static/missing.js", nil)).Code)
}

func TestUnknownRoutes(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(httptest.NewRequest(http.MethodGet, "/nope", nil)).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(postForm("/", url.Values{}, testOrigin)).Code)
}

func TestWebSocketReceivesEvents(t *testing.T) {
	f := newFixture(t)
	httpSrv := httptest.NewServer(f.handler)
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(httpSrv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	require.Eventually(t, func() bool { return f.srv.hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	req, err := http.NewRequest(http.MethodPost, httpSrv.URL+"/contacts",
		strings.NewReader(url.Values{"name": {"Boris"}, "number": {"5551234"}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", httpSrv.URL)
	resp, err := client.Do(req)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var events []ws.Event
	for i := 0; i < 2; i++ {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var event ws.Event
		require.NoError(t, json.Unmarshal(data, &event))
		events = append(events, event)
	}

	assert.Equal(t, ws.EventContactsChanged, events[0].Type)
	require.NotNil(t, events[0].Count)
	assert.Equal(t, 2, *events[0].Count)
	assert.Equal(t, ws.EventToast, events[1].Type)
	require.NotNil(t, events[1].Toast)
	assert.Equal(t, "Contact Boris is added!", events[1].Toast.Message)
}

func TestStartAndShutdown(t *testing.T) {
	st := store.NewMemory()
	srv := New(testConfig(), st, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != "" }, 5*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.NoError(t, srv.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestStartListenError(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "256.256.256.256"
	srv := New(cfg, store.NewMemory(), logging.NewNopLogger())
	defer srv.Shutdown(context.Background())

	err := srv.Start(context.Background())
	require.Error(t, err)
}
