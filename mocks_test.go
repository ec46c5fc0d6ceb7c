package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	apiclient "github.com/goliatone/go-apiclient"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNavigator implements apiclient.Navigator
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Push(path string) {
	m.Called(path)
}

// recordingNotifier captures every notification and confirmation prompt so
// tests can assert the exactly-once side effect contract.
type recordingNotifier struct {
	mu            sync.Mutex
	notes         []recordedNote
	confirms      int
	confirmAnswer bool
}

type recordedNote struct {
	kind    apiclient.NotifyKind
	message string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{confirmAnswer: true}
}

func (n *recordingNotifier) Notify(kind apiclient.NotifyKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, recordedNote{kind: kind, message: message})
}

func (n *recordingNotifier) Confirm(title, message string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirms++
	return n.confirmAnswer
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

func (n *recordingNotifier) last() recordedNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return recordedNote{}
	}
	return n.notes[len(n.notes)-1]
}

type recordingProgress struct {
	mu      sync.Mutex
	started int
	done    int
}

func (p *recordingProgress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started++
}

func (p *recordingProgress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
}

type recordingTitle struct {
	mu     sync.Mutex
	titles []string
}

func (t *recordingTitle) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.titles = append(t.titles, title)
}

func (t *recordingTitle) lastTitle() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.titles) == 0 {
		return ""
	}
	return t.titles[len(t.titles)-1]
}

type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}

func newTestConfig(baseURL string) *apiclient.FileConfig {
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.AppTitle = "Test App"
	return cfg
}

// backend is a scripted envelope server that counts hits per path.
type backend struct {
	mu       sync.Mutex
	hits     map[string]int
	requests []*http.Request
	handlers map[string]http.HandlerFunc
	server   *httptest.Server
}

func newBackend() *backend {
	b := &backend{
		hits:     map[string]int{},
		handlers: map[string]http.HandlerFunc{},
	}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		b.requests = append(b.requests, r.Clone(r.Context()))
		handler, ok := b.handlers[r.URL.Path]
		b.mu.Unlock()

		if !ok {
			writeEnvelope(w, 200, "ok", nil)
			return
		}
		handler(w, r)
	}))
	return b
}

func (b *backend) handle(path string, handler http.HandlerFunc) *backend {
	b.mu.Lock()
	b.handlers[path] = handler
	b.mu.Unlock()
	return b
}

func (b *backend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *backend) lastRequest() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	return b.requests[len(b.requests)-1]
}

func (b *backend) close() {
	b.server.Close()
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{"code": code, "message": message}
	if data != nil {
		payload["data"] = data
	}
	json.NewEncoder(w).Encode(payload)
}

// harness wires a full runtime against a scripted backend with the standard
// test route table.
type harness struct {
	backend  *backend
	runtime  *apiclient.Runtime
	notifier *recordingNotifier
	progress *recordingProgress
	titles   *recordingTitle
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	b := newBackend()
	t.Cleanup(b.close)

	notifier := newRecordingNotifier()
	progress := &recordingProgress{}
	titles := &recordingTitle{}

	rt, err := apiclient.NewRuntime(context.Background(), newTestConfig(b.server.URL),
		apiclient.WithCredentials(apiclient.NewMemoryCredentials()),
		apiclient.WithNotifier(notifier),
		apiclient.WithLogger(quietLogger{}),
		apiclient.WithProgress(progress),
		apiclient.WithTitleSink(titles),
	)
	require.NoError(t, err)

	rt.Router.
		Handle(apiclient.Route{
			Path: "/login",
			Name: "Login",
			Meta: apiclient.RouteMeta{RequiresAuth: apiclient.Bool(false), Title: "Sign In"},
		}).
		Handle(apiclient.Route{
			Path: "/",
			Name: "Home",
			Meta: apiclient.RouteMeta{Title: "Home"},
		}).
		Handle(apiclient.Route{
			Path: "/dashboard",
			Name: "Dashboard",
			Meta: apiclient.RouteMeta{Title: "Dashboard"},
		})

	return &harness{
		backend:  b,
		runtime:  rt,
		notifier: notifier,
		progress: progress,
		titles:   titles,
	}
}

// loginHandler scripts the standard login response with embedded identity.
func loginHandler(access, refresh string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "signed in", map[string]any{
			"access_token":  access,
			"refresh_token": refresh,
			"user": map[string]any{
				"id":       7,
				"username": "ops",
				"name":     "Ops User",
			},
		})
	}
}

// profileHandler scripts the profile endpoint.
func profileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 200, "ok", map[string]any{
			"id":          7,
			"username":    "ops",
			"real_name":   "Ops User",
			"permissions": []string{"inventory:view", "inventory:edit"},
			"roles":       []string{"operator"},
			"menus": []map[string]any{
				{"key": "inventory", "label": "Inventory", "path": "/inventory"},
			},
			"department": map[string]any{"id": 3, "name": "Warehouse"},
		})
	}
}
