package apiclient

import (
	"context"
	"net/url"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// maxRedirects bounds a single navigation so a misconfigured route table
// cannot loop forever.
const maxRedirects = 8

// Router is the client-side route registry. Every Navigate runs the guard,
// follows its redirects, and drives the progress and title sinks, so views
// never have to.
type Router struct {
	mu       sync.Mutex
	routes   map[string]Route
	notFound *Route
	guard    *Guard
	progress Progress
	titles   TitleSink
	appTitle string
	logger   Logger
	current  Route
}

var _ Navigator = (*Router)(nil)

func NewRouter(cfg Config, guard *Guard) *Router {
	logger := defLogger{}
	return &Router{
		routes:   map[string]Route{},
		guard:    guard,
		progress: noopProgress{},
		titles:   logTitle{logger: logger},
		appTitle: cfg.GetAppTitle(),
		logger:   logger,
	}
}

func (r *Router) WithLogger(logger Logger) *Router {
	r.logger = logger
	return r
}

func (r *Router) WithProgress(progress Progress) *Router {
	r.progress = progress
	return r
}

func (r *Router) WithTitleSink(titles TitleSink) *Router {
	r.titles = titles
	return r
}

// Handle registers a route. Registration happens once at startup; routes are
// immutable afterwards.
func (r *Router) Handle(route Route) *Router {
	r.mu.Lock()
	r.routes[route.Path] = route
	r.mu.Unlock()
	return r
}

// NotFound sets the route unresolved paths fall back to.
func (r *Router) NotFound(route Route) *Router {
	r.mu.Lock()
	r.notFound = &route
	r.mu.Unlock()
	return r
}

// Resolve looks up the route for a path, which may carry a query string.
func (r *Router) Resolve(path string) (Route, url.Values, bool) {
	target, err := url.Parse(path)
	if err != nil {
		return Route{}, nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[target.Path]
	if !ok {
		if r.notFound == nil {
			return Route{}, nil, false
		}
		route = *r.notFound
	}
	return route, target.Query(), true
}

// Navigate runs the guard for path, following redirect decisions until one
// proceeds. The progress indicator starts before evaluation and completes
// after the transition resolves; the title sink fires for every evaluated
// target regardless of outcome.
func (r *Router) Navigate(ctx context.Context, path string) (Route, error) {
	r.progress.Start()
	defer r.progress.Done()

	for i := 0; i < maxRedirects; i++ {
		route, _, ok := r.Resolve(path)
		if !ok {
			return Route{}, goerrors.New("no route for path: "+path, goerrors.CategoryNotFound)
		}

		r.titles.SetTitle(r.documentTitle(route))

		decision := r.guard.Evaluate(ctx, route)
		if decision.Action == DecisionProceed {
			r.mu.Lock()
			r.current = route
			r.mu.Unlock()
			return route, nil
		}

		r.logger.Debug("redirect %s -> %s (%s)", path, decision.To, decision.Reason)
		path = decision.To
	}

	return Route{}, goerrors.New("navigation redirect loop for path: "+path, goerrors.CategoryOperation)
}

// Push satisfies Navigator for forced redirects out of the response
// classifier. Failures are logged, not surfaced: the redirect is a side
// effect, the caller already holds the classified error.
func (r *Router) Push(path string) {
	if _, err := r.Navigate(context.Background(), path); err != nil {
		r.logger.Error("forced navigation to %s failed: %v", path, err)
	}
}

// Current returns the last route that resolved.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) documentTitle(route Route) string {
	if route.Meta.Title == "" {
		return r.appTitle
	}
	if r.appTitle == "" {
		return route.Meta.Title
	}
	return route.Meta.Title + " - " + r.appTitle
}
