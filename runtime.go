package apiclient

import (
	"context"
	"net/http"
)

// Runtime is the explicitly constructed context object that wires the whole
// pipeline: credential store, request primitive, session store, guard, and
// router. Build one at process start; everything hangs off it instead of
// ambient globals.
type Runtime struct {
	Config      Config
	Credentials CredentialStore
	Client      *Client
	Session     *SessionStore
	Guard       *Guard
	Router      *Router
}

type runtimeOptions struct {
	logger      Logger
	notifier    Notifier
	credentials CredentialStore
	progress    Progress
	titles      TitleSink
	httpClient  *http.Client
}

type RuntimeOption func(*runtimeOptions)

func WithLogger(logger Logger) RuntimeOption {
	return func(o *runtimeOptions) { o.logger = logger }
}

func WithNotifier(notifier Notifier) RuntimeOption {
	return func(o *runtimeOptions) { o.notifier = notifier }
}

func WithCredentials(store CredentialStore) RuntimeOption {
	return func(o *runtimeOptions) { o.credentials = store }
}

func WithProgress(progress Progress) RuntimeOption {
	return func(o *runtimeOptions) { o.progress = progress }
}

func WithTitleSink(titles TitleSink) RuntimeOption {
	return func(o *runtimeOptions) { o.titles = titles }
}

func WithHTTPClient(httpClient *http.Client) RuntimeOption {
	return func(o *runtimeOptions) { o.httpClient = httpClient }
}

// NewRuntime builds and cross-wires the pipeline. Without an explicit
// credential store it opens the durable sqlite store at the configured
// storage path, or falls back to the in-memory store when no path is set.
// The session is restored from whatever the store kept across restarts.
func NewRuntime(ctx context.Context, cfg Config, opts ...RuntimeOption) (*Runtime, error) {
	options := &runtimeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.logger == nil {
		options.logger = defLogger{}
	}

	creds := options.credentials
	if creds == nil {
		if path := cfg.GetStoragePath(); path != "" {
			store, err := OpenSQLiteCredentials(ctx, path)
			if err != nil {
				return nil, err
			}
			creds = store
		} else {
			creds = NewMemoryCredentials()
		}
	}

	client := NewClient(cfg, creds).WithLogger(options.logger)
	if options.notifier != nil {
		client.WithNotifier(options.notifier)
	}
	if options.httpClient != nil {
		client.WithHTTPClient(options.httpClient)
	}

	session := NewSessionStore(cfg, client, creds).WithLogger(options.logger)
	guard := NewGuard(cfg, session).WithLogger(options.logger)
	router := NewRouter(cfg, guard).WithLogger(options.logger)

	if options.progress != nil {
		router.WithProgress(options.progress)
	}
	if options.titles != nil {
		router.WithTitleSink(options.titles)
	}

	client.WithSessionHandler(session, router)

	if err := session.Restore(ctx); err != nil {
		return nil, err
	}

	return &Runtime{
		Config:      cfg,
		Credentials: creds,
		Client:      client,
		Session:     session,
		Guard:       guard,
		Router:      router,
	}, nil
}
