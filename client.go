package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const defaultTimeoutSeconds = 30

// Options describes a single call through the request primitive.
type Options struct {
	Path   string
	Method string
	Query  url.Values
	// Body is JSON-encoded unless it is already an io.Reader or []byte.
	Body   any
	Header http.Header
}

// Validate rejects malformed call construction before transport.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Path, validation.Required),
		validation.Field(&o.Method, validation.Required, validation.In(
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		)),
	)
}

// Client is the request primitive: every outbound call goes through it, and
// it composes the request stages, the transport round-trip, and the response
// classification deterministically, in that order, per call.
type Client struct {
	baseURL    string
	http       *http.Client
	creds      CredentialStore
	notifier   Notifier
	logger     Logger
	session    SessionInvalidator
	nav        Navigator
	loginRoute string

	requestStages  []RequestStage
	responseStages []ResponseStage

	// tearingDown keeps the session invalidation side effects from nesting
	// when the teardown's own round-trip is rejected.
	tearingDown atomic.Bool
}

// NewClient returns a Client wired with the built-in request stages: bearer
// credential injection and GET cache busting.
func NewClient(cfg Config, creds CredentialStore) *Client {
	timeout := defaultTimeoutSeconds
	if cfg.GetTimeoutSeconds() > 0 {
		timeout = cfg.GetTimeoutSeconds()
	}

	logger := defLogger{}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.GetBaseURL(), "/"),
		creds:      creds,
		logger:     logger,
		notifier:   defNotifier{logger: logger},
		loginRoute: cfg.GetLoginRoute(),
		http: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}

	c.requestStages = []RequestStage{
		bearerStage(creds),
		cacheBusterStage(),
	}

	return c
}

func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

func (c *Client) WithNotifier(notifier Notifier) *Client {
	c.notifier = notifier
	return c
}

// WithSessionHandler wires the teardown surface the classifier invokes on
// credential rejection. The session store and the navigator are constructed
// after the client, so this closes the cycle explicitly.
func (c *Client) WithSessionHandler(session SessionInvalidator, nav Navigator) *Client {
	c.session = session
	c.nav = nav
	return c
}

func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.http = httpClient
	return c
}

// UseRequestStage appends a stage to the outbound pipeline.
func (c *Client) UseRequestStage(stage RequestStage) *Client {
	c.requestStages = append(c.requestStages, stage)
	return c
}

// UseResponseStage appends a stage to the inbound pipeline. Stages run after
// envelope decoding and before classification.
func (c *Client) UseResponseStage(stage ResponseStage) *Client {
	c.responseStages = append(c.responseStages, stage)
	return c
}

// Do issues a call and resolves it against the envelope contract. The full
// envelope is returned on success so the message stays available to the
// caller.
func (c *Client) Do(ctx context.Context, opts Options) (*Envelope, error) {
	resp, err := c.roundTrip(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, err := c.classifyStatus(ctx, resp.StatusCode)
		return nil, err
	}

	env := &Envelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		c.notifier.Notify(NotifyError, fallbackFailureMessage)
		return nil, newBadEnvelopeError(err)
	}

	for _, stage := range c.responseStages {
		if err := stage(resp, env); err != nil {
			return nil, err
		}
	}

	c.logger.Debug("envelope %s %s: %s", opts.Method, opts.Path, print.MaybePrettyJSON(env))

	if _, err := c.classifyEnvelope(ctx, env); err != nil {
		return nil, err
	}

	return env, nil
}

// DoRaw issues a binary call and hands back the raw transport response
// untouched, bypassing envelope decoding and classification. Statuses
// outside 2xx are still classified as transport failures. The caller owns
// the response body.
func (c *Client) DoRaw(ctx context.Context, opts Options) (*http.Response, error) {
	resp, err := c.roundTrip(ctx, opts)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		_, err := c.classifyStatus(ctx, resp.StatusCode)
		return nil, err
	}

	return resp, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.Do(ctx, Options{Path: path, Method: http.MethodGet, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, Options{Path: path, Method: http.MethodPost, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, Options{Path: path, Method: http.MethodPut, Body: body})
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, Options{Path: path, Method: http.MethodPatch, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.Do(ctx, Options{Path: path, Method: http.MethodDelete, Query: query})
}

// Upload posts a multipart body built from the file reader plus auxiliary
// fields, under the conventional "file" part name.
func (c *Client) Upload(ctx context.Context, path, filename string, file io.Reader, fields map[string]string) (*Envelope, error) {
	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, newConfigError(err, "unable to build multipart body")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, newConfigError(err, "unable to read upload payload")
	}

	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return nil, newConfigError(err, "unable to write multipart field")
		}
	}

	if err := form.Close(); err != nil {
		return nil, newConfigError(err, "unable to finalize multipart body")
	}

	return c.Do(ctx, Options{
		Path:   path,
		Method: http.MethodPost,
		Body:   buf,
		Header: http.Header{"Content-Type": []string{form.FormDataContentType()}},
	})
}

// Download fetches a binary payload and saves it to dest, the client-side
// save-as.
func (c *Client) Download(ctx context.Context, path string, query url.Values, dest string) error {
	resp, err := c.DoRaw(ctx, Options{Path: path, Method: http.MethodGet, Query: query})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to create download target")
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to write download target")
	}

	return nil
}

func (c *Client) roundTrip(ctx context.Context, opts Options) (*http.Response, error) {
	if err := opts.Validate(); err != nil {
		return nil, newConfigError(err, "invalid request options")
	}

	target, err := c.buildURL(opts.Path, opts.Query)
	if err != nil {
		return nil, newConfigError(err, "invalid request path")
	}

	var body io.Reader
	contentType := ""

	switch payload := opts.Body.(type) {
	case nil:
	case io.Reader:
		body = payload
	case []byte:
		body = bytes.NewReader(payload)
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, newConfigError(err, "unable to encode request body")
		}
		body = bytes.NewReader(data)
		contentType = "application/json;charset=utf-8"
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, body)
	if err != nil {
		return nil, newConfigError(err, "unable to build request")
	}

	for key, values := range opts.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	for _, stage := range c.requestStages {
		if err := stage(req); err != nil {
			return nil, newConfigError(err, "request stage failed")
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		_, cerr := c.classifyFailure(err)
		return nil, cerr
	}

	return resp, nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}

	if len(query) > 0 {
		q := target.Query()
		for key, values := range query {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		target.RawQuery = q.Encode()
	}

	return target.String(), nil
}
