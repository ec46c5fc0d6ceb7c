package apiclient

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// NotifyKind classifies a user-facing notification.
type NotifyKind string

const (
	NotifyInfo    NotifyKind = "info"
	NotifySuccess NotifyKind = "success"
	NotifyWarning NotifyKind = "warning"
	NotifyError   NotifyKind = "error"
)

// Notifier renders user-facing notifications and blocking confirmation
// prompts. Every classified failure emits exactly one notification through
// this interface.
type Notifier interface {
	Notify(kind NotifyKind, message string)
	// Confirm presents a blocking prompt and reports whether the user
	// acknowledged it. The application-level session expiry flow is gated on
	// this answer.
	Confirm(title, message string) bool
}

// Progress marks the start and completion of a route transition, the way a
// top-of-page progress bar would.
type Progress interface {
	Start()
	Done()
}

// TitleSink receives the document title derived from route metadata.
type TitleSink interface {
	SetTitle(title string)
}

// Navigator pushes the client to a new view. Router implements it; the
// response classifier uses it for forced redirects to the login view.
type Navigator interface {
	Push(path string)
}

// SessionInvalidator is the teardown surface the response classifier needs:
// a local-only reset for transport-level rejections and a full logout for
// the user-acknowledged flow.
type SessionInvalidator interface {
	ResetToken()
	Logout(ctx context.Context) error
}

// CredentialStore persists the credential pair plus the cached identity,
// permission set, role set, menu grants, and department, each under its own
// key. Implementations must clear every key together, never partially.
type CredentialStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	SetAccessToken(ctx context.Context, access string) error

	Identity(ctx context.Context) (*Identity, error)
	SetIdentity(ctx context.Context, identity *Identity) error
	Permissions(ctx context.Context) ([]string, error)
	SetPermissions(ctx context.Context, permissions []string) error
	Roles(ctx context.Context) ([]string, error)
	SetRoles(ctx context.Context, roles []string) error
	Menus(ctx context.Context) ([]MenuNode, error)
	SetMenus(ctx context.Context, menus []MenuNode) error
	Department(ctx context.Context) (*Department, error)
	SetDepartment(ctx context.Context, department *Department) error

	ClearAll(ctx context.Context) error
}

// Config holds the runtime options
type Config interface {
	GetBaseURL() string
	GetTimeoutSeconds() int
	GetAppTitle() string
	GetLoginRoute() string
	GetHomeRoute() string
	GetLoginPath() string
	GetProfilePath() string
	GetLogoutPath() string
	GetRefreshPath() string
	GetPasswordChangePath() string
	GetPasswordResetPath() string
	GetStoragePath() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] APICLIENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] APICLIENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] APICLIENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

// defNotifier routes notifications to a Logger and acknowledges every
// confirmation prompt, which keeps headless runs moving.
type defNotifier struct {
	logger Logger
}

func (n defNotifier) Notify(kind NotifyKind, message string) {
	switch kind {
	case NotifyError:
		n.logger.Error("%s", message)
	case NotifyWarning:
		n.logger.Info("[warn] %s", message)
	default:
		n.logger.Info("%s", message)
	}
}

func (n defNotifier) Confirm(title, message string) bool {
	n.logger.Info("%s: %s (auto-confirmed)", title, message)
	return true
}

type noopProgress struct{}

func (noopProgress) Start() {}
func (noopProgress) Done()  {}

type logTitle struct {
	logger Logger
}

func (t logTitle) SetTitle(title string) {
	t.logger.Debug("title: %s", title)
}
