package apiclient

import (
	"context"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// LoginPayload carries the credentials for the authentication endpoint.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

// loginResult tolerates both observed login response schemas: token under
// access_token or token, refresh under refresh_token or refresh, identity
// embedded or absent.
type loginResult struct {
	AccessToken  string    `json:"access_token"`
	Token        string    `json:"token"`
	Access       string    `json:"access"`
	RefreshToken string    `json:"refresh_token"`
	Refresh      string    `json:"refresh"`
	User         *Identity `json:"user"`
	Permissions  []string  `json:"permissions"`
	Roles        []string  `json:"roles"`
}

func (r loginResult) accessToken() string {
	switch {
	case r.AccessToken != "":
		return r.AccessToken
	case r.Token != "":
		return r.Token
	default:
		return r.Access
	}
}

func (r loginResult) refreshToken() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.Refresh
}

// SessionStore owns the in-memory view of the current identity and is the
// sole writer of the CredentialStore identity fields. The mutex protects
// memory safety only: a logout racing a login can leave the session in
// either final state depending on completion order, which is accepted.
type SessionStore struct {
	mu     sync.Mutex
	client *Client
	creds  CredentialStore
	cfg    Config
	logger Logger

	token       string
	identity    *Identity
	permissions PermissionSet
	roles       RoleSet
	menus       []MenuNode
	department  *Department
}

var _ SessionInvalidator = (*SessionStore)(nil)

func NewSessionStore(cfg Config, client *Client, creds CredentialStore) *SessionStore {
	return &SessionStore{
		client: client,
		creds:  creds,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (s *SessionStore) WithLogger(logger Logger) *SessionStore {
	s.logger = logger
	return s
}

// Restore seeds the in-memory session from whatever the durable store kept
// across restarts. A missing access token means logged out regardless of any
// cached identity.
func (s *SessionStore) Restore(ctx context.Context) error {
	token, err := s.creds.AccessToken(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	if token == "" {
		return nil
	}

	if identity, err := s.creds.Identity(ctx); err == nil {
		s.identity = identity
	}
	if permissions, err := s.creds.Permissions(ctx); err == nil {
		s.permissions = permissions
	}
	if roles, err := s.creds.Roles(ctx); err == nil {
		s.roles = roles
	}
	if menus, err := s.creds.Menus(ctx); err == nil {
		s.menus = menus
	}
	if department, err := s.creds.Department(ctx); err == nil {
		s.department = department
	}

	return nil
}

// Login authenticates against the backend and persists the minted credential
// pair. When the login payload embeds an adequate identity it is cached
// directly; otherwise the profile is fetched separately, never both.
func (s *SessionStore) Login(ctx context.Context, payload LoginPayload) (*Envelope, error) {
	if err := payload.Validate(); err != nil {
		return nil, newConfigError(err, "invalid login payload")
	}

	env, err := s.client.Post(ctx, s.cfg.GetLoginPath(), payload)
	if err != nil {
		return nil, err
	}

	result := loginResult{}
	if err := env.Decode(&result); err != nil {
		return nil, err
	}

	access := result.accessToken()
	if access == "" {
		return nil, goerrors.New("login response carried no access token", goerrors.CategoryBadInput)
	}

	if err := s.creds.SetTokens(ctx, access, result.refreshToken()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token = access
	embedded := result.User.Valid()
	if embedded {
		s.identity = result.User
		s.permissions = result.Permissions
		s.roles = result.Roles
	}
	s.mu.Unlock()

	if embedded {
		if err := s.creds.SetIdentity(ctx, result.User); err != nil {
			return nil, err
		}
		if len(result.Permissions) > 0 {
			if err := s.creds.SetPermissions(ctx, result.Permissions); err != nil {
				return nil, err
			}
		}
		if len(result.Roles) > 0 {
			if err := s.creds.SetRoles(ctx, result.Roles); err != nil {
				return nil, err
			}
		}
		return env, nil
	}

	if _, err := s.GetUserInfo(ctx); err != nil {
		return nil, err
	}
	return env, nil
}

// GetUserInfo fetches the profile endpoint and replaces the cached identity,
// permission set, role set, menu grants, and department.
func (s *SessionStore) GetUserInfo(ctx context.Context) (*Envelope, error) {
	env, err := s.client.Get(ctx, s.cfg.GetProfilePath(), nil)
	if err != nil {
		return nil, err
	}

	identity := &Identity{}
	if err := env.Decode(identity); err != nil {
		return nil, err
	}

	extra := struct {
		Permissions []string    `json:"permissions"`
		Roles       []string    `json:"roles"`
		Menus       []MenuNode  `json:"menus"`
		Department  *Department `json:"department"`
	}{}
	if err := env.Decode(&extra); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.identity = identity
	s.permissions = extra.Permissions
	s.roles = extra.Roles
	s.menus = extra.Menus
	s.department = extra.Department
	s.mu.Unlock()

	if err := s.creds.SetIdentity(ctx, identity); err != nil {
		return nil, err
	}
	if err := s.creds.SetPermissions(ctx, extra.Permissions); err != nil {
		return nil, err
	}
	if err := s.creds.SetRoles(ctx, extra.Roles); err != nil {
		return nil, err
	}
	if err := s.creds.SetMenus(ctx, extra.Menus); err != nil {
		return nil, err
	}
	if extra.Department != nil {
		if err := s.creds.SetDepartment(ctx, extra.Department); err != nil {
			return nil, err
		}
	}

	return env, nil
}

// Logout revokes the session server-side on a best-effort basis. Local state
// is cleared unconditionally: a failed round-trip must never leave stale
// credentials behind.
func (s *SessionStore) Logout(ctx context.Context) error {
	if _, err := s.client.Post(ctx, s.cfg.GetLogoutPath(), nil); err != nil {
		s.logger.Error("server-side logout failed: %v", err)
	}

	s.ResetToken()
	return nil
}

// ResetToken is the synchronous local-only clear, safe to call from inside
// the transport-error path because it never touches the network. Credential
// and identity are cleared together.
func (s *SessionStore) ResetToken() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.permissions = nil
	s.roles = nil
	s.menus = nil
	s.department = nil
	s.mu.Unlock()

	if err := s.creds.ClearAll(context.Background()); err != nil {
		s.logger.Error("unable to clear credential store: %v", err)
	}
}

// RefreshAccessToken posts the refresh credential to the mint endpoint and
// stores the resulting access token.
func (s *SessionStore) RefreshAccessToken(ctx context.Context) error {
	refresh, err := s.creds.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if refresh == "" {
		return ErrNotAuthenticated
	}

	env, err := s.client.Post(ctx, s.cfg.GetRefreshPath(), map[string]string{"refresh": refresh})
	if err != nil {
		return err
	}

	result := loginResult{}
	if err := env.Decode(&result); err != nil {
		return err
	}

	access := result.accessToken()
	if access == "" {
		return goerrors.New("refresh response carried no access token", goerrors.CategoryBadInput)
	}

	if rotated := result.refreshToken(); rotated != "" {
		if err := s.creds.SetTokens(ctx, access, rotated); err != nil {
			return err
		}
	} else if err := s.creds.SetAccessToken(ctx, access); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = access
	s.mu.Unlock()

	return nil
}

// ChangePassword calls the password change endpoint for the current session.
func (s *SessionStore) ChangePassword(ctx context.Context, oldPassword, newPassword string) (*Envelope, error) {
	return s.client.Post(ctx, s.cfg.GetPasswordChangePath(), map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	})
}

// RequestPasswordReset asks the backend to start a password reset for email.
func (s *SessionStore) RequestPasswordReset(ctx context.Context, email string) (*Envelope, error) {
	return s.client.Post(ctx, s.cfg.GetPasswordResetPath(), map[string]string{"email": email})
}

func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsLoggedIn reports token presence; a cached identity without a token does
// not count.
func (s *SessionStore) IsLoggedIn() bool {
	return s.Token() != ""
}

func (s *SessionStore) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *SessionStore) Permissions() PermissionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permissions
}

func (s *SessionStore) Roles() RoleSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles
}

func (s *SessionStore) Menus() []MenuNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menus
}

func (s *SessionStore) Department() *Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.department
}

func (s *SessionStore) HasPermission(permission string) bool {
	return s.Permissions().Has(permission)
}

func (s *SessionStore) HasAnyPermission(permissions ...string) bool {
	return s.Permissions().HasAny(permissions...)
}

func (s *SessionStore) HasAllPermissions(permissions ...string) bool {
	return s.Permissions().HasAll(permissions...)
}

func (s *SessionStore) HasRole(role string) bool {
	return s.Roles().Has(role)
}

func (s *SessionStore) HasAnyRole(roles ...string) bool {
	return s.Roles().HasAny(roles...)
}

func (s *SessionStore) UserID() int64 {
	if identity := s.Identity(); identity != nil {
		return identity.ID
	}
	return 0
}

func (s *SessionStore) Username() string {
	if identity := s.Identity(); identity != nil {
		return identity.Username
	}
	return ""
}

func (s *SessionStore) DisplayName() string {
	if identity := s.Identity(); identity != nil {
		return identity.DisplayName
	}
	return ""
}
