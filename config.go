package apiclient

import (
	"os"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// RouteConfig names the two routes the pipeline itself navigates to.
type RouteConfig struct {
	Login string `yaml:"login" json:"login"`
	Home  string `yaml:"home" json:"home"`
}

// EndpointConfig holds the identity endpoint paths on the backend.
type EndpointConfig struct {
	Login          string `yaml:"login" json:"login"`
	Profile        string `yaml:"profile" json:"profile"`
	Logout         string `yaml:"logout" json:"logout"`
	Refresh        string `yaml:"refresh" json:"refresh"`
	PasswordChange string `yaml:"password_change" json:"password_change"`
	PasswordReset  string `yaml:"password_reset" json:"password_reset"`
}

// FileConfig is the concrete Config, loadable from a YAML file.
type FileConfig struct {
	BaseURL        string         `yaml:"base_url" json:"base_url"`
	TimeoutSeconds int            `yaml:"timeout_seconds" json:"timeout_seconds"`
	AppTitle       string         `yaml:"app_title" json:"app_title"`
	StoragePath    string         `yaml:"storage_path" json:"storage_path"`
	Routes         RouteConfig    `yaml:"routes" json:"routes"`
	Endpoints      EndpointConfig `yaml:"endpoints" json:"endpoints"`
}

var _ Config = (*FileConfig)(nil)

// DefaultConfig returns a FileConfig with every field that has a sensible
// default filled in. BaseURL stays empty and must come from the caller.
func DefaultConfig() *FileConfig {
	return &FileConfig{
		TimeoutSeconds: defaultTimeoutSeconds,
		Routes: RouteConfig{
			Login: "/login",
			Home:  "/",
		},
		Endpoints: EndpointConfig{
			Login:          "/api/auth/login/",
			Profile:        "/api/auth/userinfo/",
			Logout:         "/api/auth/logout/",
			Refresh:        "/api/auth/token/refresh/",
			PasswordChange: "/api/auth/change-password/",
			PasswordReset:  "/api/auth/reset-password/",
		},
	}
}

// LoadConfig reads a YAML config file over the defaults and validates the
// result.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to read config file")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid config")
	}
	return cfg, nil
}

func (c *FileConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.RequestURL),
		validation.Field(&c.TimeoutSeconds, validation.Min(0)),
		validation.Field(&c.Routes, validation.Required),
		validation.Field(&c.Endpoints, validation.Required),
	)
}

func (c *FileConfig) GetBaseURL() string            { return c.BaseURL }
func (c *FileConfig) GetTimeoutSeconds() int        { return c.TimeoutSeconds }
func (c *FileConfig) GetAppTitle() string           { return c.AppTitle }
func (c *FileConfig) GetLoginRoute() string         { return c.Routes.Login }
func (c *FileConfig) GetHomeRoute() string          { return c.Routes.Home }
func (c *FileConfig) GetLoginPath() string          { return c.Endpoints.Login }
func (c *FileConfig) GetProfilePath() string        { return c.Endpoints.Profile }
func (c *FileConfig) GetLogoutPath() string         { return c.Endpoints.Logout }
func (c *FileConfig) GetRefreshPath() string        { return c.Endpoints.Refresh }
func (c *FileConfig) GetPasswordChangePath() string { return c.Endpoints.PasswordChange }
func (c *FileConfig) GetPasswordResetPath() string  { return c.Endpoints.PasswordReset }
func (c *FileConfig) GetStoragePath() string        { return c.StoragePath }
