package platform

type Conf struct {
	Host       string `json:"host"`
	AnonKey    string `json:"-"` // env only, never in config files
	ServiceKey string `json:"-"` // env only, never in config files
	JWTSecret  string `json:"-"` // env only, never in config files

	TokenEndpoint  string `json:"token_endpoint"`
	SignupEndpoint string `json:"signup_endpoint"`
	LogoutEndpoint string `json:"logout_endpoint"`
	UserEndpoint   string `json:"user_endpoint"`
}

// ApplyDefaults fills unset endpoints with the platform's standard auth paths.
func (c *Conf) ApplyDefaults() {
	if c.TokenEndpoint == "" {
		c.TokenEndpoint = "/auth/v1/token"
	}
	if c.SignupEndpoint == "" {
		c.SignupEndpoint = "/auth/v1/signup"
	}
	if c.LogoutEndpoint == "" {
		c.LogoutEndpoint = "/auth/v1/logout"
	}
	if c.UserEndpoint == "" {
		c.UserEndpoint = "/auth/v1/user"
	}
}
