package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://api.example.com").
	// Used in startup logging and as the default dispatch audience.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// SubmitBearerToken guards the public submit endpoint. When empty the
	// endpoint accepts unauthenticated requests (development only).
	SubmitBearerToken string `env:"SUBMIT_BEARER_TOKEN" envDefault:""`
}
