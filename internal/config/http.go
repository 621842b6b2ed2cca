package config

type HTTP struct {
	Port        uint32   `env:"HTTP_PORT" envDefault:"8000"`
	Swagger     bool     `env:"HTTP_SWAGGER" envDefault:"true"`
	CorsOrigins []string `env:"HTTP_CORS_ORIGINS" envDefault:"*" envSeparator:","`

	// Debug exposes internal error details in 500 responses.
	Debug bool `env:"HTTP_DEBUG" envDefault:"false"`
}
