package config

// Config holds all configuration for the application.
type Config struct {
	DBName    string
	Port      string
	Turso     TursoConfig
	ProjectID string
	LogLevel  string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}
