package config

import "os"

// Environment variables read by parseEnv.
const (
	EnvFaceAPIEndpoint = "FACE_API_ENDPOINT"
	EnvFaceAPIKey      = "FACE_API_KEY"
	EnvDatabaseDSN     = "DATABASE_DSN"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvRedisPassword   = "REDIS_PASSWORD"
	EnvSecretKey       = "SECRET_KEY"
)

// parseEnv overlays secrets and endpoints that are usually injected by the
// deployment rather than written to a config file.
func parseEnv(config *Config) {
	for name, dst := range map[string]*string{
		EnvFaceAPIEndpoint: &config.FaceAPIEndpoint,
		EnvFaceAPIKey:      &config.FaceAPIKey,
		EnvDatabaseDSN:     &config.DatabaseDSN,
		EnvRedisAddr:       &config.RedisAddr,
		EnvRedisPassword:   &config.RedisPassword,
		EnvSecretKey:       &config.SecretKey,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
