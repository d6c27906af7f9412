package config

// defaultJWTSecret is the development placeholder. Load rejects it so that
// no service ships with a known signing key.
const defaultJWTSecret = "dev-secret-change-me"

// Auth holds authentication configuration.
type Auth struct {
	JWT *JWT
}

// JWT holds token signing and validation settings.
type JWT struct {
	Secret        string
	Algorithm     string
	Issuer        string
	Audience      string
	ExpireMinutes int
}

func getAuth(l *loader) *Auth {
	return &Auth{
		JWT: &JWT{
			Secret:        l.getSecret("JWT_SECRET", defaultJWTSecret),
			Algorithm:     l.getString("JWT_ALGORITHM", "HS256"),
			Issuer:        l.getString("JWT_ISSUER", "dev-idp"),
			Audience:      l.getString("JWT_AUDIENCE", "dev-api"),
			ExpireMinutes: l.getInt("JWT_TTL_MINUTES", 480),
		},
	}
}
