package credentials

import (
	"fmt"

	"go.uber.org/zap"
)

// Issuer hands out one encrypted secret per user.
type Issuer struct {
	Cipher    Cipher
	Generator Generator
	Manifest  *Manifest
	Logger    *zap.Logger
}

// Issue returns the credential for username, generating and registering one
// if the user has none yet.
func (i *Issuer) Issue(username, environment string) (Credential, error) {
	if c, ok := i.Manifest.Observe(username, environment); ok {
		i.logger().Info("credential already issued",
			zap.String("user", username),
			zap.String("environment", c.Environment),
			zap.String("requested_environment", environment))
		return c, nil
	}

	secret, err := i.Generator.Generate()
	if err != nil {
		return Credential{}, fmt.Errorf("generating secret for %s: %w", username, err)
	}
	tok, err := i.Cipher.Encrypt([]byte(secret))
	if err != nil {
		return Credential{}, fmt.Errorf("encrypting secret for %s: %w", username, err)
	}

	c := Credential{Username: username, Secret: string(tok), Environment: environment}
	if !i.Manifest.Register(c) {
		// Lost a race with another directory; the first secret stands.
		c, _ = i.Manifest.Lookup(username)
		return c, nil
	}
	i.logger().Debug("issued credential", zap.String("user", username), zap.String("environment", environment))
	return c, nil
}

func (i *Issuer) logger() *zap.Logger {
	if i.Logger == nil {
		return zap.NewNop()
	}
	return i.Logger
}
