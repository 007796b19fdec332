package crypto

import (
	"errors"
	"strings"
)

// Keyring provides secure storage for named secrets
type Keyring interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
	IsAvailable() bool
}

const (
	ServiceName = "invoicer"

	// KeyDBEncryption is the SQLCipher password.
	KeyDBEncryption = "db-encryption-key"
	// KeySessionToken is the signed identity token of the signed-in user.
	KeySessionToken = "session-token"
	// KeyTokenSecret signs identity tokens when config sets no secret.
	KeyTokenSecret = "token-secret"
)

// ErrSecretNotFound is returned by Get and Delete for unknown names.
var ErrSecretNotFound = errors.New("secret not found")

// NewKeyring returns the best available keyring implementation. dir is used
// by platforms without a system keychain.
func NewKeyring(dir string) Keyring {
	return newPlatformKeyring(dir)
}

// EnvName returns the environment variable consulted for name,
// e.g. db-encryption-key -> INVOICER_DB_ENCRYPTION_KEY
func EnvName(name string) string {
	return strings.ToUpper(ServiceName + "_" + strings.ReplaceAll(name, "-", "_"))
}
