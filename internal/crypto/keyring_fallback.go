//go:build !darwin

package crypto

func newPlatformKeyring(dir string) Keyring {
	return NewFileKeyring(dir)
}
