package secrets

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "jobclip"

// GetIngestToken reads the backend bearer token. A missing entry is not an
// error: the backend may run without auth, so "" means anonymous.
func GetIngestToken(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", nil
	}
	tok, err := keyring.Get(KeyringService, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("secrets: read ingest token: %w", err)
	}
	return strings.TrimSpace(tok), nil
}

func SetIngestToken(account, token string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: keyring account name is empty")
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("secrets: token is empty")
	}
	return keyring.Set(KeyringService, account, token)
}

func DeleteIngestToken(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

// IngestKeyringAccount derives a stable keychain account name from the
// ingest URL's host, so tokens for different backends don't collide.
func IngestKeyringAccount(ingestURL string) string {
	host := "default"
	if u, err := url.Parse(ingestURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("jobclip:ingest:%s", host)
}
