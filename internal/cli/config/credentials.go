package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credentials are the login settings for the catalog server. They come from
// ~/.gobis/credentials with GOBIS_URL, GOBIS_USERNAME, and GOBIS_PASSWORD
// environment variables taking precedence.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// Complete reports whether every field needed for a password login is set.
func (c Credentials) Complete() bool {
	return c.URL != "" && c.Username != "" && c.Password != ""
}

// gobisDir returns ~/.gobis, the directory holding credentials and the
// cached session token.
func gobisDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".gobis"), nil
}

// CredentialsPath returns the path of the credentials file.
func CredentialsPath() (string, error) {
	dir, err := gobisDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials"), nil
}

// LoadCredentials reads the credentials file when present and applies
// environment overrides. A missing file is not an error; the zero value is
// returned so the caller can prompt for what is absent.
func LoadCredentials() (Credentials, error) {
	var creds Credentials

	path, err := CredentialsPath()
	if err != nil {
		return creds, err
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return creds, fmt.Errorf("failed to read credentials file: %w", err)
	}
	if err == nil {
		if creds, err = parseCredentials(string(data)); err != nil {
			return Credentials{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if v := os.Getenv("GOBIS_URL"); v != "" {
		creds.URL = v
	}
	if v := os.Getenv("GOBIS_USERNAME"); v != "" {
		creds.Username = v
	}
	if v := os.Getenv("GOBIS_PASSWORD"); v != "" {
		creds.Password = v
	}

	return creds, nil
}

// parseCredentials parses the key=value credentials format. Blank lines and
// # comments are skipped, values may be single- or double-quoted.
func parseCredentials(content string) (Credentials, error) {
	var creds Credentials

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Credentials{}, fmt.Errorf("line %d: expected key=value, got %q", i+1, line)
		}

		key = strings.ToLower(strings.TrimSpace(key))
		value = unquote(strings.TrimSpace(value))

		switch key {
		case "url":
			creds.URL = value
		case "username":
			creds.Username = value
		case "password":
			creds.Password = value
		}
	}

	return creds, nil
}

// unquote strips one matching pair of single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// TokenPath returns the path of the cached session token.
func TokenPath() (string, error) {
	dir, err := gobisDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "token"), nil
}

// ReadToken returns the cached session token, or "" when none is cached.
func ReadToken() string {
	path, err := TokenPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// WriteToken caches a session token for reuse by later invocations.
func WriteToken(token string) error {
	path, err := TokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// ClearToken removes the cached session token if one exists.
func ClearToken() error {
	path, err := TokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}
