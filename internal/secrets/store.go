package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/csvprep/internal/config"
)

const (
	// BackendEnv selects the keyring backend (auto, keychain, file).
	BackendEnv = "CSVPREP_KEYRING_BACKEND"
	// PasswordEnv unlocks the file backend without a prompt.
	PasswordEnv = "CSVPREP_KEYRING_PASSWORD"

	credentialsPrefix = "storage:"
	keyringTimeout    = 5 * time.Second
)

// ErrNotFound is returned when no credentials are stored for a profile.
var ErrNotFound = errors.New("credentials not found")

var errKeyringTimeout = errors.New("timed out opening system keyring")

// keyringOpenFunc is swapped in tests.
var keyringOpenFunc = keyring.Open

// Credentials are object-storage keys for one profile.
type Credentials struct {
	Profile         string    `json:"profile"`
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	SessionToken    string    `json:"session_token,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store persists credentials.
type Store interface {
	Keys() ([]string, error)
	GetCredentials(profile string) (Credentials, error)
	SetCredentials(profile string, creds Credentials) error
	DeleteCredentials(profile string) error
}

// KeyringBackendInfo records which backend was requested and where the
// choice came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// KeyringStore is a Store backed by the system keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// ResolveKeyringBackendInfo picks the backend from the environment, then
// the default config file, then "auto".
func ResolveKeyringBackendInfo() KeyringBackendInfo {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(BackendEnv))); v != "" {
		return KeyringBackendInfo{Value: v, Source: "env"}
	}
	if cfg, err := config.ReadConfig(); err == nil && strings.TrimSpace(cfg.KeyringBackend) != "" {
		return KeyringBackendInfo{Value: strings.ToLower(strings.TrimSpace(cfg.KeyringBackend)), Source: "config"}
	}
	return KeyringBackendInfo{Value: "auto", Source: "default"}
}

// OpenDefault opens the keyring selected by ResolveKeyringBackendInfo.
func OpenDefault() (Store, error) {
	return Open(ResolveKeyringBackendInfo())
}

// Open opens a keyring-backed store for the given backend.
func Open(info KeyringBackendInfo) (Store, error) {
	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if shouldForceFileBackend(runtime.GOOS, info, dbusAddr) {
		info = KeyringBackendInfo{Value: "file", Source: info.Source + " (no D-Bus session)"}
	}

	cfg, err := keyringConfig(info)
	if err != nil {
		return nil, err
	}

	var ring keyring.Keyring
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(cfg, keyringTimeout)
	} else {
		ring, err = keyringOpenFunc(cfg)
	}
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return &KeyringStore{ring: ring}, nil
}

func keyringConfig(info KeyringBackendInfo) (keyring.Config, error) {
	cfg := keyring.Config{
		ServiceName:              config.AppName,
		KeychainTrustApplication: true,
	}

	switch info.Value {
	case "", "auto":
	case "keychain":
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
		}
	case "file":
		dir, err := config.EnsureKeyringDir()
		if err != nil {
			return keyring.Config{}, err
		}
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		cfg.FileDir = dir
		if pw := os.Getenv(PasswordEnv); pw != "" {
			cfg.FilePasswordFunc = keyring.FixedStringPrompt(pw)
		} else {
			cfg.FilePasswordFunc = keyring.TerminalPrompt
		}
	default:
		return keyring.Config{}, fmt.Errorf("unknown keyring backend %q (expected auto|keychain|file)", info.Value)
	}
	return cfg, nil
}

// shouldForceFileBackend reports whether auto selection should fall back
// to the file backend: headless Linux has no Secret Service to talk to.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && (info.Value == "auto" || info.Value == "") && dbusAddr == ""
}

// shouldUseKeyringTimeout reports whether opening may hang on a D-Bus
// Secret Service that never answers.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && (info.Value == "auto" || info.Value == "") && dbusAddr != ""
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring: ring, err: err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s\n\nThe Secret Service did not respond. Use the file backend instead:\n  export %s=file",
			errKeyringTimeout, timeout, BackendEnv)
	}
}

// loginKeychainPath returns the default macOS login keychain.
func loginKeychainPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, "Library", "Keychains", "login.keychain-db")
}

func isLockedMessage(msg string) bool {
	return strings.Contains(msg, "errSecInteractionNotAllowed") || strings.Contains(msg, "-25308")
}

// wrapKeychainError adds unlock instructions to locked-keychain errors and
// returns any other error unchanged.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	if !isLockedMessage(err.Error()) {
		return err
	}
	return fmt.Errorf("%w\n\nThe keychain is locked. Unlock it and retry:\n  security unlock-keychain %s\nor use the file backend:\n  export %s=file",
		err, loginKeychainPath(), BackendEnv)
}

// Keys lists the profiles with stored credentials.
func (s *KeyringStore) Keys() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	var profiles []string
	for _, k := range keys {
		if p, ok := strings.CutPrefix(k, credentialsPrefix); ok {
			profiles = append(profiles, p)
		}
	}
	sort.Strings(profiles)
	return profiles, nil
}

// GetCredentials returns the credentials stored for profile.
func (s *KeyringStore) GetCredentials(profile string) (Credentials, error) {
	item, err := s.ring.Get(credentialsPrefix + profile)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Credentials{}, fmt.Errorf("%w for profile %q", ErrNotFound, profile)
		}
		return Credentials{}, wrapKeychainError(err)
	}
	var creds Credentials
	if err := json.Unmarshal(item.Data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decoding stored credentials: %w", err)
	}
	return creds, nil
}

// SetCredentials stores credentials for profile.
func (s *KeyringStore) SetCredentials(profile string, creds Credentials) error {
	if strings.TrimSpace(creds.AccessKeyID) == "" || strings.TrimSpace(creds.SecretAccessKey) == "" {
		return errors.New("access key id and secret access key are required")
	}
	creds.Profile = profile
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	err = s.ring.Set(keyring.Item{
		Key:         credentialsPrefix + profile,
		Data:        data,
		Label:       config.AppName + " storage credentials (" + profile + ")",
		Description: "object storage access key",
	})
	return wrapKeychainError(err)
}

// DeleteCredentials removes the credentials for profile.
func (s *KeyringStore) DeleteCredentials(profile string) error {
	err := s.ring.Remove(credentialsPrefix + profile)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("%w for profile %q", ErrNotFound, profile)
	}
	return wrapKeychainError(err)
}
