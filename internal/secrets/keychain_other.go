//go:build !darwin

package secrets

// IsKeychainLockedError always reports false outside macOS.
func IsKeychainLockedError(string) bool { return false }

// CheckKeychainLocked always reports false outside macOS.
func CheckKeychainLocked() bool { return false }

// UnlockKeychain is a no-op outside macOS.
func UnlockKeychain() error { return nil }

// EnsureKeychainAccess is a no-op outside macOS.
func EnsureKeychainAccess() error { return nil }
