//go:build darwin

package secrets

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// IsKeychainLockedError reports whether a keyring error means the login
// keychain is locked.
func IsKeychainLockedError(errStr string) bool {
	return isLockedMessage(errStr)
}

// CheckKeychainLocked reports whether the login keychain is locked.
func CheckKeychainLocked() bool {
	cmd := exec.Command("security", "show-keychain-info", loginKeychainPath())
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.Contains(string(out), "-25308") || strings.Contains(string(out), "locked")
	}
	return false
}

// UnlockKeychain prompts for the login password and unlocks the keychain.
func UnlockKeychain() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("keychain is locked and stdin is not a terminal; run: security unlock-keychain %s", loginKeychainPath())
	}
	cmd := exec.Command("security", "unlock-keychain", loginKeychainPath())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unlocking keychain: %w", err)
	}
	return nil
}

// EnsureKeychainAccess unlocks the login keychain when it is locked.
func EnsureKeychainAccess() error {
	if !CheckKeychainLocked() {
		return nil
	}
	fmt.Fprintln(os.Stderr, "Keychain is locked. Enter your login password to unlock it.")
	return UnlockKeychain()
}
