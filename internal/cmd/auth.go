package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/csvprep/internal/secrets"
)

// defaultProfile is the profile name used for credentials
const defaultProfile = "default"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage object store credentials",
	Long: `Manage the access keys used for s3:// locators.

Credentials are stored securely in your system keychain (macOS Keychain,
Windows Credential Manager, or encrypted file on Linux).

Lookup order when loading s3:// locators:
  1. CSVPREP_ACCESS_KEY_ID / CSVPREP_SECRET_ACCESS_KEY
  2. the keyring profile selected with --profile
  3. the standard AWS / MinIO environment, credentials file, or IAM role

Examples:
  csvprep auth login --access-key-id AKIA... --secret-access-key ...
  csvprep auth login                 # Interactive prompt
  csvprep auth status
  csvprep auth logout`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store object store credentials",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored credentials",
	RunE:  runStatus,
}

var (
	loginAccessKeyID     string
	loginSecretAccessKey string
	loginSessionToken    string
)

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)

	loginCmd.Flags().StringVar(&loginAccessKeyID, "access-key-id", "", "Access key id")
	loginCmd.Flags().StringVar(&loginSecretAccessKey, "secret-access-key", "", "Secret access key")
	loginCmd.Flags().StringVar(&loginSessionToken, "session-token", "", "Session token for temporary credentials")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	id := firstNonEmpty(loginAccessKeyID, envGet(envAccessKeyID))
	secret := firstNonEmpty(loginSecretAccessKey, envGet(envSecretAccessKey))
	session := firstNonEmpty(loginSessionToken, envGet(envSessionToken))

	if id == "" {
		if id, err = promptString(ctx, "Access key id: "); err != nil {
			return fmt.Errorf("failed to read access key id: %w", err)
		}
	}
	if id == "" {
		return fmt.Errorf("access key id is required")
	}
	if secret == "" {
		if secret, err = promptSecret(ctx, "Secret access key: "); err != nil {
			return fmt.Errorf("failed to read secret access key: %w", err)
		}
	}
	if secret == "" {
		return fmt.Errorf("secret access key is required")
	}

	profile := profileOrDefault(profileName)
	creds := secrets.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    session,
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.SetCredentials(profile, creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status":        "authenticated",
			"profile":       profile,
			"access_key_id": maskToken(id),
		})
	}

	out := stdoutFromContext(ctx)
	fmt.Fprintf(out, "Stored credentials for profile %q.\n", profile)
	fmt.Fprintln(out, "s3:// locators will now use them.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	profile := profileOrDefault(profileName)
	if err := store.DeleteCredentials(profile); err != nil && !errors.Is(err, secrets.ErrNotFound) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}

	if structuredOutputRequested() {
		return printStructured(map[string]interface{}{
			"status":  "logged_out",
			"profile": profile,
		})
	}

	fmt.Fprintf(stdoutFromContext(cmd.Context()), "Removed credentials for profile %q.\n", profile)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openSecretsStore()
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	profile := profileOrDefault(profileName)
	out := stdoutFromContext(cmd.Context())
	envOverride := strings.TrimSpace(envGet(envAccessKeyID)) != ""

	creds, err := store.GetCredentials(profile)
	if err != nil {
		if !errors.Is(err, secrets.ErrNotFound) {
			return err
		}
		if structuredOutputRequested() {
			return printStructured(map[string]interface{}{
				"authenticated": false,
				"profile":       profile,
				"env_override":  envOverride,
			})
		}
		fmt.Fprintf(out, "Status: No credentials stored for profile %q\n", profile)
		fmt.Fprintln(out, "\nRun 'csvprep auth login' to store them.")
		return nil
	}

	if structuredOutputRequested() {
		result := map[string]interface{}{
			"authenticated":     true,
			"profile":           profile,
			"access_key_id":     maskToken(creds.AccessKeyID),
			"has_session_token": creds.SessionToken != "",
			"env_override":      envOverride,
		}
		if !creds.CreatedAt.IsZero() {
			result["authenticated_at"] = creds.CreatedAt.Format(time.RFC3339)
		}
		return printStructured(result)
	}

	fmt.Fprintln(out, "Status: Authenticated")
	fmt.Fprintf(out, "Profile: %s\n", profile)
	fmt.Fprintf(out, "Access key: %s\n", maskToken(creds.AccessKeyID))
	if !creds.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Stored at: %s\n", creds.CreatedAt.Format(time.RFC3339))
	}
	if envOverride {
		fmt.Fprintf(out, "Note: %s is set and takes precedence.\n", envAccessKeyID)
	}
	return nil
}

// promptString prompts for a string input
func promptString(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)
	return readLine(stdinFromContext(ctx))
}

// promptSecret prompts for a secret input (no echo)
func promptSecret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(stderrFromContext(ctx), prompt)

	in := stdinFromContext(ctx)
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		password, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(stderrFromContext(ctx))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(password)), nil
	}

	// Fall back to regular input for non-terminal (e.g., piped input)
	return readLine(in)
}

// readLine reads up to the next newline one byte at a time, so several
// prompts can share one unbuffered reader.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) && sb.Len() > 0 {
				break
			}
			return "", err
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// maskToken masks a secret for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
