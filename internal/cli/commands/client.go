package commands

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/gobis-cli/gobis/internal/cli/config"
	"github.com/gobis-cli/gobis/internal/cli/ui"
	"github.com/gobis-cli/gobis/internal/openbis"
)

// catalogSession bundles an authenticated client with the loaded
// configuration so run functions resolve both in one call.
type catalogSession struct {
	client    *openbis.Client
	cfg       *config.Config
	serverURL string
	noColor   bool
}

// newCatalogSession loads configuration and credentials, builds the HTTP
// client, and ensures an authenticated session. A token cached by a previous
// run is tried first; when it is missing or rejected, one login with the
// stored credentials follows, prompting for anything absent.
func newCatalogSession(ctx context.Context, serverOverride string) (*catalogSession, error) {
	errorColor := color.New(color.FgRed, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}

	serverURL := firstNonEmpty(serverOverride, creds.URL, cfg.Server.URL)
	if serverURL == "" {
		errorColor.Println("✗ Catalog server not configured")
		fmt.Println("\nTo fix, set the server URL in one of these ways:")
		fmt.Println("  1. Environment variable:")
		fmt.Println("     export GOBIS_URL=\"https://openbis.example.org\"")
		fmt.Println("  2. Credentials file (~/.gobis/credentials):")
		fmt.Println("     url=https://openbis.example.org")
		fmt.Println("  3. In gobis.yaml:")
		fmt.Println("     server:")
		fmt.Println("       url: https://openbis.example.org")
		fmt.Println("  4. Using the --server flag:")
		fmt.Println("     gobis connect --server https://openbis.example.org")
		return nil, fmt.Errorf("catalog server not configured")
	}

	opts := []openbis.Option{
		openbis.WithTimeout(cfg.Server.Timeout),
		openbis.WithLogger(debugLogger()),
	}
	if !cfg.Server.VerifyTLS {
		opts = append(opts, openbis.WithInsecureTLS())
	}
	if token := config.ReadToken(); token != "" {
		opts = append(opts, openbis.WithToken(token))
	}

	sess := &catalogSession{
		client:    openbis.NewClient(serverURL, opts...),
		cfg:       cfg,
		serverURL: serverURL,
		noColor:   noColorFlag || cfg.Output.NoColor,
	}

	if sess.client.SessionActive(ctx) {
		return sess, nil
	}
	if config.ReadToken() != "" {
		// The cached token no longer checks in; drop it so a failed login
		// does not leave it behind for the next run to retry.
		_ = config.ClearToken()
	}
	if err := sess.login(ctx, creds); err != nil {
		return nil, err
	}
	return sess, nil
}

// login authenticates with the stored credentials, prompting for the missing
// pieces, and caches the fresh session token for later runs.
func (s *catalogSession) login(ctx context.Context, creds config.Credentials) error {
	errorColor := color.New(color.FgRed, color.Bold)

	username := creds.Username
	if username == "" {
		prompt := &survey.Input{
			Message: fmt.Sprintf("Username for %s:", s.serverURL),
		}
		if err := survey.AskOne(prompt, &username, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	password := creds.Password
	if password == "" {
		prompt := &survey.Password{
			Message: fmt.Sprintf("Password for %s:", username),
		}
		if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	token, err := s.client.Login(ctx, username, password)
	if err != nil {
		if openbis.IsAuth(err) {
			errorColor.Printf("✗ Login failed for user '%s'\n", username)
			return fmt.Errorf("authentication rejected by %s", s.serverURL)
		}
		renderCatalogError(err, s.serverURL, s.noColor)
		return fmt.Errorf("login: %w", err)
	}

	if err := config.WriteToken(token); err != nil {
		fmt.Print(ui.Warning(fmt.Sprintf("Session token could not be cached: %v", err), nil, s.noColor))
	}
	return nil
}

// renderCatalogError prints the standard detail block for gateway errors and
// reports whether it recognized the error. Not-found errors are left to the
// caller, which knows what was being looked up.
func renderCatalogError(err error, serverURL string, noColor bool) bool {
	switch {
	case openbis.IsAuth(err):
		fmt.Print(ui.SessionExpiredError(noColor))
	case openbis.IsConnection(err):
		fmt.Print(ui.ConnectionFailedError(serverURL, noColor))
	default:
		return false
	}
	return true
}

// debugLogger returns a development logger when --debug is set, a no-op
// logger otherwise.
func debugLogger() *zap.Logger {
	if !debugFlag {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
