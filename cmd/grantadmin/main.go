// Command grantadmin gives an existing provider account the admin role.
//
//	grantadmin --email=someone@example.com
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mediahub/internal/identity"
	"mediahub/internal/infra"
)

func main() {
	infra.LoadDotEnv()
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		exitWithError(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("grantadmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var emailFlag string
	fs.StringVar(&emailFlag, "email", "", "email of the account to promote")
	if err := fs.Parse(args); err != nil {
		return err
	}
	email := strings.TrimSpace(emailFlag)
	if email == "" {
		return errors.New("--email is required")
	}

	cfg, err := infra.LoadProviderConfig()
	if err != nil {
		return err
	}
	logger := infra.NewCLILogger("grantadmin")
	client, err := identity.NewClient(identity.Options{
		BaseURL:    cfg.URL,
		ServiceKey: cfg.ServiceKey,
		AnonKey:    cfg.AnonKey,
		Logger:     &logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	user, err := identity.NewGranter(client).GrantAdmin(ctx, email)
	if err != nil {
		return fmt.Errorf("grant admin to %s: %w", email, err)
	}
	fmt.Fprintf(stdout, "Granted admin role to %s (user %s)\n", email, user.ID)
	return nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
