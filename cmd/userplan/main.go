// Command userplan writes a subscription plan into a user's app metadata.
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

	"mediahub/internal/domain"
	"mediahub/internal/entitlement"
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
	var (
		emailFlag string
		planFlag  string
	)
	fs := flag.NewFlagSet("userplan", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&emailFlag, "email", "", "user email to update")
	fs.StringVar(&planFlag, "plan", "pro", "plan to assign (free, pro, exclusive)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	email := strings.TrimSpace(emailFlag)
	if email == "" {
		return errors.New("--email is required")
	}
	plan, ok := domain.ParsePlanID(planFlag)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPlan, planFlag)
	}

	cfg, err := infra.LoadProviderConfig()
	if err != nil {
		return err
	}
	logger := infra.NewCLILogger("userplan")
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
	user, err := identity.NewGranter(client).AssignPlan(ctx, email, plan)
	if err != nil {
		return fmt.Errorf("assign plan to %s: %w", email, err)
	}

	cfgPlan := entitlement.NewRegistry().Plan(plan)
	limit := "unlimited"
	if !cfgPlan.DailyLimit.IsUnlimited() {
		limit = fmt.Sprintf("%d/day", cfgPlan.DailyLimit)
	}
	fmt.Fprintf(stdout, "User %s (%s) updated to plan %s\n", user.ID, email, plan)
	fmt.Fprintf(stdout, "downloads=%s tools=%s\n", limit, cfgPlan.ToolAccess)
	return nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
