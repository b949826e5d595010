// create-invite issues a technician invite from the command line, or promotes an
// existing account to admin. It talks to Postgres directly and needs the same
// environment as the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"pixelpanic/internal/core/config"
	"pixelpanic/internal/core/database"
	"pixelpanic/internal/core/logger"
	authadapter "pixelpanic/internal/features/auth/adapters"
	authdomain "pixelpanic/internal/features/auth/domain"
	authports "pixelpanic/internal/features/auth/ports"
	techadapter "pixelpanic/internal/features/technicians/adapters"
	techservice "pixelpanic/internal/features/technicians/service"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		phone      string
		name       string
		promote    bool
		configPath string
	)

	flagSet := pflag.NewFlagSet("create-invite", pflag.ContinueOnError)
	flagSet.StringVarP(&phone, "phone", "p", "", "phone number in E.164 form, e.g. +919876543210 (required)")
	flagSet.StringVarP(&name, "name", "n", "", "display name shown on the invite page")
	flagSet.BoolVar(&promote, "admin", false, "promote the account owning --phone to admin instead of inviting")
	flagSet.StringVar(&configPath, "config", ".", "directory containing the .env file")
	flagSet.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: create-invite --phone +919876543210 [--name Ravi] [--admin]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if phone == "" {
		flagSet.Usage()
		return errors.New("--phone is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	if promote {
		return promoteAdmin(ctx, authadapter.NewPostgresUserRepository(db), phone)
	}

	invites := techservice.NewInviteService(techadapter.NewPostgresInviteRepository(db), cfg.Auth.InviteTTL())
	invite, err := invites.Create(ctx, phone, name)
	if err != nil {
		return err
	}

	fmt.Printf("Invite for %s expires %s\n", invite.PhoneNumber, invite.ExpiresAt.Format(time.RFC1123))
	fmt.Printf("%s/technician/invite/%s\n", cfg.PublicBaseURL, invite.Token)
	return nil
}

// promoteAdmin grants the admin role to the account owning phone, creating it if needed.
func promoteAdmin(ctx context.Context, users authports.UserRepository, rawPhone string) error {
	phone, err := authdomain.NormalizePhone(rawPhone)
	if err != nil {
		return err
	}

	user, err := users.FindOrCreateByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.Is(authdomain.RoleAdmin) {
		fmt.Printf("%s is already an admin\n", phone)
		return nil
	}

	if err := users.SetRole(ctx, user.ID, authdomain.RoleAdmin); err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}
	fmt.Printf("%s promoted from %s to admin\n", phone, user.Role)
	return nil
}
