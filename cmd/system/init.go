package system

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mentorweb/mentorweb_backend/config"
	"github.com/mentorweb/mentorweb_backend/internal/model"
	"github.com/mentorweb/mentorweb_backend/internal/service/user"
	"github.com/mentorweb/mentorweb_backend/pkg/authorize"
	"github.com/mentorweb/mentorweb_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	var (
		adminEmail    string
		adminPassword string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the database and bootstrap the first admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			db, err := database.New(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("failed to access database handle: %w", err)
			}
			defer sqlDB.Close()

			fmt.Println("Running migrations.")
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			enforcer, err := authorize.NewEnforcer(db)
			if err != nil {
				return fmt.Errorf("failed to create enforcer: %w", err)
			}
			auth, err := authorize.NewAuthorization(enforcer)
			if err != nil {
				return fmt.Errorf("failed to create authorization: %w", err)
			}

			fmt.Println("Seeding access policies.")
			ctx := context.Background()
			if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
				return fmt.Errorf("failed to seed policies: %w", err)
			}

			users := user.New(db, auth)
			_, err = users.Create(ctx, user.CreateRequest{
				Email:     adminEmail,
				Password:  adminPassword,
				FirstName: "Admin",
				Role:      model.RoleAdmin,
			})
			switch {
			case errors.Is(err, user.ErrEmailTaken):
				fmt.Println("Admin account already exists, nothing to do.")
			case err != nil:
				return fmt.Errorf("failed to create admin account: %w", err)
			default:
				fmt.Printf("Admin account %s created.\n", adminEmail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@localhost", "email for the bootstrap admin account")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password for the bootstrap admin account")
	_ = cmd.MarkFlagRequired("admin-password")

	return cmd
}
