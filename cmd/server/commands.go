package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studentacc/accommodation-booking/internal/config"
	"github.com/studentacc/accommodation-booking/internal/database"
	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/queue"
	"github.com/studentacc/accommodation-booking/internal/repository"
)

func openDB(cfg config.Config) (*sql.DB, error) {
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if show, _ := cmd.Flags().GetBool("print"); show {
				fmt.Fprint(cmd.OutOrStdout(), database.Schema())
				return nil
			}
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			defer db.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			config.NewLogger().Info("schema is up to date")
			return nil
		},
	}
	cmd.Flags().Bool("print", false, "print the schema instead of applying it")
	return cmd
}

func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Append booking snapshots from the queue to the booking log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadNotifyConfig()
			if cfg.AMQPURL == "" {
				return errors.New("RABBITMQ_URL (or AMQP_URL) is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			c := &queue.Consumer{URL: cfg.AMQPURL, Queue: cfg.QueueName, LogPath: cfg.BookingLog, Log: config.NewLogger()}
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sessions", Short: "Manage login sessions"}
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired and revoked sessions (--all deletes every session)",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			db, err := openDB(config.Load())
			if err != nil {
				return err
			}
			defer db.Close()
			policy := config.SessionsPurgeExpired
			if all {
				policy = config.SessionsPurgeAll
			}
			n, err := applySessionPolicy(cmd.Context(), repository.NewSessionRepo(db), policy, time.Now(), config.NewLogger())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d sessions removed\n", n)
			return nil
		},
	}
	purge.Flags().Bool("all", false, "remove every session, forcing all users to log in again")
	cmd.AddCommand(purge)
	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Manage administrator accounts"}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an ADMIN user, or promote an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			cfg := config.Load()
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			id, created, err := ensureAdmin(cmd.Context(), repository.NewUserRepo(db), repository.NewSessionRepo(db), email, password, cfg.BcryptCost)
			if err != nil {
				return err
			}
			verb := "promoted"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s %s (id %d)\n", repository.NormalizeEmail(email), verb, id)
			return nil
		},
	}
	create.Flags().String("email", "", "admin email address")
	create.Flags().String("password", "", "password for a new account (min 8 characters)")
	_ = create.MarkFlagRequired("email")
	cmd.AddCommand(create)
	return cmd
}

type adminUsers interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
	SetRole(ctx context.Context, id uint64, role string) error
}

type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ensureAdmin promotes an existing account, revoking its sessions so the
// new role is picked up at the next login, or creates a fresh ADMIN.
func ensureAdmin(ctx context.Context, users adminUsers, sessions sessionRevoker, email, password string, cost int) (uint64, bool, error) {
	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == model.RoleAdmin {
			return u.ID, false, nil
		}
		if err := users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
			return 0, false, fmt.Errorf("promote %s: %w", u.Email, err)
		}
		return u.ID, false, sessions.RevokeAllForUser(ctx, u.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, false, err
	}
	if len(password) < 8 {
		return 0, false, errors.New("--password of at least 8 characters is required for a new account")
	}
	id, err := users.Create(ctx, email, password, model.RoleAdmin, cost)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
