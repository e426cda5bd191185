package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/atelier/internal/app"
	"github.com/Additional-Code/atelier/internal/entity"
	"github.com/Additional-Code/atelier/internal/identity"
	"github.com/Additional-Code/atelier/internal/logger"
	"github.com/Additional-Code/atelier/internal/migration"
	"github.com/Additional-Code/atelier/internal/seeder"
	"github.com/Additional-Code/atelier/internal/service/notification"
	"github.com/Additional-Code/atelier/internal/status"
)

// NewRootCommand builds the root atelier CLI command.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "atelier",
		Short:         "Atelier order service toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newStartCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newNotificationsCmd())
	root.AddCommand(newWorkerCmd())

	return root
}

// Execute runs the atelier CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the HTTP and gRPC services",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.Module
			if withWorker, _ := cmd.Flags().GetBool("with-worker"); withWorker {
				opts = app.Standalone
			}
			return runUntilDone(cmd.Context(), fx.New(opts, logger.FxLogger()))
		},
	}
	cmd.Flags().Bool("with-worker", false, "Also consume order events in this process")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mig *migration.Migrator
			opts := fx.Options(app.Core, migration.Module, fx.Populate(&mig))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := mig.Status(ctx); err != nil {
					return err
				}
				v, err := mig.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, statusCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample orders into the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			fake, _ := cmd.Flags().GetInt("fake")
			seed, _ := cmd.Flags().GetUint64("seed")
			var s *seeder.Seeder
			opts := fx.Options(app.Core, seeder.Module, fx.Populate(&s))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				if err := s.Orders(ctx); err != nil {
					return err
				}
				if fake > 0 {
					if err := s.FakeOrders(ctx, seed, fake); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
	cmd.Flags().Int("fake", 0, "Also insert this many generated orders")
	cmd.Flags().Uint64("seed", 1, "Random seed for generated orders")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <text>",
		Short: "Show how a status string maps onto the fulfilment stages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := args[0]
			for _, a := range args[1:] {
				raw += " " + a
			}
			fmt.Fprint(cmd.OutOrStdout(), describeStatus(raw))
			return nil
		},
	}
}

func describeStatus(raw string) string {
	p := status.Canonicalize(raw)
	_, known := status.Parse(raw)
	out := fmt.Sprintf("input:     %q\ncanonical: %s\n", raw, p.Status())
	if p.Cancelled {
		out += "cancelled: true\n"
	} else {
		out += fmt.Sprintf("stage:     %d/%d\nprogress:  %d%%\n", p.Stage, status.LastStage, p.Percent())
	}
	if !known {
		out += "note:      unrecognised; shown as the first stage\n"
	}
	return out
}

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect order notifications",
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Poll and print new notifications for one or more principals",
		RunE: func(cmd *cobra.Command, args []string) error {
			principals, _ := cmd.Flags().GetStringSlice("principal")
			if len(principals) == 0 {
				principals = []string{identity.Anonymous}
			}
			var svc *notification.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				out := cmd.OutOrStdout()
				svc.Subscribe(func(_ context.Context, n entity.Notification) {
					fmt.Fprintf(out, "[%d] %s %s %s: %s\n", n.ID, n.CreatedAt.Format(time.RFC3339), n.Principal, n.OrderID, n.Message)
				})
				fmt.Fprintf(out, "watching notifications for %v every %s\n", principals, svc.Interval())

				g, gctx := errgroup.WithContext(ctx)
				for _, p := range principals {
					g.Go(func() error { return svc.Run(gctx, p) })
				}
				return g.Wait()
			})
		},
	}
	watch.Flags().StringSlice("principal", nil, "Principal whose notifications to watch (repeatable)")

	cmd.AddCommand(watch)
	return cmd
}

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Manage background workers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run worker engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntilDone(cmd.Context(), fx.New(app.Worker, logger.FxLogger()))
		},
	})
	return cmd
}

func runUntilDone(ctx context.Context, application *fx.App) error {
	if err := application.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return application.Stop(stopCtx)
}

func runWithApp(ctx context.Context, opts fx.Option, fn func(context.Context) error) error {
	application := fx.New(opts, fx.NopLogger)
	if err := application.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = application.Stop(stopCtx)
	}()
	return fn(ctx)
}
