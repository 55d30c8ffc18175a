package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mantenix/inventory-service/internal/application"
	"github.com/mantenix/inventory-service/internal/infrastructure/authz"
	mongoRepo "github.com/mantenix/inventory-service/internal/infrastructure/mongodb"
	"github.com/mantenix/inventory-service/pkg/cloudevents"
	"github.com/mantenix/inventory-service/pkg/contracts/events"
	"github.com/mantenix/inventory-service/pkg/idempotency"
	"github.com/mantenix/inventory-service/pkg/logging"
	"github.com/mantenix/inventory-service/pkg/mongodb"
	outboxMongo "github.com/mantenix/inventory-service/pkg/outbox/mongodb"
)

type options struct {
	mongoURI string
	database string
	timeout  time.Duration
	verbose  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "invctl",
		Short:         "Inventory service maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	defaults := mongodb.DefaultConfig()
	root.PersistentFlags().StringVar(&opts.mongoURI, "mongo-uri", envOr("MONGODB_URI", defaults.URI), "MongoDB connection string")
	root.PersistentFlags().StringVar(&opts.database, "database", envOr("MONGODB_DATABASE", defaults.Database), "MongoDB database")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall deadline")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newMigrateCmd(opts),
		newReconcileCmd(opts),
		newCleanupCmd(opts),
		newPolicyCmd(),
	)
	return root
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the collection indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, store *mongodb.InstrumentedClient, _ *logging.Logger) error {
				db := store.Database()
				err := mongoRepo.Migrate(ctx, db,
					outboxMongo.NewRepository(db),
					idempotency.NewMongoKeyRepository(db),
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexes ready on %s\n", opts.database)
				return nil
			})
		},
	}
}

func newReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair pending requests whose approval transfer already committed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, store *mongodb.InstrumentedClient, logger *logging.Logger) error {
				db := store.Database()
				validator, err := events.NewValidator()
				if err != nil {
					return err
				}
				publisher := mongoRepo.NewOutboxPublisher(
					outboxMongo.NewRepository(db),
					cloudevents.NewEventFactory(cloudevents.SourceInventory),
					validator,
				)
				reconciler := application.NewReconciler(
					mongoRepo.NewRequestRepository(db),
					application.NewMovementLog(mongoRepo.NewMovementRepository(db)),
					store, publisher, nil, nil, logger,
				)

				n, err := reconciler.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d request(s) reconciled\n", n)
				return nil
			})
		},
	}
}

func newCleanupCmd(opts *options) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired idempotency keys and old published outbox events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), opts, func(ctx context.Context, store *mongodb.InstrumentedClient, _ *logging.Logger) error {
				db := store.Database()
				keys, err := idempotency.NewMongoKeyRepository(db).Clean(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				published, err := outboxMongo.NewRepository(db).DeletePublished(ctx, time.Now().UTC().Add(-retention))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d idempotency key(s) and %d outbox event(s)\n", keys, published)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&retention, "outbox-retention", 7*24*time.Hour, "keep published outbox events this long")
	return cmd
}

func newPolicyCmd() *cobra.Command {
	policy := &cobra.Command{
		Use:   "policy",
		Short: "Inspect authorization policies",
	}
	policy.AddCommand(&cobra.Command{
		Use:   "check [file]",
		Short: "Validate a policy file and list its roles, or the built-in policy without a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			p, err := authz.LoadPolicy(path)
			if err != nil {
				return err
			}

			roles := make([]string, 0, len(p.Roles))
			for role := range p.Roles {
				roles = append(roles, role)
			}
			sort.Strings(roles)
			for _, role := range roles {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", role, strings.Join(p.Roles[role], ", "))
			}
			return nil
		},
	})
	return policy
}

func withStore(ctx context.Context, opts *options, fn func(ctx context.Context, store *mongodb.InstrumentedClient, logger *logging.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	logConfig := logging.DefaultConfig("invctl")
	logConfig.Output = os.Stderr
	if opts.verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.New(logConfig)

	config := mongodb.DefaultConfig()
	config.URI = opts.mongoURI
	config.Database = opts.database
	client, err := mongodb.NewClient(ctx, config)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	return fn(ctx, mongodb.NewInstrumentedClient(client), logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
