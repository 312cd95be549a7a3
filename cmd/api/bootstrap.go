package main

import (
	"context"
	"errors"

	"github.com/securescan-api/internal/config"
	"github.com/securescan-api/internal/infrastructure/dynamo"
	mongoinfra "github.com/securescan-api/internal/infrastructure/mongo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create tables and indexes for the configured backends",
	RunE:  runBootstrap,
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*connectTimeout)
	defer cancel()

	b := newBackends(cfg, log)
	defer b.close()

	var errs []error
	if cfg.CodeStore == config.StoreDynamo || cfg.IdentityBackend == config.RegistryDynamo {
		client, err := b.dynamoClient(ctx)
		if err != nil {
			return err
		}
		errs = append(errs, dynamo.Bootstrap(ctx, client, cfg.DynamoTables, log))
	}
	if cfg.IdentityBackend == config.RegistryMongo {
		client, err := b.mongoClient(ctx)
		if err != nil {
			return err
		}
		if err := mongoinfra.EnsureEmailIndex(ctx, client.Database(cfg.MongoDatabase), cfg.MongoCollection); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("mongo email index ready", zap.String("collection", cfg.MongoCollection))
		}
	}
	return errors.Join(errs...)
}
