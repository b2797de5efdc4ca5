package main

import (
	"context"
	"fmt"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/internal/adapters/repository/dynamo"
	"github.com/okian/holotrumps/internal/adapters/repository/sqlite"
	service "github.com/okian/holotrumps/internal/app"
	"github.com/okian/holotrumps/internal/config"
	"github.com/okian/holotrumps/pkg/logger"
)

// storeOpener returns the opener for the configured backend. The memory
// backend returns nil so the service builds its own treap store.
func storeOpener(cfg *config.Config, log logger.Logger) service.StoreOpener {
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		return func(ctx context.Context) (repository.Store, error) {
			client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
				Region:          cfg.AWSRegion,
				Endpoint:        cfg.DynamoDBEndpoint,
				AccessKeyID:     cfg.AWSAccessKeyID,
				SecretAccessKey: cfg.AWSSecretAccessKey,
			})
			if err != nil {
				return nil, err
			}
			store := dynamo.New(client, dynamo.WithLogger(log.Named("dynamodb")))
			// Tables are provisioned elsewhere in AWS; a custom endpoint
			// means DynamoDB Local, where we create them.
			if cfg.DynamoDBEndpoint != "" {
				if err := store.EnsureTables(ctx, cfg.PeopleTable, cfg.StarshipsTable); err != nil {
					return nil, fmt.Errorf("ensure tables: %w", err)
				}
			}
			return store, nil
		}
	case config.BackendSQLite:
		return func(ctx context.Context) (repository.Store, error) {
			store, err := sqlite.Open(ctx, cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			return store, nil
		}
	default:
		return nil
	}
}
