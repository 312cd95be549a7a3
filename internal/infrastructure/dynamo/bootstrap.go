package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/securescan-api/internal/config"
	"go.uber.org/zap"
)

// TableAdmin is the subset of *dynamodb.Client Bootstrap needs.
type TableAdmin interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTimeToLive(ctx context.Context, in *dynamodb.UpdateTimeToLiveInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// Bootstrap creates the users and pending-codes tables if they don't already
// exist and enables TTL on pending codes. Existing tables are left untouched.
func Bootstrap(ctx context.Context, client TableAdmin, tables config.DynamoTables, log *zap.Logger) error {
	var errs []error

	errs = append(errs, createTable(ctx, client, log, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("user_id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("user_id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi("email-index", "email"),
		},
	}))

	errs = append(errs, createTable(ctx, client, log, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.PendingCodes),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("identity"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("identity"), KeyType: types.KeyTypeHash},
		},
	}))
	errs = append(errs, enableTTL(ctx, client, tables.PendingCodes, "expires_at"))

	return errors.Join(errs...)
}

func gsi(indexName, hashKey string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName: aws.String(indexName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeKeysOnly},
	}
}

func createTable(ctx context.Context, client TableAdmin, log *zap.Logger, input *dynamodb.CreateTableInput) error {
	name := aws.ToString(input.TableName)
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if errors.As(err, &riue) {
			log.Debug("table exists", zap.String("table", name))
			return nil
		}
		return fmt.Errorf("create table %s: %w", name, err)
	}
	log.Info("created table", zap.String("table", name))
	return nil
}

func enableTTL(ctx context.Context, client TableAdmin, tableName, ttlAttr string) error {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		// Re-enabling TTL on a table that already has it is rejected; treat as done.
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" &&
			strings.Contains(apiErr.ErrorMessage(), "already enabled") {
			return nil
		}
		return fmt.Errorf("enable TTL on %s: %w", tableName, err)
	}
	return nil
}
