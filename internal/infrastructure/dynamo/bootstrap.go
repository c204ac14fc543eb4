package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-2fa/internal/config"
)

// Bootstrap creates the users table if it doesn't already exist.
// Safe to run repeatedly; it is invoked by cmd/migrate, not by the API.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) error {
	return createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(fieldEmail), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldEmail), KeyType: types.KeyTypeHash},
		},
	})
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) error {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException: table already exists.
		var riue *types.ResourceInUseException
		if errors.As(err, &riue) {
			slog.Info("table already exists", "table", *input.TableName)
			return nil
		}
		return err
	}
	slog.Info("created table", "table", *input.TableName)
	return nil
}
