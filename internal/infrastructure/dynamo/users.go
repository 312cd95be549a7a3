package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UserRegistry answers identity lookups against the users table's email-index GSI.
type UserRegistry struct {
	client    API
	tableName string
}

func NewUserRegistry(client API, tableName string) *UserRegistry {
	return &UserRegistry{client: client, tableName: tableName}
}

func (r *UserRegistry) Exists(ctx context.Context, email string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": "email"},
		ExpressionAttributeValues: strValue(":v", email),
		Select:                    types.SelectCount,
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("query users by email: %w", err)
	}
	return out.Count > 0, nil
}
