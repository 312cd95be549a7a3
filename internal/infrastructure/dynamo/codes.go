package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/securescan-api/internal/domain"
)

// codeItem is the stored shape of a pending code.
// PK: identity. expires_at is the table's TTL attribute (Unix seconds);
// expires_at_ms keeps the precise expiry for the read-path check.
type codeItem struct {
	Identity    string `dynamodbav:"identity"`
	IssuanceID  string `dynamodbav:"issuance_id"`
	Code        int    `dynamodbav:"code"`
	ExpiresAtMS int64  `dynamodbav:"expires_at_ms"`
	ExpiresAt   int64  `dynamodbav:"expires_at"`
}

// CodeRepo stores pending codes in a table with DynamoDB TTL enabled.
// TTL deletion can lag by hours, so callers must still check expiry.
type CodeRepo struct {
	client    API
	tableName string
}

func NewCodeRepo(client API, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Get(ctx context.Context, identity string) (*domain.PendingCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey("identity", identity),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get pending code: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending code not found: %w", domain.ErrNotFound)
	}
	var it codeItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal pending code: %w", err)
	}
	return &domain.PendingCode{
		Identity:   it.Identity,
		IssuanceID: it.IssuanceID,
		Code:       it.Code,
		ExpiresAt:  time.UnixMilli(it.ExpiresAtMS),
	}, nil
}

func (r *CodeRepo) Put(ctx context.Context, pc *domain.PendingCode) error {
	item, err := attributevalue.MarshalMap(codeItem{
		Identity:    pc.Identity,
		IssuanceID:  pc.IssuanceID,
		Code:        pc.Code,
		ExpiresAtMS: pc.ExpiresAt.UnixMilli(),
		ExpiresAt:   pc.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshal pending code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put pending code: %w", err)
	}
	return nil
}

func (r *CodeRepo) Delete(ctx context.Context, identity string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("identity", identity),
	})
	if err != nil {
		return fmt.Errorf("delete pending code: %w", err)
	}
	return nil
}
