package storage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDB is the subset of the DynamoDB API the client calls.
type DynamoDB interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type Config struct {
	EvaluationsTableName *string
	// TTL sets the ExpiresAt attribute of written items. Zero disables it.
	TTL time.Duration
}

type Client struct {
	dynamodb DynamoDB
	cfg      Config
	now      func() time.Time
}

func NewClient(dynamoClient DynamoDB, cfg Config) *Client {
	return &Client{
		dynamodb: dynamoClient,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (client *Client) Close() error {
	return nil
}
