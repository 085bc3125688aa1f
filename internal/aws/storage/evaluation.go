package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chess-vn/maia/internal/cache"
	"github.com/chess-vn/maia/internal/domains/entities"
)

var ErrEvaluationNotFound = fmt.Errorf("evaluation not found: %w", cache.ErrMiss)

type evaluationItem struct {
	Key        string              `dynamodbav:"Key"`
	Fen        string              `dynamodbav:"Fen"`
	EloSelf    int64               `dynamodbav:"EloSelf"`
	EloOppo    int64               `dynamodbav:"EloOppo"`
	Evaluation entities.Evaluation `dynamodbav:"Evaluation"`
	CreatedAt  time.Time           `dynamodbav:"CreatedAt"`
	ExpiresAt  int64               `dynamodbav:"ExpiresAt,omitempty"`
}

func (client *Client) GetEvaluation(ctx context.Context, key cache.Key) (entities.PositionEvaluation, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.EvaluationsTableName,
		Key: map[string]types.AttributeValue{
			"Key": &types.AttributeValueMemberS{
				Value: key.String(),
			},
		},
	})
	if err != nil {
		return entities.PositionEvaluation{}, err
	}
	if output.Item == nil {
		return entities.PositionEvaluation{}, ErrEvaluationNotFound
	}
	var item evaluationItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return entities.PositionEvaluation{}, err
	}
	// DynamoDB deletes expired items lazily.
	if item.ExpiresAt != 0 && item.ExpiresAt <= client.now().Unix() {
		return entities.PositionEvaluation{}, ErrEvaluationNotFound
	}
	return entities.PositionEvaluation{
		Fen:        item.Fen,
		EloSelf:    item.EloSelf,
		EloOppo:    item.EloOppo,
		Evaluation: item.Evaluation,
		CreatedAt:  item.CreatedAt,
	}, nil
}

func (client *Client) PutEvaluation(ctx context.Context, eval entities.PositionEvaluation) error {
	item := evaluationItem{
		Key:        cache.KeyOf(eval).String(),
		Fen:        eval.Fen,
		EloSelf:    eval.EloSelf,
		EloOppo:    eval.EloOppo,
		Evaluation: eval.Evaluation,
		CreatedAt:  eval.CreatedAt,
	}
	if client.cfg.TTL > 0 {
		item.ExpiresAt = client.now().Add(client.cfg.TTL).Unix()
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.EvaluationsTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put evaluation: %w", err)
	}
	return nil
}
