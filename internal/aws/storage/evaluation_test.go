package storage

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chess-vn/maia/internal/cache"
	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	name  string
	items map[string]map[string]types.AttributeValue
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if aws.ToString(in.TableName) != f.name {
		return nil, &types.ResourceNotFoundException{}
	}
	key := in.Key["Key"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[key]}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if aws.ToString(in.TableName) != f.name {
		return nil, &types.ResourceNotFoundException{}
	}
	key := in.Item["Key"].(*types.AttributeValueMemberS).Value
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func newTestClient(ttl time.Duration) (*Client, *fakeTable) {
	table := &fakeTable{name: "Evaluations", items: map[string]map[string]types.AttributeValue{}}
	return NewClient(table, Config{EvaluationsTableName: aws.String("Evaluations"), TTL: ttl}), table
}

func sampleEvaluation() entities.PositionEvaluation {
	return entities.PositionEvaluation{
		Fen:     "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		EloSelf: 4,
		EloOppo: 6,
		Evaluation: entities.Evaluation{
			Policy: []entities.MoveProbability{{Uci: "e2e4", Probability: 0.5}, {Uci: "d2d4", Probability: 0.25}},
			Value:  0.5,
		},
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluationRoundTrip(t *testing.T) {
	client, table := newTestClient(time.Hour)
	ctx := context.Background()
	eval := sampleEvaluation()

	require.NoError(t, client.PutEvaluation(ctx, eval))
	require.Len(t, table.items, 1)
	assert.Contains(t, table.items[cache.KeyOf(eval).String()], "ExpiresAt")

	got, err := client.GetEvaluation(ctx, cache.KeyOf(eval))
	require.NoError(t, err)
	assert.Equal(t, eval, got)
}

func TestEvaluationNotFound(t *testing.T) {
	client, _ := newTestClient(0)
	_, err := client.GetEvaluation(context.Background(), cache.Key{Fen: "x"})
	assert.ErrorIs(t, err, ErrEvaluationNotFound)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestEvaluationExpired(t *testing.T) {
	client, _ := newTestClient(time.Minute)
	ctx := context.Background()
	eval := sampleEvaluation()
	require.NoError(t, client.PutEvaluation(ctx, eval))

	client.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := client.GetEvaluation(ctx, cache.KeyOf(eval))
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestEvaluationWithoutTTL(t *testing.T) {
	client, table := newTestClient(0)
	eval := sampleEvaluation()
	require.NoError(t, client.PutEvaluation(context.Background(), eval))
	assert.NotContains(t, table.items[cache.KeyOf(eval).String()], "ExpiresAt")
}

var _ cache.Store = (*Client)(nil)
