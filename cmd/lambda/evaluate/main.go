package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/chess-vn/maia/internal/app/bootstrap"
	"github.com/chess-vn/maia/internal/app/server"
	"github.com/chess-vn/maia/internal/config"
	"github.com/chess-vn/maia/pkg/logging"
	"go.uber.org/zap"
)

var (
	rt               *bootstrap.Runtime
	apigatewayClient *apigatewaymanagementapi.Client

	region            = os.Getenv("AWS_REGION")
	websocketApiId    = os.Getenv("WEBSOCKET_API_ID")
	websocketApiStage = os.Getenv("WEBSOCKET_API_STAGE")
)

// loadConfig reads the configuration and applies its log level.
func loadConfig(files ...string) (config.Config, error) {
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func setup(ctx context.Context) {
	cfg, err := loadConfig()
	if err != nil {
		logging.Fatal("fatal error config file", zap.Error(err))
	}
	rt, err = bootstrap.New(ctx, cfg)
	if err != nil {
		logging.Fatal("failed to load evaluator", zap.Error(err))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logging.Fatal("failed to load aws config", zap.Error(err))
	}
	apiEndpoint := fmt.Sprintf(
		"https://%s.execute-api.%s.amazonaws.com/%s",
		websocketApiId,
		region,
		websocketApiStage,
	)
	apigatewayClient = apigatewaymanagementapi.New(apigatewaymanagementapi.Options{
		BaseEndpoint: aws.String(apiEndpoint),
		Region:       region,
		Credentials:  awsCfg.Credentials,
	})
}

func handler(
	ctx context.Context,
	event events.APIGatewayWebsocketProxyRequest,
) (
	events.APIGatewayProxyResponse,
	error,
) {
	connectionId := aws.String(event.RequestContext.ConnectionID)

	resp := server.HandleMessage(ctx, rt.Service, []byte(event.Body))
	respJson, err := json.Marshal(resp)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
		}, fmt.Errorf("failed to marshal response: %w", err)
	}
	_, err = apigatewayClient.PostToConnection(
		ctx,
		&apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: connectionId,
			Data:         respJson,
		},
	)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
		}, fmt.Errorf("failed to post to connection: %w", err)
	}
	if resp.Error != "" {
		logging.Info("evaluation request rejected",
			zap.String("connection_id", *connectionId),
			zap.String("error", resp.Error),
		)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
	}, nil
}

func main() {
	setup(context.Background())
	defer logging.Sync()
	lambda.Start(handler)
}
