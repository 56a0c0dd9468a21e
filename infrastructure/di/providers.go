// Package di wires the application's dependencies with google/wire.
package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/infrastructure/config"
	dynamostore "cdm-backend/infrastructure/persistence/dynamodb"
	"cdm-backend/infrastructure/persistence/memory"
	"cdm-backend/infrastructure/telemetry"
	"cdm-backend/interfaces/http/rest"
	"cdm-backend/interfaces/http/rest/handlers"
	"cdm-backend/interfaces/websocket"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideGraphRepository creates the snapshot repository selected by config
func ProvideGraphRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.GraphRepository {
	if cfg.Persistence == "dynamodb" {
		return dynamostore.NewGraphRepository(client, cfg.DynamoDBTable, logger)
	}
	return memory.NewGraphStore()
}

// ProvideLayoutRepository creates the layout repository selected by config
func ProvideLayoutRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.LayoutRepository {
	if cfg.Persistence == "dynamodb" {
		return dynamostore.NewLayoutRepository(client, cfg.DynamoDBTable, logger)
	}
	return memory.NewLayoutStore()
}

// ProvideVisitStore creates the visit sink, JSONL-backed
func ProvideVisitStore(cfg *config.Config) handlers.VisitStore {
	return telemetry.NewJSONLVisitSink(cfg.DataDir)
}

// ProvideMetricStore creates the metric sink, JSONL-backed and optionally
// forwarding to CloudWatch
func ProvideMetricStore(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) handlers.MetricStore {
	store := telemetry.NewJSONLMetricSink(cfg.DataDir)
	if cfg.EnableCloudWatch {
		return telemetry.NewTeeMetricStore(store, telemetry.NewCloudWatchMetricSink(client, cfg.MetricsNamespace, logger))
	}
	return telemetry.NewTeeMetricStore(store, nil)
}

// ProvideAuditLog creates the audit log, JSONL-backed and optionally
// published to EventBridge
func ProvideAuditLog(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.AuditLog {
	inner := telemetry.NewJSONLAuditLog(cfg.DataDir)
	if cfg.EnableEventBridge {
		return telemetry.NewEventBridgeAuditLog(inner, client, cfg.EventBusName, logger)
	}
	return inner
}

// ProvideHub creates the relay hub
func ProvideHub(logger *zap.Logger) *websocket.Hub {
	return websocket.NewHub(logger)
}

// ProvideNetworkChannels creates the hub-backed fan-out channels used by
// server-initiated pushes
func ProvideNetworkChannels(hub *websocket.Hub) *websocket.NetworkChannels {
	return websocket.NewNetworkChannels(hub)
}

// ProvideWebSocketServer creates the relay server
func ProvideWebSocketServer(hub *websocket.Hub, graphs ports.GraphRepository, layouts ports.LayoutRepository, cfg *config.Config, logger *zap.Logger) *websocket.Server {
	return websocket.NewServer(hub, graphs, layouts, cfg.EditorTokenSecret, logger)
}

// ProvideRouter creates the REST router
func ProvideRouter(
	graphs ports.GraphRepository,
	layouts ports.LayoutRepository,
	visits handlers.VisitStore,
	metrics handlers.MetricStore,
	audit ports.AuditLog,
	network *websocket.NetworkChannels,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(rest.RouterOptions{
		Graphs:            graphs,
		Layouts:           layouts,
		Visits:            visits,
		Metrics:           metrics,
		Audit:             audit,
		GraphPeers:        network,
		LayoutPeers:       network,
		EditorTokenSecret: cfg.EditorTokenSecret,
		EnableCORS:        cfg.EnableCORS,
		Logger:            logger,
	})
}
