//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"cdm-backend/application/ports"
	"cdm-backend/infrastructure/config"
	"cdm-backend/interfaces/http/rest"
	"cdm-backend/interfaces/http/rest/handlers"
	"cdm-backend/interfaces/websocket"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	GraphRepo       ports.GraphRepository
	LayoutRepo      ports.LayoutRepository
	Visits          handlers.VisitStore
	Metrics         handlers.MetricStore
	Audit           ports.AuditLog
	Hub             *websocket.Hub
	Network         *websocket.NetworkChannels
	WebSocketServer *websocket.Server
	Router          *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideCloudWatchClient,
	ProvideEventBridgeClient,
	ProvideGraphRepository,
	ProvideLayoutRepository,
	ProvideVisitStore,
	ProvideMetricStore,
	ProvideAuditLog,
	ProvideHub,
	ProvideNetworkChannels,
	ProvideWebSocketServer,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
