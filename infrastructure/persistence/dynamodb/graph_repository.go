// Package dynamodb persists graph snapshots and layout state in a single
// DynamoDB table. Keys: PK "GRAPH#<id>" / SK "SNAPSHOT" for snapshots,
// PK "LAYOUT#<id>" / SK "STATE" for layouts.
package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"cdm-backend/domain/graph"
)

const (
	graphKeyPrefix  = "GRAPH#"
	snapshotSortKey = "SNAPSHOT"
)

// GraphRepository stores whole snapshots, one item per graph id
type GraphRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewGraphRepository creates a snapshot repository on the given table
func NewGraphRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *GraphRepository {
	return &GraphRepository{client: client, tableName: tableName, logger: logger}
}

type snapshotItem struct {
	PK         string       `dynamodbav:"PK"`
	SK         string       `dynamodbav:"SK"`
	EntityType string       `dynamodbav:"EntityType"`
	GraphID    string       `dynamodbav:"GraphID"`
	Nodes      []graph.Node `dynamodbav:"Nodes"`
	Edges      []graph.Edge `dynamodbav:"Edges"`
}

// GetSnapshot returns the stored snapshot, or an empty one for an unknown id
func (r *GraphRepository) GetSnapshot(ctx context.Context, graphID string) (graph.Snapshot, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: graphKeyPrefix + graphID},
			"SK": &types.AttributeValueMemberS{Value: snapshotSortKey},
		},
	}
	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("get snapshot %s: %w", graphID, err)
	}
	if result.Item == nil {
		return graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, nil
	}
	var item snapshotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return graph.Snapshot{}, fmt.Errorf("unmarshal snapshot %s: %w", graphID, err)
	}
	snapshot := graph.Snapshot{Nodes: item.Nodes, Edges: item.Edges}
	if snapshot.Nodes == nil {
		snapshot.Nodes = []graph.Node{}
	}
	if snapshot.Edges == nil {
		snapshot.Edges = []graph.Edge{}
	}
	return snapshot, nil
}

// SaveSnapshot replaces the stored snapshot for the graph id
func (r *GraphRepository) SaveSnapshot(ctx context.Context, graphID string, snapshot graph.Snapshot) error {
	item := snapshotItem{
		PK:         graphKeyPrefix + graphID,
		SK:         snapshotSortKey,
		EntityType: "GRAPH_SNAPSHOT",
		GraphID:    graphID,
		Nodes:      snapshot.Nodes,
		Edges:      snapshot.Edges,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", graphID, err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("save snapshot failed",
			zap.String("graphId", graphID),
			zap.Error(err),
		)
		return fmt.Errorf("save snapshot %s: %w", graphID, err)
	}
	r.logger.Debug("snapshot saved",
		zap.String("graphId", graphID),
		zap.Int("nodes", len(snapshot.Nodes)),
		zap.Int("edges", len(snapshot.Edges)),
	)
	return nil
}

// ListGraphIDs scans the snapshot items and returns their graph ids
func (r *GraphRepository) ListGraphIDs(ctx context.Context) ([]string, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("EntityType").Equal(expression.Value("GRAPH_SNAPSHOT"))).
		WithProjection(expression.NamesList(expression.Name("PK"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build list expression: %w", err)
	}

	ids := make([]string, 0)
	var startKey map[string]types.AttributeValue
	for {
		result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          expr.Filter(),
			ProjectionExpression:      expr.Projection(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan graph ids: %w", err)
		}
		for _, item := range result.Items {
			pk, ok := item["PK"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			ids = append(ids, strings.TrimPrefix(pk.Value, graphKeyPrefix))
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return ids, nil
}
