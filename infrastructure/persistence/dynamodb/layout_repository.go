package dynamodb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"cdm-backend/domain/collab"
)

const (
	layoutKeyPrefix = "LAYOUT#"
	layoutSortKey   = "STATE"
)

// LayoutRepository stores layout state and acts as the version authority:
// the version is incremented atomically in the update expression, never
// taken from the caller.
type LayoutRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewLayoutRepository creates a layout repository on the given table
func NewLayoutRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *LayoutRepository {
	return &LayoutRepository{client: client, tableName: tableName, logger: logger}
}

// GetLayout returns the stored state and whether one exists
func (r *LayoutRepository) GetLayout(ctx context.Context, graphID string) (collab.LayoutState, bool, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: layoutKeyPrefix + graphID},
			"SK": &types.AttributeValueMemberS{Value: layoutSortKey},
		},
	})
	if err != nil {
		return collab.LayoutState{}, false, fmt.Errorf("get layout %s: %w", graphID, err)
	}
	if result.Item == nil {
		return collab.LayoutState{}, false, nil
	}
	state, err := layoutFromItem(graphID, result.Item)
	if err != nil {
		return collab.LayoutState{}, false, err
	}
	return state, true, nil
}

// SaveLayout persists the state with an atomically incremented version and
// returns the stored result
func (r *LayoutRepository) SaveLayout(ctx context.Context, state collab.LayoutState) (collab.LayoutState, error) {
	updatedAt := state.UpdatedAt
	if updatedAt == "" {
		updatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	toggles := make(map[string]types.AttributeValue, len(state.Toggles))
	for key, value := range state.Toggles {
		toggles[string(key)] = &types.AttributeValueMemberBOOL{Value: value}
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: layoutKeyPrefix + state.GraphID},
			"SK": &types.AttributeValueMemberS{Value: layoutSortKey},
		},
		UpdateExpression: aws.String("SET #version = if_not_exists(#version, :zero) + :one, " +
			"#mode = :mode, Toggles = :toggles, UpdatedAt = :updatedAt, UpdatedBy = :updatedBy, EntityType = :entityType"),
		ExpressionAttributeNames: map[string]string{
			"#version": "Version",
			"#mode":    "Mode",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":       &types.AttributeValueMemberN{Value: "0"},
			":one":        &types.AttributeValueMemberN{Value: "1"},
			":mode":       &types.AttributeValueMemberS{Value: string(state.Mode)},
			":toggles":    &types.AttributeValueMemberM{Value: toggles},
			":updatedAt":  &types.AttributeValueMemberS{Value: updatedAt},
			":updatedBy":  &types.AttributeValueMemberS{Value: state.UpdatedBy},
			":entityType": &types.AttributeValueMemberS{Value: "LAYOUT_STATE"},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		r.logger.Error("save layout failed",
			zap.String("graphId", state.GraphID),
			zap.Error(err),
		)
		return collab.LayoutState{}, fmt.Errorf("save layout %s: %w", state.GraphID, err)
	}
	return layoutFromItem(state.GraphID, result.Attributes)
}

func layoutFromItem(graphID string, item map[string]types.AttributeValue) (collab.LayoutState, error) {
	state := collab.LayoutState{
		GraphID: graphID,
		Toggles: make(map[collab.ToggleKey]bool),
	}
	if mode, ok := item["Mode"].(*types.AttributeValueMemberS); ok {
		state.Mode = collab.LayoutMode(mode.Value)
	}
	if version, ok := item["Version"].(*types.AttributeValueMemberN); ok {
		parsed, err := strconv.ParseInt(version.Value, 10, 64)
		if err != nil {
			return collab.LayoutState{}, fmt.Errorf("parse layout version %s: %w", graphID, err)
		}
		state.Version = parsed
	}
	if toggles, ok := item["Toggles"].(*types.AttributeValueMemberM); ok {
		for key, value := range toggles.Value {
			if b, ok := value.(*types.AttributeValueMemberBOOL); ok {
				state.Toggles[collab.ToggleKey(key)] = b.Value
			}
		}
	}
	if updatedAt, ok := item["UpdatedAt"].(*types.AttributeValueMemberS); ok {
		state.UpdatedAt = updatedAt.Value
	}
	if updatedBy, ok := item["UpdatedBy"].(*types.AttributeValueMemberS); ok {
		state.UpdatedBy = updatedBy.Value
	}
	return state, nil
}
