// Package dynamodb is the backend's production SyncStore. Documents and
// clips share one single-table design: documents live under
// PK=SYNC#<syncId>, clips under the shared CLIP partition keyed by their
// ULID sort key.
package dynamodb

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"secondbrain-backend/domain/memory"
	pkgerrors "secondbrain-backend/pkg/errors"
)

const (
	docSortKey    = "DOC"
	clipPartition = "CLIP"
	syncPrefix    = "SYNC#"
)

// SyncStore implements ports.SyncStore on a single DynamoDB table
type SyncStore struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSyncStore creates a DynamoDB-backed store
func NewSyncStore(client *dynamodb.Client, tableName string, logger *zap.Logger) *SyncStore {
	return &SyncStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// documentItem represents the DynamoDB item structure for a sync document
type documentItem struct {
	PK       string `dynamodbav:"PK"`
	SK       string `dynamodbav:"SK"`
	Document string `dynamodbav:"Document"`
}

// clipItem represents the DynamoDB item structure for a shared clip
type clipItem struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	Data string `dynamodbav:"Data"`
}

// GetDocument returns the stored document, or an empty one for absent keys
func (s *SyncStore) GetDocument(ctx context.Context, syncID string) (memory.SyncDocument, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: syncPrefix + syncID},
			"SK": &types.AttributeValueMemberS{Value: docSortKey},
		},
	})
	if err != nil {
		return memory.SyncDocument{}, pkgerrors.NewDatabaseError("failed to read document").WithCause(err)
	}
	if out.Item == nil {
		return memory.EmptyDocument(), nil
	}

	var item documentItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return memory.SyncDocument{}, pkgerrors.NewDatabaseError("failed to unmarshal document item").WithCause(err)
	}

	var doc memory.SyncDocument
	if err := json.Unmarshal([]byte(item.Document), &doc); err != nil {
		s.logger.Warn("stored document is corrupt, serving empty",
			zap.String("syncId", syncID),
			zap.Error(err),
		)
		return memory.EmptyDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

// PutDocument replaces the stored document
func (s *SyncStore) PutDocument(ctx context.Context, syncID string, doc memory.SyncDocument) error {
	doc.Normalize()
	raw, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.NewInternalError("failed to serialize document").WithCause(err)
	}

	item, err := attributevalue.MarshalMap(documentItem{
		PK:       syncPrefix + syncID,
		SK:       docSortKey,
		Document: string(raw),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to marshal document item").WithCause(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to write document").WithCause(err)
	}
	return nil
}

// ListClips returns all pending clips. The ULID sort key gives key order,
// which is creation order.
func (s *SyncStore) ListClips(ctx context.Context) ([]memory.SharedClip, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: clipPartition},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("failed to list clips").WithCause(err)
	}

	clips := []memory.SharedClip{}
	for _, raw := range out.Items {
		var item clipItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			s.logger.Warn("skipping unreadable clip item", zap.Error(err))
			continue
		}
		var data memory.ClipData
		if err := json.Unmarshal([]byte(item.Data), &data); err != nil {
			s.logger.Warn("skipping corrupt clip", zap.String("key", item.SK), zap.Error(err))
			continue
		}
		clips = append(clips, memory.SharedClip{Key: item.SK, Data: data})
	}
	return clips, nil
}

// AppendClip stores a clip under a fresh key
func (s *SyncStore) AppendClip(ctx context.Context, data memory.ClipData) (memory.SharedClip, error) {
	clip := memory.SharedClip{Key: memory.NewClipKey(), Data: data}
	raw, err := json.Marshal(clip.Data)
	if err != nil {
		return memory.SharedClip{}, pkgerrors.NewInternalError("failed to serialize clip").WithCause(err)
	}

	item, err := attributevalue.MarshalMap(clipItem{
		PK:   clipPartition,
		SK:   clip.Key,
		Data: string(raw),
	})
	if err != nil {
		return memory.SharedClip{}, pkgerrors.NewDatabaseError("failed to marshal clip item").WithCause(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return memory.SharedClip{}, pkgerrors.NewDatabaseError("failed to append clip").WithCause(err)
	}
	return clip, nil
}

// DeleteClip removes a clip; absent keys are ignored
func (s *SyncStore) DeleteClip(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: clipPartition},
			"SK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("failed to delete clip").WithCause(err)
	}
	return nil
}

// Close is a no-op; the AWS SDK client has no close semantics
func (s *SyncStore) Close() error {
	return nil
}
