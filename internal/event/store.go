// Package event implements the sharded event store over DynamoDB.
package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hotrowlabs/hotrow/internal/dynamo"
	"github.com/hotrowlabs/hotrow/internal/shard"
)

// ErrMalformedItem is returned when a stored item is missing its key
// attributes.
var ErrMalformedItem = errors.New("malformed event item")

// maxBatchSize is DynamoDB's BatchWriteItem ceiling.
const maxBatchSize = 25

// batchRetries bounds the re-submission of unprocessed batch items before
// the remainder is surfaced as a throttle error.
const batchRetries = 3

// Store persists event records in a DynamoDB table. It implements
// shard.Store.
type Store struct {
	client    dynamo.Client
	tableName string
}

// NewStore creates a new Store.
func NewStore(client dynamo.Client, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

// Put stores a single event record.
func (s *Store) Put(ctx context.Context, rec shard.Record) error {
	item, err := marshalRecord(rec)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put event: %w", wrapThrottle(err))
	}
	return nil
}

// BatchPut stores records in chunks of 25, re-submitting unprocessed items.
// Items still unprocessed after the retry budget are reported as a throttle
// so callers can back off and retry the batch.
func (s *Store) BatchPut(ctx context.Context, recs []shard.Record) error {
	for start := 0; start < len(recs); start += maxBatchSize {
		end := min(start+maxBatchSize, len(recs))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, rec := range recs[start:end] {
			item, err := marshalRecord(rec)
			if err != nil {
				return fmt.Errorf("marshal event: %w", err)
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		for attempt := 0; len(requests) > 0; attempt++ {
			output, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.tableName: requests},
			})
			if err != nil {
				return fmt.Errorf("batch put events: %w", wrapThrottle(err))
			}
			requests = output.UnprocessedItems[s.tableName]
			if len(requests) > 0 && attempt+1 >= batchRetries {
				return fmt.Errorf("batch put events: %w: %d unprocessed items", shard.ErrThrottled, len(requests))
			}
		}
	}
	return nil
}

// QueryRange returns records for one partition key in sort key order, up to
// limit records.
func (s *Store) QueryRange(ctx context.Context, partitionKey string, descending bool, limit int32) ([]shard.Record, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String(dynamo.AttrPK + " = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partitionKey},
		},
		ScanIndexForward: aws.Bool(!descending),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	output, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", wrapThrottle(err))
	}

	recs := make([]shard.Record, 0, len(output.Items))
	for _, item := range output.Items {
		rec, err := unmarshalRecord(item)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// marshalRecord converts a record to DynamoDB attribute values.
func marshalRecord(rec shard.Record) (map[string]types.AttributeValue, error) {
	item := map[string]types.AttributeValue{
		dynamo.AttrPK:   &types.AttributeValueMemberS{Value: rec.PartitionKey},
		dynamo.AttrSK:   &types.AttributeValueMemberS{Value: rec.SortKey},
		dynamo.AttrType: &types.AttributeValueMemberS{Value: TypeEvent},
	}
	if rec.Payload != nil {
		payload, err := attributevalue.Marshal(rec.Payload)
		if err != nil {
			return nil, err
		}
		item[AttrPayload] = payload
	}
	return item, nil
}

// unmarshalRecord converts DynamoDB attribute values back to a record.
func unmarshalRecord(item map[string]types.AttributeValue) (shard.Record, error) {
	pk, ok := item[dynamo.AttrPK].(*types.AttributeValueMemberS)
	if !ok {
		return shard.Record{}, fmt.Errorf("%w: missing %s", ErrMalformedItem, dynamo.AttrPK)
	}
	sk, ok := item[dynamo.AttrSK].(*types.AttributeValueMemberS)
	if !ok {
		return shard.Record{}, fmt.Errorf("%w: missing %s", ErrMalformedItem, dynamo.AttrSK)
	}

	rec := shard.Record{PartitionKey: pk.Value, SortKey: sk.Value}
	if raw, ok := item[AttrPayload]; ok {
		if err := attributevalue.Unmarshal(raw, &rec.Payload); err != nil {
			return shard.Record{}, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	return rec, nil
}

// wrapThrottle marks capacity errors so the router retries them.
func wrapThrottle(err error) error {
	if dynamo.IsThrottle(err) {
		return fmt.Errorf("%w: %v", shard.ErrThrottled, err)
	}
	return err
}
