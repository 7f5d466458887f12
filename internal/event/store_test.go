package event

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hotrowlabs/hotrow/internal/shard"
)

// mockDynamoDBClient is a test double for DynamoDB operations.
type mockDynamoDBClient struct {
	getItemFunc        func(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	putItemFunc        func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	queryFunc          func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	scanFunc           func(ctx context.Context, input *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	batchWriteItemFunc func(ctx context.Context, input *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

func (m *mockDynamoDBClient) GetItem(ctx context.Context, input *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getItemFunc != nil {
		return m.getItemFunc(ctx, input, opts...)
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDynamoDBClient) PutItem(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putItemFunc != nil {
		return m.putItemFunc(ctx, input, opts...)
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamoDBClient) Query(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, input, opts...)
	}
	return &dynamodb.QueryOutput{}, nil
}

func (m *mockDynamoDBClient) Scan(ctx context.Context, input *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if m.scanFunc != nil {
		return m.scanFunc(ctx, input, opts...)
	}
	return &dynamodb.ScanOutput{}, nil
}

func (m *mockDynamoDBClient) BatchWriteItem(ctx context.Context, input *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if m.batchWriteItemFunc != nil {
		return m.batchWriteItemFunc(ctx, input, opts...)
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func TestSortKey(t *testing.T) {
	if got := SortKey(0, 0); got != "EVENT#0000000000#000000" {
		t.Errorf("SortKey(0, 0) = %q", got)
	}
	if got := SortKey(119, 119); got != "EVENT#0000000119#000119" {
		t.Errorf("SortKey(119, 119) = %q", got)
	}
	// Zero padding keeps lexicographic order numeric.
	if SortKey(2, 0) >= SortKey(10, 0) {
		t.Error("SortKey(2) should sort before SortKey(10)")
	}
}

func TestUniqueSortKey(t *testing.T) {
	now := time.Date(2025, 9, 28, 12, 0, 0, 0, time.UTC)
	key := UniqueSortKey(now)
	if !strings.HasPrefix(key, "EVENT#") {
		t.Fatalf("UniqueSortKey = %q, want EVENT# prefix", key)
	}
	if key == UniqueSortKey(now) {
		t.Error("two keys for the same instant should differ")
	}
}

func TestStore_Put(t *testing.T) {
	ctx := context.Background()
	mock := &mockDynamoDBClient{
		putItemFunc: func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			if aws.ToString(input.TableName) != "ws-att-42" {
				t.Errorf("unexpected table %q", aws.ToString(input.TableName))
			}
			if pk, ok := input.Item["PK"].(*types.AttributeValueMemberS); !ok || pk.Value != "USER#hotuser#S1" {
				t.Errorf("unexpected PK: %v", input.Item["PK"])
			}
			if sk, ok := input.Item["SK"].(*types.AttributeValueMemberS); !ok || sk.Value != "EVENT#0000000007#000007" {
				t.Errorf("unexpected SK: %v", input.Item["SK"])
			}
			if it, ok := input.Item["type"].(*types.AttributeValueMemberS); !ok || it.Value != "EVENT" {
				t.Errorf("unexpected type attribute: %v", input.Item["type"])
			}
			payload, ok := input.Item["payload"].(*types.AttributeValueMemberM)
			if !ok {
				t.Fatalf("payload not marshaled as map: %v", input.Item["payload"])
			}
			if s, ok := payload.Value["shard"].(*types.AttributeValueMemberS); !ok || s.Value != "S1" {
				t.Errorf("unexpected payload shard: %v", payload.Value["shard"])
			}
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	store := NewStore(mock, "ws-att-42")
	err := store.Put(ctx, shard.Record{
		PartitionKey: "USER#hotuser#S1",
		SortKey:      "EVENT#0000000007#000007",
		Payload:      map[string]any{"shard": "S1"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestStore_Put_WrapsThrottle(t *testing.T) {
	mock := &mockDynamoDBClient{
		putItemFunc: func(ctx context.Context, input *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			return nil, &types.ProvisionedThroughputExceededException{Message: aws.String("rate exceeded")}
		},
	}

	store := NewStore(mock, "ws-att-42")
	err := store.Put(context.Background(), shard.Record{PartitionKey: "USER#u1#S0", SortKey: "EVENT#0000000001#000001"})
	if !errors.Is(err, shard.ErrThrottled) {
		t.Errorf("Put error = %v, want shard.ErrThrottled", err)
	}
}

func TestStore_BatchPut_ChunksAt25(t *testing.T) {
	var sizes []int
	mock := &mockDynamoDBClient{
		batchWriteItemFunc: func(ctx context.Context, input *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
			sizes = append(sizes, len(input.RequestItems["ws-att-42"]))
			return &dynamodb.BatchWriteItemOutput{}, nil
		},
	}

	store := NewStore(mock, "ws-att-42")
	recs := make([]shard.Record, 60)
	for i := range recs {
		recs[i] = shard.Record{PartitionKey: "USER#u1#S0", SortKey: SortKey(int64(i), i)}
	}
	if err := store.BatchPut(context.Background(), recs); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}

	want := []int{25, 25, 10}
	if len(sizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("batch %d size = %d, want %d", i, sizes[i], want[i])
		}
	}
}

func TestStore_BatchPut_RetriesUnprocessed(t *testing.T) {
	calls := 0
	mock := &mockDynamoDBClient{
		batchWriteItemFunc: func(ctx context.Context, input *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
			calls++
			if calls == 1 {
				// First call leaves the last two items unprocessed.
				reqs := input.RequestItems["ws-att-42"]
				return &dynamodb.BatchWriteItemOutput{
					UnprocessedItems: map[string][]types.WriteRequest{"ws-att-42": reqs[len(reqs)-2:]},
				}, nil
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		},
	}

	store := NewStore(mock, "ws-att-42")
	recs := make([]shard.Record, 10)
	for i := range recs {
		recs[i] = shard.Record{PartitionKey: "USER#u1#S0", SortKey: SortKey(int64(i), i)}
	}
	if err := store.BatchPut(context.Background(), recs); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}
	if calls != 2 {
		t.Errorf("BatchWriteItem calls = %d, want 2", calls)
	}
}

func TestStore_BatchPut_ExhaustedUnprocessedIsThrottle(t *testing.T) {
	mock := &mockDynamoDBClient{
		batchWriteItemFunc: func(ctx context.Context, input *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
			return &dynamodb.BatchWriteItemOutput{
				UnprocessedItems: map[string][]types.WriteRequest{"ws-att-42": input.RequestItems["ws-att-42"]},
			}, nil
		},
	}

	store := NewStore(mock, "ws-att-42")
	err := store.BatchPut(context.Background(), []shard.Record{
		{PartitionKey: "USER#u1#S0", SortKey: SortKey(1, 1)},
	})
	if !errors.Is(err, shard.ErrThrottled) {
		t.Errorf("BatchPut error = %v, want shard.ErrThrottled", err)
	}
}

func TestStore_QueryRange(t *testing.T) {
	mock := &mockDynamoDBClient{
		queryFunc: func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			if pk, ok := input.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS); !ok || pk.Value != "USER#hotuser#S3" {
				t.Errorf("unexpected :pk: %v", input.ExpressionAttributeValues[":pk"])
			}
			if aws.ToBool(input.ScanIndexForward) {
				t.Error("descending query should set ScanIndexForward false")
			}
			if aws.ToInt32(input.Limit) != 50 {
				t.Errorf("limit = %d, want 50", aws.ToInt32(input.Limit))
			}
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{
					{
						"PK":      &types.AttributeValueMemberS{Value: "USER#hotuser#S3"},
						"SK":      &types.AttributeValueMemberS{Value: "EVENT#0000000119#000119"},
						"type":    &types.AttributeValueMemberS{Value: "EVENT"},
						"payload": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"n": &types.AttributeValueMemberN{Value: "119"}}},
					},
					{
						"PK": &types.AttributeValueMemberS{Value: "USER#hotuser#S3"},
						"SK": &types.AttributeValueMemberS{Value: "EVENT#0000000042#000042"},
					},
				},
			}, nil
		},
	}

	store := NewStore(mock, "ws-att-42")
	recs, err := store.QueryRange(context.Background(), "USER#hotuser#S3", true, 50)
	if err != nil {
		t.Fatalf("QueryRange: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].SortKey != "EVENT#0000000119#000119" {
		t.Errorf("first sort key = %q", recs[0].SortKey)
	}
	if recs[0].Payload == nil {
		t.Fatal("expected payload on first record")
	}
	if recs[1].Payload != nil {
		t.Error("second record should have no payload")
	}
}

func TestStore_QueryRange_MalformedItem(t *testing.T) {
	mock := &mockDynamoDBClient{
		queryFunc: func(ctx context.Context, input *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{
					{"PK": &types.AttributeValueMemberS{Value: "USER#u1#S0"}},
				},
			}, nil
		},
	}

	store := NewStore(mock, "ws-att-42")
	_, err := store.QueryRange(context.Background(), "USER#u1#S0", true, 0)
	if !errors.Is(err, ErrMalformedItem) {
		t.Errorf("QueryRange error = %v, want ErrMalformedItem", err)
	}
}
