package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hotrowlabs/hotrow/internal/dynamo"
)

// Repository handles user and order storage operations.
type Repository struct {
	client    dynamo.Client
	tableName string
}

// NewRepository creates a new Repository.
func NewRepository(client dynamo.Client, tableName string) *Repository {
	return &Repository{
		client:    client,
		tableName: tableName,
	}
}

// PutUser stores a user profile item.
func (r *Repository) PutUser(ctx context.Context, user *UserItem) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      marshalUserItem(user),
	})
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// PutOrder stores an order item with its sparse status index attributes.
func (r *Repository) PutOrder(ctx context.Context, order *OrderItem) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      marshalOrderItem(order),
	})
	if err != nil {
		return fmt.Errorf("put order: %w", err)
	}
	return nil
}

// Seed batch-writes a user profile and its orders in one request.
func (r *Repository) Seed(ctx context.Context, user *UserItem, orders []*OrderItem) error {
	requests := make([]types.WriteRequest, 0, 1+len(orders))
	requests = append(requests, types.WriteRequest{
		PutRequest: &types.PutRequest{Item: marshalUserItem(user)},
	})
	for _, order := range orders {
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: marshalOrderItem(order)},
		})
	}

	output, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{r.tableName: requests},
	})
	if err != nil {
		return fmt.Errorf("seed user partition: %w", err)
	}
	if unprocessed := output.UnprocessedItems[r.tableName]; len(unprocessed) > 0 {
		return fmt.Errorf("seed user partition: %d unprocessed items", len(unprocessed))
	}
	return nil
}

// GetUserPartition queries one user's partition: the profile and every
// order come back from a single request.
func (r *Repository) GetUserPartition(ctx context.Context, userID string) (*Partition, error) {
	output, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String(dynamo.AttrPK + " = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: dynamo.PrefixUser + userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query user partition: %w", err)
	}

	partition := &Partition{}
	for _, item := range output.Items {
		switch itemType(item) {
		case TypeUser:
			partition.User = unmarshalUserItem(item)
		case TypeOrder:
			if order := unmarshalOrderItem(item); order != nil {
				partition.Orders = append(partition.Orders, order)
			}
		}
	}
	return partition, nil
}

// QueryByStatus returns orders with the given status via the sparse status
// GSI, most recent first.
func (r *Repository) QueryByStatus(ctx context.Context, status string) ([]*OrderItem, error) {
	output, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(dynamo.IndexStatus),
		KeyConditionExpression: aws.String(dynamo.AttrGSI1PK + " = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: PrefixStatus + status},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query status index: %w", err)
	}

	orders := make([]*OrderItem, 0, len(output.Items))
	for _, item := range output.Items {
		if order := unmarshalOrderItem(item); order != nil {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// ScanSample returns up to limit arbitrary items. A table scan is the
// anti-pattern the partition query replaces; it exists only so the demo can
// contrast the two.
func (r *Repository) ScanSample(ctx context.Context, limit int32) ([]map[string]types.AttributeValue, error) {
	output, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("scan sample: %w", err)
	}
	return output.Items, nil
}

// marshalUserItem converts a UserItem to DynamoDB attribute values.
func marshalUserItem(user *UserItem) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamo.AttrPK:   &types.AttributeValueMemberS{Value: user.PK()},
		dynamo.AttrSK:   &types.AttributeValueMemberS{Value: user.SK()},
		dynamo.AttrType: &types.AttributeValueMemberS{Value: TypeUser},
		AttrName:        &types.AttributeValueMemberS{Value: user.Name},
		AttrEmail:       &types.AttributeValueMemberS{Value: user.Email},
	}
}

// marshalOrderItem converts an OrderItem to DynamoDB attribute values,
// including the sparse status index keys.
func marshalOrderItem(order *OrderItem) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamo.AttrPK:     &types.AttributeValueMemberS{Value: order.PK()},
		dynamo.AttrSK:     &types.AttributeValueMemberS{Value: order.SK()},
		dynamo.AttrType:   &types.AttributeValueMemberS{Value: TypeOrder},
		AttrStatus:        &types.AttributeValueMemberS{Value: order.Status},
		dynamo.AttrGSI1PK: &types.AttributeValueMemberS{Value: order.GSI1PK()},
		dynamo.AttrGSI1SK: &types.AttributeValueMemberS{Value: order.GSI1SK()},
	}
}

func unmarshalUserItem(item map[string]types.AttributeValue) *UserItem {
	user := &UserItem{}
	if pk, ok := item[dynamo.AttrPK].(*types.AttributeValueMemberS); ok {
		user.UserID = strings.TrimPrefix(pk.Value, dynamo.PrefixUser)
	}
	if name, ok := item[AttrName].(*types.AttributeValueMemberS); ok {
		user.Name = name.Value
	}
	if email, ok := item[AttrEmail].(*types.AttributeValueMemberS); ok {
		user.Email = email.Value
	}
	return user
}

func unmarshalOrderItem(item map[string]types.AttributeValue) *OrderItem {
	sk, ok := item[dynamo.AttrSK].(*types.AttributeValueMemberS)
	if !ok {
		return nil
	}
	// ORDER#{yyyymmdd}#{orderId}
	parts := strings.SplitN(strings.TrimPrefix(sk.Value, PrefixOrder), "#", 2)
	if len(parts) != 2 {
		return nil
	}

	order := &OrderItem{Date: parts[0], OrderID: parts[1]}
	if pk, ok := item[dynamo.AttrPK].(*types.AttributeValueMemberS); ok {
		order.UserID = strings.TrimPrefix(pk.Value, dynamo.PrefixUser)
	}
	if status, ok := item[AttrStatus].(*types.AttributeValueMemberS); ok {
		order.Status = status.Value
	}
	return order
}

func itemType(item map[string]types.AttributeValue) string {
	if t, ok := item[dynamo.AttrType].(*types.AttributeValueMemberS); ok {
		return t.Value
	}
	return ""
}
