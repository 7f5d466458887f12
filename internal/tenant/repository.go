package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hotrowlabs/hotrow/internal/dynamo"
	"github.com/hotrowlabs/hotrow/internal/order"
)

// Repository handles tenant-scoped storage operations on the shared table.
type Repository struct {
	client    dynamo.Client
	tableName string
	ns        Namespace
}

// NewRepository creates a Repository scoped to one tenant.
func NewRepository(client dynamo.Client, tableName, tenantID string) *Repository {
	return &Repository{
		client:    client,
		tableName: tableName,
		ns:        Namespace{TenantID: tenantID},
	}
}

// Namespace returns the key builder for this repository's tenant.
func (r *Repository) Namespace() Namespace {
	return r.ns
}

// SeedNamespace batch-writes a user profile and orders under the tenant's
// namespace. Orders carry both the tenant-scoped and the global status index
// attributes.
func (r *Repository) SeedNamespace(ctx context.Context, user *order.UserItem, orders []*order.OrderItem) error {
	requests := make([]types.WriteRequest, 0, 1+len(orders))
	requests = append(requests, types.WriteRequest{
		PutRequest: &types.PutRequest{Item: r.marshalUserItem(user)},
	})
	for _, o := range orders {
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: r.marshalOrderItem(o)},
		})
	}

	output, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{r.tableName: requests},
	})
	if err != nil {
		return fmt.Errorf("seed tenant namespace: %w", err)
	}
	if unprocessed := output.UnprocessedItems[r.tableName]; len(unprocessed) > 0 {
		return fmt.Errorf("seed tenant namespace: %d unprocessed items", len(unprocessed))
	}
	return nil
}

// GetUserPartition queries one tenant user's partition.
func (r *Repository) GetUserPartition(ctx context.Context, userID string) ([]map[string]types.AttributeValue, error) {
	output, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String(dynamo.AttrPK + " = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: r.ns.UserPK(userID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query tenant user partition: %w", err)
	}
	return output.Items, nil
}

// QueryStatusScoped returns this tenant's orders with the given status via
// the tenant-scoped status index.
func (r *Repository) QueryStatusScoped(ctx context.Context, status string) ([]*order.OrderItem, error) {
	return r.queryStatusIndex(ctx, dynamo.IndexTenantStatus, dynamo.AttrGSI1PK, r.ns.StatusPK(status))
}

// QueryStatusGlobal returns orders with the given status across every
// tenant via the global status index. With tenant-scoped ABAC in place this
// query is expected to be denied for attendee credentials.
func (r *Repository) QueryStatusGlobal(ctx context.Context, status string) ([]*order.OrderItem, error) {
	return r.queryStatusIndex(ctx, dynamo.IndexGlobalStatus, dynamo.AttrGSI2PK, GlobalStatusPK(status))
}

func (r *Repository) queryStatusIndex(ctx context.Context, index, keyAttr, pk string) ([]*order.OrderItem, error) {
	output, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String(keyAttr + " = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", index, err)
	}

	orders := make([]*order.OrderItem, 0, len(output.Items))
	for _, item := range output.Items {
		if o := r.unmarshalOrderItem(item); o != nil {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// ProbeCrossTenant attempts to read another tenant's user profile. It
// returns true when the store denied the request, which is the expected
// outcome under a working leading-key ABAC policy. A successful read means
// tenant isolation is broken; that is reported as denied=false with no
// error so the caller can flag it.
func (r *Repository) ProbeCrossTenant(ctx context.Context, otherTenantID, userID string) (bool, error) {
	other := Namespace{TenantID: otherTenantID}
	_, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			dynamo.AttrPK: &types.AttributeValueMemberS{Value: other.UserPK(userID)},
			dynamo.AttrSK: &types.AttributeValueMemberS{Value: order.PrefixProfile + userID},
		},
	})
	if err != nil {
		if dynamo.IsAccessDenied(err) {
			return true, nil
		}
		return false, fmt.Errorf("cross-tenant probe: %w", err)
	}
	return false, nil
}

func (r *Repository) marshalUserItem(user *order.UserItem) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamo.AttrPK:   &types.AttributeValueMemberS{Value: r.ns.UserPK(user.UserID)},
		dynamo.AttrSK:   &types.AttributeValueMemberS{Value: user.SK()},
		dynamo.AttrType: &types.AttributeValueMemberS{Value: order.TypeUser},
		order.AttrName:  &types.AttributeValueMemberS{Value: user.Name},
		order.AttrEmail: &types.AttributeValueMemberS{Value: user.Email},
	}
}

func (r *Repository) marshalOrderItem(o *order.OrderItem) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamo.AttrPK:     &types.AttributeValueMemberS{Value: r.ns.UserPK(o.UserID)},
		dynamo.AttrSK:     &types.AttributeValueMemberS{Value: o.SK()},
		dynamo.AttrType:   &types.AttributeValueMemberS{Value: order.TypeOrder},
		order.AttrStatus:  &types.AttributeValueMemberS{Value: o.Status},
		dynamo.AttrGSI1PK: &types.AttributeValueMemberS{Value: r.ns.StatusPK(o.Status)},
		dynamo.AttrGSI1SK: &types.AttributeValueMemberS{Value: o.GSI1SK()},
		dynamo.AttrGSI2PK: &types.AttributeValueMemberS{Value: GlobalStatusPK(o.Status)},
		dynamo.AttrGSI2SK: &types.AttributeValueMemberS{Value: o.GSI1SK()},
	}
}

func (r *Repository) unmarshalOrderItem(item map[string]types.AttributeValue) *order.OrderItem {
	sk, ok := item[dynamo.AttrSK].(*types.AttributeValueMemberS)
	if !ok {
		return nil
	}
	parts := strings.SplitN(strings.TrimPrefix(sk.Value, order.PrefixOrder), "#", 2)
	if len(parts) != 2 {
		return nil
	}

	o := &order.OrderItem{Date: parts[0], OrderID: parts[1]}
	if pk, ok := item[dynamo.AttrPK].(*types.AttributeValueMemberS); ok {
		// TENANT#{tenantId}#USER#{userId}
		if idx := strings.Index(pk.Value, "#"+dynamo.PrefixUser); idx >= 0 {
			o.UserID = pk.Value[idx+1+len(dynamo.PrefixUser):]
		}
	}
	if status, ok := item[order.AttrStatus].(*types.AttributeValueMemberS); ok {
		o.Status = status.Value
	}
	return o
}
