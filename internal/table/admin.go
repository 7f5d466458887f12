// Package table provides control-plane helpers for the workshop tables:
// creating a table and adding a global secondary index in-band, then
// waiting for it to come online.
package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hotrowlabs/hotrow/internal/dynamo"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// ErrIndexNotActive is returned when a created index does not reach ACTIVE
// within the wait budget.
var ErrIndexNotActive = errors.New("index did not become active")

// pollInterval is how often index status is re-checked after an
// UpdateTable. Index creation takes tens of seconds at best, so there is no
// point polling faster. Variable so tests can shrink it.
var pollInterval = 3 * time.Second

// defaultIndexThroughput is applied to new indexes on provisioned tables,
// matching the workshop tables' 5/5 capacity.
const defaultIndexThroughput = 5

// AdminClient defines the control-plane DynamoDB operations. *dynamodb.Client
// satisfies it.
type AdminClient interface {
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, input *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	UpdateTable(ctx context.Context, input *dynamodb.UpdateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateTableOutput, error)
}

// Admin performs table administration.
type Admin struct {
	client    AdminClient
	tableName string
}

// NewAdmin creates a new Admin for one table.
func NewAdmin(client AdminClient, tableName string) *Admin {
	return &Admin{
		client:    client,
		tableName: tableName,
	}
}

// Describe returns the current table description.
func (a *Admin) Describe(ctx context.Context) (*types.TableDescription, error) {
	output, err := a.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(a.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("describe table: %w", err)
	}
	return output.Table, nil
}

// EnsureTable creates the table with the standard PK/SK string schema if it
// does not exist, and waits for it to become active.
func (a *Admin) EnsureTable(ctx context.Context) error {
	_, err := a.Describe(ctx)
	if err == nil {
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return err
	}

	_, err = a.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(a.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(dynamo.AttrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(dynamo.AttrSK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(dynamo.AttrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(dynamo.AttrSK), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	logger.InfoContext(ctx, "Created table, waiting for it to become active",
		slog.String("table", a.tableName),
	)
	waiter := dynamodb.NewTableExistsWaiter(a.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(a.tableName),
	}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table: %w", err)
	}
	return nil
}

// EnsureGSI creates a global secondary index with the given string hash and
// range attributes if the table does not already have it, then polls until
// the index reports ACTIVE. On provisioned tables the index gets the
// workshop's 5/5 capacity; on on-demand tables no throughput is set.
func (a *Admin) EnsureGSI(ctx context.Context, indexName, hashAttr, rangeAttr string) error {
	table, err := a.Describe(ctx)
	if err != nil {
		return err
	}

	for _, idx := range table.GlobalSecondaryIndexes {
		if aws.ToString(idx.IndexName) == indexName {
			if idx.IndexStatus == types.IndexStatusActive {
				return nil
			}
			return a.waitForIndex(ctx, indexName)
		}
	}

	create := &types.CreateGlobalSecondaryIndexAction{
		IndexName: aws.String(indexName),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(hashAttr), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(rangeAttr), KeyType: types.KeyTypeRange},
		},
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
	if onProvisioned(table) {
		create.ProvisionedThroughput = &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(defaultIndexThroughput),
			WriteCapacityUnits: aws.Int64(defaultIndexThroughput),
		}
	}

	_, err = a.client.UpdateTable(ctx, &dynamodb.UpdateTableInput{
		TableName: aws.String(a.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(hashAttr), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(rangeAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexUpdates: []types.GlobalSecondaryIndexUpdate{
			{Create: create},
		},
	})
	if err != nil {
		return fmt.Errorf("create index %s: %w", indexName, err)
	}

	logger.InfoContext(ctx, "Created index, waiting for it to become active",
		slog.String("table", a.tableName),
		slog.String("index", indexName),
	)
	return a.waitForIndex(ctx, indexName)
}

// waitForIndex polls the table description until the index is ACTIVE or the
// context expires.
func (a *Admin) waitForIndex(ctx context.Context, indexName string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrIndexNotActive, indexName, ctx.Err())
		case <-ticker.C:
		}

		table, err := a.Describe(ctx)
		if err != nil {
			return err
		}
		for _, idx := range table.GlobalSecondaryIndexes {
			if aws.ToString(idx.IndexName) == indexName && idx.IndexStatus == types.IndexStatusActive {
				return nil
			}
		}
	}
}

func onProvisioned(table *types.TableDescription) bool {
	if table.BillingModeSummary == nil {
		// Tables created before on-demand existed report no billing mode
		// summary; they are provisioned.
		return true
	}
	return table.BillingModeSummary.BillingMode == types.BillingModeProvisioned
}
