package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/eco/internal/shard"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoTree.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// treeItem is the stored form of one record. A record at a/b/c lives under
// pk "a/b" (with a shard suffix when sharded) and sk "c".
type treeItem struct {
	PK        string            `dynamodbav:"pk"`
	SK        string            `dynamodbav:"sk"`
	Path      string            `dynamodbav:"path"`
	Value     map[string]string `dynamodbav:"value"`
	UpdatedAt string            `dynamodbav:"updated_at"`
}

// DynamoTree stores a tree in a single DynamoDB table keyed by (pk, sk).
type DynamoTree struct {
	client DynamoAPI
	config DynamoConfig
}

// NewDynamoTree creates a tree over an existing client.
func NewDynamoTree(client DynamoAPI, config DynamoConfig) *DynamoTree {
	config.validate()
	return &DynamoTree{
		client: client,
		config: config,
	}
}

// OpenDynamo loads AWS configuration and connects a DynamoDB-backed tree.
func OpenDynamo(ctx context.Context, cfg DynamoConfig) (*DynamoTree, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewDynamoTree(client, cfg), nil
}

// Client returns the underlying DynamoDB client.
func (d *DynamoTree) Client() DynamoAPI {
	return d.client
}

// Table returns the table name.
func (d *DynamoTree) Table() string {
	return d.config.Table
}

// key computes the primary key of the record at path.
func (d *DynamoTree) key(path Path) map[string]types.AttributeValue {
	parent, key := path.Split()
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: shard.CollectionPK(parent.String(), key, d.config.NumShards)},
		"sk": &types.AttributeValueMemberS{Value: key},
	}
}

// Get retrieves the record at path, returning ErrNotFound if missing.
func (d *DynamoTree) Get(ctx context.Context, path Path) (Fields, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.config.Table),
		Key:            d.key(path),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	item, err := unmarshalTreeItem(result.Item)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return item.fields(), nil
}

// Set writes the record at path.
func (d *DynamoTree) Set(ctx context.Context, path Path, fields Fields) error {
	item, err := d.marshalRecord(path, fields)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.config.Table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

// SetAll creates all records in one transaction. Each put is conditional on
// the record not existing yet.
func (d *DynamoTree) SetAll(ctx context.Context, writes []Write) error {
	items := make([]types.TransactWriteItem, 0, len(writes))
	for _, w := range writes {
		item, err := d.marshalRecord(w.Path, w.Fields)
		if err != nil {
			return fmt.Errorf("set %s: %w", w.Path, err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(d.config.Table),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(sk)"),
			},
		})
	}

	_, err := d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapTransactionError(err)
}

// Children returns every record in a collection.
func (d *DynamoTree) Children(ctx context.Context, collection Path) (map[string]Fields, error) {
	numShards := d.config.NumShards
	if numShards < 1 {
		numShards = 1
	}

	// Fast path for single shard (default)
	if numShards == 1 {
		children := make(map[string]Fields)
		if err := d.queryPartition(ctx, collection.String(), children); err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		return children, nil
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	children := make(map[string]Fields)
	var wg sync.WaitGroup
	errs := make(chan error, numShards)

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			shardChildren := make(map[string]Fields)
			pk := shard.PartitionPK(collection.String(), shardNum, numShards)
			if err := d.queryPartition(ctx, pk, shardChildren); err != nil {
				errs <- fmt.Errorf("shard %02x: %w", shardNum, err)
				return
			}

			mu.Lock()
			for k, v := range shardChildren {
				children[k] = v
			}
			mu.Unlock()
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
	}

	return children, nil
}

func (d *DynamoTree) queryPartition(ctx context.Context, pk string, into map[string]Fields) error {
	paginator := dynamodb.NewQueryPaginator(d.client, &dynamodb.QueryInput{
		TableName:              aws.String(d.config.Table),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, raw := range page.Items {
			item, err := unmarshalTreeItem(raw)
			if err != nil {
				return err
			}
			into[item.SK] = item.fields()
		}
	}
	return nil
}

// Dump scans the whole table into nested maps.
func (d *DynamoTree) Dump(ctx context.Context) (map[string]any, error) {
	root := make(map[string]any)

	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName: aws.String(d.config.Table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", d.config.Table, err)
		}
		for _, raw := range page.Items {
			item, err := unmarshalTreeItem(raw)
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", d.config.Table, err)
			}
			path := item.path()
			if path == "" {
				continue
			}
			nest(root, path, item.fields())
		}
	}

	return root, nil
}

// marshalRecord builds the stored item for a record.
func (d *DynamoTree) marshalRecord(path Path, fields Fields) (map[string]types.AttributeValue, error) {
	parent, key := path.Split()
	value := map[string]string(fields.Clone())

	return attributevalue.MarshalMap(treeItem{
		PK:        shard.CollectionPK(parent.String(), key, d.config.NumShards),
		SK:        key,
		Path:      path.String(),
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func unmarshalTreeItem(raw map[string]types.AttributeValue) (treeItem, error) {
	var item treeItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return treeItem{}, fmt.Errorf("unmarshal item: %w", err)
	}
	return item, nil
}

// path returns the record's tree path, rebuilding it from the key when the
// path attribute is missing.
func (i treeItem) path() Path {
	if i.Path != "" {
		return Path(i.Path)
	}
	if i.PK == "" || i.SK == "" {
		return ""
	}
	return Path(shard.Collection(i.PK)).Child(i.SK)
}

func (i treeItem) fields() Fields {
	if i.Value == nil {
		return Fields{}
	}
	return Fields(i.Value)
}

// mapTransactionError maps a failed conditional put to ErrAlreadyExists.
func mapTransactionError(err error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrAlreadyExists
			}
		}
	}

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrAlreadyExists
	}

	return err
}
