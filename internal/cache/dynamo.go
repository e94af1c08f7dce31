package cache

import (
	"context"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamoItem is the table representation of one cache entry. ExpiresAt is
// epoch seconds and doubles as the table's native TTL attribute, so entries
// the gateway never touches again still get reaped server-side.
type dynamoItem struct {
	CacheKey  string `dynamodbav:"cache_key"`
	Data      []byte `dynamodbav:"data"`
	StoredAt  int64  `dynamodbav:"stored_at_ms"`
	TTLMillis int64  `dynamodbav:"ttl_ms"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// DynamoTier is the durable remote tier backed by a DynamoDB table keyed
// by cache_key.
type DynamoTier struct {
	client *dynamodb.Client
	table  string
	now    func() time.Time
}

// NewDynamoTier creates a dynamodb-backed durable tier
func NewDynamoTier(client *dynamodb.Client, table string) *DynamoTier {
	return &DynamoTier{client: client, table: table, now: time.Now}
}

// Get returns the live value for a key, deleting it if expired
func (d *DynamoTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, ok, err := d.GetEntry(ctx, key)
	if !ok || err != nil {
		return nil, false, err
	}
	return entry.Data, true, nil
}

// GetEntry returns the full stored envelope for a live key
func (d *DynamoTier) GetEntry(ctx context.Context, key string) (Entry, bool, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: awssdk.String(d.table),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return Entry{}, false, &CacheError{Tier: d.Name(), Operation: "get", Key: key, Err: err}
	}
	if out.Item == nil {
		return Entry{}, false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		// Corrupt item: treat as a miss and remove it.
		_ = d.Delete(ctx, key)
		return Entry{}, false, nil
	}

	entry := Entry{Data: item.Data, StoredAt: item.StoredAt, TTL: item.TTLMillis}
	if entry.IsExpired(d.now()) {
		// Table TTL reaping lags by up to 48h; delete eagerly.
		_ = d.Delete(ctx, key)
		return Entry{}, false, nil
	}

	return entry, true, nil
}

// Set stores a value, overwriting unconditionally
func (d *DynamoTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := d.now()
	item := dynamoItem{
		CacheKey:  key,
		Data:      append([]byte(nil), value...),
		StoredAt:  now.UnixMilli(),
		TTLMillis: ttl.Milliseconds(),
		ExpiresAt: now.Add(ttl).Unix(),
	}

	attrs, err := attributevalue.MarshalMap(item)
	if err != nil {
		return &CacheError{Tier: d.Name(), Operation: "marshal", Key: key, Err: err}
	}

	if _, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: awssdk.String(d.table),
		Item:      attrs,
	}); err != nil {
		return &CacheError{Tier: d.Name(), Operation: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes a key
func (d *DynamoTier) Delete(ctx context.Context, key string) error {
	if _, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: awssdk.String(d.table),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	}); err != nil {
		return &CacheError{Tier: d.Name(), Operation: "delete", Key: key, Err: err}
	}
	return nil
}

// Exists reports whether a live entry is present
func (d *DynamoTier) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := d.Get(ctx, key)
	return ok, err
}

// Keys returns every live key with the given prefix
func (d *DynamoTier) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	now := d.now()

	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName:            awssdk.String(d.table),
		ProjectionExpression: awssdk.String("cache_key, stored_at_ms, ttl_ms"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &CacheError{Tier: d.Name(), Operation: "scan", Key: prefix, Err: err}
		}
		for _, raw := range page.Items {
			var item dynamoItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				continue
			}
			entry := Entry{StoredAt: item.StoredAt, TTL: item.TTLMillis}
			if strings.HasPrefix(item.CacheKey, prefix) && !entry.IsExpired(now) {
				keys = append(keys, item.CacheKey)
			}
		}
	}
	return keys, nil
}

// HealthCheck round-trips against the table
func (d *DynamoTier) HealthCheck(ctx context.Context) bool {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: awssdk.String(d.table),
	})
	return err == nil
}

// Name identifies the tier
func (d *DynamoTier) Name() string {
	return "dynamodb"
}
