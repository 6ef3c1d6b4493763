package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/Adda-Baaj/prism-news/internal/awsconfig"
	"github.com/Adda-Baaj/prism-news/internal/domain"
	"github.com/Adda-Baaj/prism-news/internal/logger"
)

// DynamoDBConfig holds table and credential settings. Empty credentials fall back to the
// default AWS credential chain.
type DynamoDBConfig struct {
	Table           string `mapstructure:"table"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// dynamoClient defines the minimal subset of the DynamoDB client used by the store.
type dynamoClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBStore writes records to a DynamoDB table whose TTL attribute is "ttl".
type DynamoDBStore struct {
	table  string
	client dynamoClient
	log    logger.Logger
	now    func() time.Time
}

// NewDynamoDBStore loads AWS configuration and builds the store.
func NewDynamoDBStore(ctx context.Context, cfg DynamoDBConfig, log logger.Logger) (*DynamoDBStore, error) {
	awsCfg, err := awsconfig.Load(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
	})

	return newDynamoDBStore(cfg.Table, client, log), nil
}

func newDynamoDBStore(table string, client dynamoClient, log logger.Logger) *DynamoDBStore {
	if strings.TrimSpace(table) == "" {
		table = DefaultTableName
	}
	return &DynamoDBStore{
		table:  table,
		client: client,
		log:    logger.Ensure(log),
		now:    time.Now,
	}
}

// Put writes the record verbatim, ttl attribute included.
func (s *DynamoDBStore) Put(ctx context.Context, rec domain.NewsRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		s.log.ErrorObj("dynamodb put failed", "store_dynamodb_error", map[string]any{
			"table": s.table,
			"id":    rec.ID,
			"error": err.Error(),
		})
		return fmt.Errorf("put item into %s: %w", s.table, err)
	}
	return nil
}

// Scan reads one page of at most limit items. DynamoDB deletes expired items lazily, so items
// past their ttl are filtered out here.
func (s *DynamoDBStore) Scan(ctx context.Context, limit int) ([]domain.NewsRecord, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(int32(ClampLimit(limit))),
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.table, err)
	}

	var items []domain.NewsRecord
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal scan items: %w", err)
	}

	now := nowUnix(s.now)
	recs := make([]domain.NewsRecord, 0, len(items))
	for _, rec := range items {
		if rec.Expired(now) {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *DynamoDBStore) Close() error { return nil }
