package sample

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/nerrad567/purifier-collector/internal/infrastructure/config"
)

// dynamoPutter is the subset of *dynamodb.Client the store uses.
type dynamoPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore writes one document per sample.
type DynamoStore struct {
	client    dynamoPutter
	table     string
	retention time.Duration
	newID     func() string
}

// dynamoItem is the stored document.
type dynamoItem struct {
	ID              string   `dynamodbav:"id"`
	Serial          string   `dynamodbav:"serial"`
	RecordedAt      int64    `dynamodbav:"recorded_at"`
	Location        string   `dynamodbav:"location"`
	AirQuality      int      `dynamodbav:"air_quality"`
	Temperature     float64  `dynamodbav:"temperature"`
	Humidity        int      `dynamodbav:"humidity"`
	NitrogenDioxide *float64 `dynamodbav:"nitrogen_dioxide,omitempty"`
	PM25Quality     int      `dynamodbav:"pm25_quality,omitempty"`
	PM10Quality     int      `dynamodbav:"pm10_quality,omitempty"`
	VOCQuality      int      `dynamodbav:"voc_quality,omitempty"`
	NO2Quality      int      `dynamodbav:"no2_quality,omitempty"`

	// ExpiresAt is the table's TTL attribute. Zero means keep forever.
	ExpiresAt int64 `dynamodbav:"expires_at,omitempty"`
}

// NewDynamoClient builds a DynamoDB client from the default AWS credential
// chain, optionally pointed at a local endpoint.
func NewDynamoClient(ctx context.Context, cfg config.DynamoDBConfig) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewDynamoStore returns a store writing to table.
func NewDynamoStore(client *dynamodb.Client, cfg config.DynamoDBConfig) *DynamoStore {
	return &DynamoStore{
		client:    client,
		table:     cfg.Table,
		retention: cfg.Retention,
		newID:     uuid.NewString,
	}
}

// Write puts one new document. The condition rejects overwriting an
// existing item so a success always means exactly one new record.
func (s *DynamoStore) Write(ctx context.Context, smp Sample) error {
	doc := dynamoItem{
		ID:              s.newID(),
		Serial:          smp.Serial,
		RecordedAt:      smp.RecordedAt.Unix(),
		Location:        smp.Location,
		AirQuality:      smp.AirQuality,
		Temperature:     smp.Temperature,
		Humidity:        smp.Humidity,
		NitrogenDioxide: smp.NitrogenDioxide,
		PM25Quality:     smp.particulate(),
		PM10Quality:     smp.Qualities.PM10,
		VOCQuality:      smp.voc(),
		NO2Quality:      smp.Qualities.NO2,
	}
	if s.retention > 0 {
		doc.ExpiresAt = smp.RecordedAt.Add(s.retention).Unix()
	}

	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("%w: marshalling sample: %w", ErrPersistence, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("%w: put item: %w", ErrPersistence, err)
	}
	return nil
}
