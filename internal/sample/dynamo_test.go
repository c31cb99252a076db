package sample

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/purifier-collector/internal/sensor"
)

type fakeDynamo struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoStore_Write(t *testing.T) {
	fake := &fakeDynamo{}
	s := &DynamoStore{
		client:    fake,
		table:     "purifier-samples",
		retention: 7 * 24 * time.Hour,
		newID:     func() string { return "fixed-id" },
	}

	smp := Sample{
		RecordedAt:      storeNow,
		Serial:          "NK6-EU-MHA0000A",
		Location:        "Bedroom",
		AirQuality:      3,
		Temperature:     20.1,
		Humidity:        45,
		NitrogenDioxide: float(20),
		Qualities:       sensor.Qualities{PM25: 2, PM10: 2, VOC: 3, NO2: 1},
	}
	require.NoError(t, s.Write(context.Background(), smp))
	require.Len(t, fake.inputs, 1)

	in := fake.inputs[0]
	assert.Equal(t, "purifier-samples", aws.ToString(in.TableName))
	assert.Equal(t, "attribute_not_exists(id)", aws.ToString(in.ConditionExpression))

	var got dynamoItem
	require.NoError(t, attributevalue.UnmarshalMap(in.Item, &got))
	assert.Equal(t, "fixed-id", got.ID)
	assert.Equal(t, storeNow.Unix(), got.RecordedAt)
	assert.Equal(t, storeNow.Add(7*24*time.Hour).Unix(), got.ExpiresAt)
	assert.Equal(t, 3, got.VOCQuality)
	require.NotNil(t, got.NitrogenDioxide)
	assert.InDelta(t, 20.0, *got.NitrogenDioxide, 1e-9)
}

func TestDynamoStore_WriteLegacyOmitsAbsentFields(t *testing.T) {
	fake := &fakeDynamo{}
	s := &DynamoStore{client: fake, table: "t", newID: func() string { return "id" }}

	require.NoError(t, s.Write(context.Background(), Sample{
		RecordedAt: storeNow, Serial: "N7K", Location: "Lounge", AirQuality: 1,
		Qualities: sensor.Qualities{Dust: 1, LegacyVOC: 1},
	}))

	item := fake.inputs[0].Item
	assert.NotContains(t, item, "nitrogen_dioxide")
	assert.NotContains(t, item, "no2_quality")
	assert.NotContains(t, item, "expires_at", "zero retention keeps items forever")
	assert.Contains(t, item, "pm25_quality")
}

func TestDynamoStore_WriteFailure(t *testing.T) {
	s := &DynamoStore{client: &fakeDynamo{err: errors.New("throttled")}, table: "t", newID: func() string { return "id" }}
	err := s.Write(context.Background(), Sample{RecordedAt: storeNow, AirQuality: 1})
	assert.ErrorIs(t, err, ErrPersistence)
}
