package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/prism-news/internal/domain"
)

var storeNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func record(id string, ttl int64) domain.NewsRecord {
	return domain.NewsRecord{
		ID:        id,
		Timestamp: "2024-05-01T10:00:00.000Z",
		Title:     "title " + id,
		Source:    "Unknown",
		TTL:       ttl,
	}
}

type fakeDynamo struct {
	puts    []*dynamodb.PutItemInput
	scans   []*dynamodb.ScanInput
	items   []map[string]types.AttributeValue
	failPut error
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	f.puts = append(f.puts, in)
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, in)
	return &dynamodb.ScanOutput{Items: f.items}, nil
}

func TestDynamoDBStore_PutWritesRecordVerbatim(t *testing.T) {
	fake := &fakeDynamo{}
	s := newDynamoDBStore("", fake, nil)

	rec := record("a", storeNow.Unix()+604800)
	require.NoError(t, s.Put(context.Background(), rec))

	require.Len(t, fake.puts, 1)
	assert.Equal(t, DefaultTableName, aws.ToString(fake.puts[0].TableName))

	ttl, ok := fake.puts[0].Item["ttl"].(*types.AttributeValueMemberN)
	require.True(t, ok, "ttl must be a number attribute")
	assert.Equal(t, "1715162400", ttl.Value)

	var back domain.NewsRecord
	require.NoError(t, attributevalue.UnmarshalMap(fake.puts[0].Item, &back))
	assert.Equal(t, rec, back)
}

func TestDynamoDBStore_PutFailure(t *testing.T) {
	boom := errors.New("throttled")
	s := newDynamoDBStore("news", &fakeDynamo{failPut: boom}, nil)

	err := s.Put(context.Background(), record("a", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestDynamoDBStore_ScanFiltersExpiredAndClampsLimit(t *testing.T) {
	fake := &fakeDynamo{}
	s := newDynamoDBStore("news", fake, nil)
	s.now = func() time.Time { return storeNow }

	require.NoError(t, s.Put(context.Background(), record("fresh", storeNow.Unix()+10)))
	require.NoError(t, s.Put(context.Background(), record("stale", storeNow.Unix()-10)))

	recs, err := s.Scan(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "fresh", recs[0].ID)
	assert.Equal(t, int32(DefaultScanLimit), aws.ToInt32(fake.scans[0].Limit))

	_, err = s.Scan(context.Background(), 10_000)
	require.NoError(t, err)
	assert.Equal(t, int32(MaxScanLimit), aws.ToInt32(fake.scans[1].Limit))
}

func openBolt(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(BoltConfig{Path: filepath.Join(t.TempDir(), "data", "news.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.now = func() time.Time { return storeNow }
	return s
}

func TestBoltStore_PutAndScan(t *testing.T) {
	s := openBolt(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, s.Put(ctx, record(id, storeNow.Unix()+100)))
	}

	recs, err := s.Scan(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "b", recs[1].ID)
}

func TestBoltStore_ExpiryAndPurge(t *testing.T) {
	s := openBolt(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, record("old", storeNow.Unix())))
	require.NoError(t, s.Put(ctx, record("new", storeNow.Unix()+1)))

	recs, err := s.Scan(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].ID)

	removed, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestBoltStore_RejectsEmptyID(t *testing.T) {
	s := openBolt(t)
	assert.Error(t, s.Put(context.Background(), record("", 1)))
}

func TestNewBoltStore_EmptyPath(t *testing.T) {
	_, err := NewBoltStore(BoltConfig{}, nil)
	assert.Error(t, err)
}

func TestMemoryStore_InsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	s.now = func() time.Time { return storeNow }
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, record("z", storeNow.Unix()+5)))
	require.NoError(t, s.Put(ctx, record("gone", storeNow.Unix()-5)))
	require.NoError(t, s.Put(ctx, record("a", storeNow.Unix()+5)))

	recs, err := s.Scan(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "z", recs[0].ID)
	assert.Equal(t, "a", recs[1].ID)
	assert.Equal(t, 3, s.Len())
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, Config{Backend: "BOLT", Bolt: BoltConfig{Path: filepath.Join(t.TempDir(), "n.db")}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, Config{Backend: "redis"}, nil)
	assert.Error(t, err)
}

func TestNew_FailureReturnsNilInterface(t *testing.T) {
	s, err := New(context.Background(), Config{Backend: BackendBolt}, nil)
	require.Error(t, err)
	assert.True(t, s == nil, "expected a nil Store, got %T", s)

	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "no-such-profile")
	s, err = New(context.Background(), Config{Backend: BackendDynamoDB}, nil)
	require.Error(t, err)
	assert.True(t, s == nil, "expected a nil Store, got %T", s)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultScanLimit, ClampLimit(-1))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxScanLimit, ClampLimit(MaxScanLimit+1))
}
