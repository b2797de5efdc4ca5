package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/okian/holotrumps/internal/adapters/repository"
	"github.com/okian/holotrumps/pkg/logger"
	"github.com/okian/holotrumps/pkg/metrics"
)

const backend = "dynamodb"

// Store implements repository.Store with one DynamoDB table per kind. Each
// table has a string partition key named "id".
type Store struct {
	client         DynamoClient
	consistentRead bool
	tableWait      time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand

	logger logger.Logger
}

var _ repository.Store = (*Store)(nil)

// New returns a Store backed by client.
func New(client DynamoClient, opts ...Option) *Store {
	s := &Store{
		client:    client,
		tableWait: 30 * time.Second,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // not security sensitive
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(backend, op, float64(time.Since(start).Milliseconds()))
	if *err != nil {
		metrics.RecordStoreError(backend, op)
	}
}

func marshalKey(op, table string, key repository.Key) (map[string]types.AttributeValue, string, error) {
	id, err := repository.KeyID(key)
	if err != nil {
		return nil, "", err
	}
	av, err := attributevalue.MarshalMap(repository.Key{repository.KeyAttribute: id})
	if err != nil {
		return nil, "", repository.NewStoreError(op, table, err)
	}
	return av, id, nil
}

func unmarshalItem(op, table string, av map[string]types.AttributeValue) (repository.Item, error) {
	item := repository.Item{}
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, repository.NewStoreError(op, table, err)
	}
	return item, nil
}

// Get implements repository.Store.
func (s *Store) Get(ctx context.Context, table string, key repository.Key) (_ repository.Item, err error) {
	defer observe("get", time.Now(), &err)

	av, id, err := marshalKey("get", table, key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetItem(ctx, &ddb.GetItemInput{
		TableName:      aws.String(table),
		Key:            av,
		ConsistentRead: aws.Bool(s.consistentRead),
	})
	if err != nil {
		return nil, repository.NewStoreError("get", table, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, repository.ErrNotFound)
	}
	return unmarshalItem("get", table, out.Item)
}

// Put implements repository.Store.
func (s *Store) Put(ctx context.Context, table string, item repository.Item) (err error) {
	defer observe("put", time.Now(), &err)

	if _, err := repository.KeyID(item); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return repository.NewStoreError("put", table, err)
	}
	if _, err := s.client.PutItem(ctx, &ddb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}); err != nil {
		return repository.NewStoreError("put", table, err)
	}
	return nil
}

// updateExpression renders SET and REMOVE clauses. Placeholders are numbered
// in sorted attribute order so the expression is stable.
func updateExpression(set map[string]any, remove []string) (string, map[string]string, map[string]types.AttributeValue, error) {
	names := map[string]string{"#id": repository.KeyAttribute}
	values := map[string]types.AttributeValue{}

	keys := make([]string, 0, len(set))
	for k := range set {
		if k != repository.KeyAttribute {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	if len(keys) > 0 {
		parts := make([]string, 0, len(keys))
		for i, k := range keys {
			n, v := "#s"+strconv.Itoa(i), ":s"+strconv.Itoa(i)
			av, err := attributevalue.Marshal(set[k])
			if err != nil {
				return "", nil, nil, fmt.Errorf("marshal %s: %w", k, err)
			}
			names[n] = k
			values[v] = av
			parts = append(parts, n+" = "+v)
		}
		b.WriteString("SET ")
		b.WriteString(strings.Join(parts, ", "))
	}

	var rm []string
	for i, k := range remove {
		if k == repository.KeyAttribute {
			continue
		}
		n := "#r" + strconv.Itoa(i)
		names[n] = k
		rm = append(rm, n)
	}
	if len(rm) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("REMOVE ")
		b.WriteString(strings.Join(rm, ", "))
	}

	if len(values) == 0 {
		values = nil
	}
	return b.String(), names, values, nil
}

// Update implements repository.Store. The write is conditional on the item
// existing so a missing id never creates a partial item.
func (s *Store) Update(ctx context.Context, table string, key repository.Key, set map[string]any, remove []string) (_ repository.Item, err error) {
	defer observe("update", time.Now(), &err)

	av, id, err := marshalKey("update", table, key)
	if err != nil {
		return nil, err
	}
	expr, names, values, err := updateExpression(set, remove)
	if err != nil {
		return nil, repository.NewStoreError("update", table, err)
	}
	if expr == "" {
		return s.Get(ctx, table, key)
	}

	out, err := s.client.UpdateItem(ctx, &ddb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       av,
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("update %s/%s: %w", table, id, repository.ErrNotFound)
		}
		return nil, repository.NewStoreError("update", table, err)
	}
	return unmarshalItem("update", table, out.Attributes)
}

// Delete implements repository.Store.
func (s *Store) Delete(ctx context.Context, table string, key repository.Key) (err error) {
	defer observe("delete", time.Now(), &err)

	av, _, err := marshalKey("delete", table, key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteItem(ctx, &ddb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       av,
	}); err != nil {
		return repository.NewStoreError("delete", table, err)
	}
	return nil
}

// Scan implements repository.Store. DynamoDB may report a LastKey on the
// final page when it fills Limit exactly; the next page is then empty.
func (s *Store) Scan(ctx context.Context, table string, in repository.ScanInput) (_ repository.ScanPage, err error) {
	defer observe("scan", time.Now(), &err)

	input := &ddb.ScanInput{
		TableName:      aws.String(table),
		ConsistentRead: aws.Bool(s.consistentRead),
	}
	if in.Limit > 0 {
		input.Limit = aws.Int32(int32(min(in.Limit, 1<<30))) //nolint:gosec // bounded above
	}
	if in.StartKey != nil {
		av, _, err := marshalKey("scan", table, in.StartKey)
		if err != nil {
			return repository.ScanPage{}, err
		}
		input.ExclusiveStartKey = av
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return repository.ScanPage{}, repository.NewStoreError("scan", table, err)
	}

	page := repository.ScanPage{Items: make([]repository.Item, 0, len(out.Items))}
	for _, raw := range out.Items {
		item, err := unmarshalItem("scan", table, raw)
		if err != nil {
			return repository.ScanPage{}, err
		}
		page.Items = append(page.Items, item)
	}
	page.Count = len(page.Items)
	if len(out.LastEvaluatedKey) > 0 {
		last, err := unmarshalItem("scan", table, out.LastEvaluatedKey)
		if err != nil {
			return repository.ScanPage{}, err
		}
		page.LastKey = last
	}
	return page, nil
}

// ids lists every key in table with a projected scan.
func (s *Store) ids(ctx context.Context, table string) ([]string, error) {
	var (
		ids   []string
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.client.Scan(ctx, &ddb.ScanInput{
			TableName:                aws.String(table),
			ProjectionExpression:     aws.String("#id"),
			ExpressionAttributeNames: map[string]string{"#id": repository.KeyAttribute},
			ExclusiveStartKey:        start,
		})
		if err != nil {
			return nil, repository.NewStoreError("random", table, err)
		}
		for _, raw := range out.Items {
			var k struct {
				ID string `dynamodbav:"id"`
			}
			if err := attributevalue.UnmarshalMap(raw, &k); err != nil {
				return nil, repository.NewStoreError("random", table, err)
			}
			ids = append(ids, k.ID)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return ids, nil
		}
		start = out.LastEvaluatedKey
	}
}

// RandomDistinct implements repository.Store. It lists the table's keys,
// samples n of them uniformly and fetches each sampled item.
func (s *Store) RandomDistinct(ctx context.Context, table string, n int) (_ []repository.Item, err error) {
	defer observe("random", time.Now(), &err)

	ids, err := s.ids(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(ids) < n {
		return nil, fmt.Errorf("%s holds %d items, need %d: %w", table, len(ids), n, repository.ErrInsufficientItems)
	}
	if n <= 0 {
		return []repository.Item{}, nil
	}

	s.rngMu.Lock()
	picks := repository.SampleIndexes(s.rng, len(ids), n)
	s.rngMu.Unlock()

	out := make([]repository.Item, 0, n)
	for _, i := range picks {
		item, err := s.Get(ctx, table, repository.Key{repository.KeyAttribute: ids[i]})
		if err != nil {
			// Deleted between the key scan and the read.
			return nil, repository.NewStoreError("random", table, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// EnsureTables creates any missing table with an "id" string hash key and
// on-demand billing, then waits for it to become active.
func (s *Store) EnsureTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		_, err := s.client.DescribeTable(ctx, &ddb.DescribeTableInput{TableName: aws.String(table)})
		if err == nil {
			continue
		}
		var rnf *types.ResourceNotFoundException
		if !errors.As(err, &rnf) {
			return repository.NewStoreError("describe", table, err)
		}

		if _, err := s.client.CreateTable(ctx, &ddb.CreateTableInput{
			TableName: aws.String(table),
			AttributeDefinitions: []types.AttributeDefinition{{
				AttributeName: aws.String(repository.KeyAttribute),
				AttributeType: types.ScalarAttributeTypeS,
			}},
			KeySchema: []types.KeySchemaElement{{
				AttributeName: aws.String(repository.KeyAttribute),
				KeyType:       types.KeyTypeHash,
			}},
			BillingMode: types.BillingModePayPerRequest,
		}); err != nil {
			return repository.NewStoreError("create", table, err)
		}

		waiter := ddb.NewTableExistsWaiter(s.client)
		if err := waiter.Wait(ctx, &ddb.DescribeTableInput{TableName: aws.String(table)}, s.tableWait); err != nil {
			return repository.NewStoreError("create", table, err)
		}
		if s.logger != nil {
			s.logger.Info(ctx, "created dynamodb table", logger.String("table", table))
		}
	}
	return nil
}

// Close implements repository.Store. The SDK client holds no resources.
func (s *Store) Close() error { return nil }
