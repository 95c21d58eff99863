// Package dynamo keeps saved mind maps in a DynamoDB table.
package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

const (
	DefaultTable = "mindmaps"
	// UserIndex is a GSI with partition key user_id and sort key created_at.
	UserIndex = "user_id-created_at-index"
)

// API is the part of the DynamoDB client the repository calls.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type item struct {
	ID           string `dynamodbav:"id"`
	UserID       string `dynamodbav:"user_id"`
	Topic        string `dynamodbav:"topic"`
	InterestArea string `dynamodbav:"interest_area"`
	SkillLevel   string `dynamodbav:"skill_level"`
	MindMapData  string `dynamodbav:"mind_map_data"`
	CreatedAt    string `dynamodbav:"created_at"`
}

type MindMapRepository struct {
	api   API
	table string
}

func NewMindMapRepository(api API, table string) *MindMapRepository {
	if table == "" {
		table = DefaultTable
	}
	return &MindMapRepository{api: api, table: table}
}

// NewFromRegion loads the default AWS credential chain for region.
func NewFromRegion(ctx context.Context, region, table string) (*MindMapRepository, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewMindMapRepository(dynamodb.NewFromConfig(cfg), table), nil
}

func (r *MindMapRepository) Save(ctx context.Context, m *mindmap.Saved) error {
	data, err := json.Marshal(m.Graph)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item{
		ID:           string(m.ID),
		UserID:       m.UserID,
		Topic:        m.Topic,
		InterestArea: m.InterestArea,
		SkillLevel:   string(m.SkillLevel),
		MindMapData:  string(data),
		CreatedAt:    m.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.table), Item: av})
	return err
}

func (r *MindMapRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*mindmap.Saved, error) {
	if limit <= 0 {
		limit = 50
	}
	out, err := r.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		IndexName:              aws.String(UserIndex),
		KeyConditionExpression: aws.String("user_id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}
	list := make([]*mindmap.Saved, 0, len(out.Items))
	for _, av := range out.Items {
		m, err := decode(av)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, nil
}

func (r *MindMapRepository) Get(ctx context.Context, id mindmap.ID) (*mindmap.Saved, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       key(id),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrNotFound
	}
	return decode(out.Item)
}

func (r *MindMapRepository) Delete(ctx context.Context, id mindmap.ID) error {
	_, err := r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 key(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	var missing *types.ConditionalCheckFailedException
	if errors.As(err, &missing) {
		return domain.ErrNotFound
	}
	return err
}

func (r *MindMapRepository) Check(ctx context.Context) error {
	_, err := r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	return err
}

func key(id mindmap.ID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: string(id)}}
}

func decode(av map[string]types.AttributeValue) (*mindmap.Saved, error) {
	var it item
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, err
	}
	m := &mindmap.Saved{
		ID:           mindmap.ID(it.ID),
		UserID:       it.UserID,
		Topic:        it.Topic,
		InterestArea: it.InterestArea,
		SkillLevel:   mindmap.SkillLevel(it.SkillLevel),
	}
	if err := json.Unmarshal([]byte(it.MindMapData), &m.Graph); err != nil {
		return nil, fmt.Errorf("decode mind map %s: %w", it.ID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode mind map %s: %w", it.ID, err)
	}
	m.CreatedAt = created
	return m, nil
}
