package dynamo

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain"
	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

// fakeTable keeps items by id and answers user_id queries in created_at order.
type fakeTable struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]types.AttributeValue{}}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[str(in.Item["id"])] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[str(in.Key["id"])]}, nil
}

func (f *fakeTable) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	id := str(in.Key["id"])
	if _, ok := f.items[id]; !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	user := str(in.ExpressionAttributeValues[":u"])
	var out []map[string]types.AttributeValue
	for _, it := range f.items {
		if str(it["user_id"]) == user {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return str(out[i]["created_at"]) > str(out[j]["created_at"]) })
	if in.Limit != nil && int(*in.Limit) < len(out) {
		out = out[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (f *fakeTable) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, nil
}

func TestMindMapRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMindMapRepository(newFakeTable(), "")
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []mindmap.ID{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &mindmap.Saved{
			ID: id, UserID: "u1", Topic: "Go", InterestArea: "web", SkillLevel: mindmap.SkillIntermediate,
			Graph: mindmap.Graph{
				Nodes: []mindmap.Node{{ID: "root", Label: "Go", Category: mindmap.CategoryRoot}, {ID: "c1", Label: "Types", Category: mindmap.CategoryCore}},
				Edges: []mindmap.Edge{{From: "root", To: "c1"}},
			},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	got, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), got.CreatedAt)
	assert.Len(t, got.Graph.Nodes, 2)
	assert.Equal(t, mindmap.SkillIntermediate, got.SkillLevel)

	list, err := repo.ListByUser(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, mindmap.ID("c"), list[0].ID)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), domain.ErrNotFound)
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, repo.Check(ctx))
}
