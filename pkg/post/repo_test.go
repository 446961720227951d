package post

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"blog/pkg/common"
	"blog/pkg/mongodb"
)

func decodesTo(p Post) func(interface{}) error {
	return func(v interface{}) error {
		*v.(*Post) = p
		return nil
	}
}

func TestPostAdd(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()

	mockMongoColl := mongodb.NewMockICollection(ctrl)
	repo := &Repo{
		posts: mockMongoColl,
	}

	testPost := &Post{Id: PostId("1")}

	t.Run("success", func(t *testing.T) {
		mockMongoColl.EXPECT().
			InsertOne(ctx, testPost).
			Return(&mongo.InsertOneResult{}, nil)

		insertedPostId, err := repo.Add(ctx, testPost)
		assert.Nil(t, err)
		assert.Equal(t, testPost.Id, insertedPostId)
	})

	t.Run("insert error", func(t *testing.T) {
		expectedErr := fmt.Errorf("insert_failed")
		mockMongoColl.EXPECT().
			InsertOne(ctx, gomock.Any()).
			Return(nil, expectedErr)

		insertedPostId, err := repo.Add(ctx, &Post{})
		assert.Equal(t, insertedPostId, PostId(``))
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestGetById(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	mockResult := mongodb.NewMockISingleResult(ctrl)
	repo := &Repo{posts: mockMongoColl}

	t.Run("found", func(t *testing.T) {
		mockMongoColl.EXPECT().FindOne(ctx, bson.M{"id": PostId("1")}).Return(mockResult)
		mockResult.EXPECT().Decode(gomock.Any()).DoAndReturn(decodesTo(Post{Id: "1", Title: "hello"}))

		p, err := repo.GetById(ctx, "1")
		assert.NoError(t, err)
		assert.Equal(t, "hello", p.Title)
	})

	t.Run("missing document is not found", func(t *testing.T) {
		mockMongoColl.EXPECT().FindOne(ctx, bson.M{"id": PostId("2")}).Return(mockResult)
		mockResult.EXPECT().Decode(gomock.Any()).Return(mongo.ErrNoDocuments)

		_, err := repo.GetById(ctx, "2")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestIncViews(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	mockResult := mongodb.NewMockISingleResult(ctrl)
	repo := &Repo{posts: mockMongoColl}

	mockMongoColl.EXPECT().
		FindOneAndUpdate(ctx, bson.M{"id": PostId("1")}, bson.M{"$inc": bson.M{"views": 1}}, gomock.Any()).
		Return(mockResult)
	mockResult.EXPECT().Decode(gomock.Any()).DoAndReturn(decodesTo(Post{Id: "1", Views: 4}))

	p, err := repo.IncViews(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, 4, p.Views)
}

func TestUpdateSetsOnlySuppliedFields(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	mockResult := mongodb.NewMockISingleResult(ctrl)
	repo := &Repo{posts: mockMongoColl}

	title, image := "new title", ""
	mockMongoColl.EXPECT().
		FindOneAndUpdate(ctx, bson.M{"id": PostId("1")}, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, update interface{}, _ ...interface{}) mongodb.ISingleResult {
			set := update.(bson.M)["$set"].(bson.M)
			assert.Equal(t, title, set["title"])
			assert.Equal(t, "", set["image"])
			assert.IsType(t, time.Time{}, set["updated"])
			assert.NotContains(t, set, "content")
			assert.NotContains(t, set, "authorId")
			assert.NotContains(t, set, "views")
			assert.Len(t, set, 3)
			return mockResult
		})
	mockResult.EXPECT().Decode(gomock.Any()).DoAndReturn(decodesTo(Post{Id: "1", Title: title}))

	p, err := repo.Update(ctx, "1", &Update{Title: &title, Image: &image})
	assert.NoError(t, err)
	assert.Equal(t, title, p.Title)
}

func TestDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	repo := &Repo{posts: mockMongoColl}

	mockMongoColl.EXPECT().DeleteOne(ctx, bson.M{"id": PostId("1")}).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	assert.NoError(t, repo.Delete(ctx, "1"))

	mockMongoColl.EXPECT().DeleteOne(ctx, bson.M{"id": PostId("2")}).Return(&mongo.DeleteResult{DeletedCount: 0}, nil)
	assert.ErrorIs(t, repo.Delete(ctx, "2"), common.ErrNotFound)
}

func TestToggleLike(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	mockFound := mongodb.NewMockISingleResult(ctrl)
	mockUpdated := mongodb.NewMockISingleResult(ctrl)
	repo := &Repo{posts: mockMongoColl}
	filter := bson.M{"id": PostId("1")}

	t.Run("adds missing like", func(t *testing.T) {
		mockMongoColl.EXPECT().FindOne(ctx, filter).Return(mockFound)
		mockFound.EXPECT().Decode(gomock.Any()).DoAndReturn(decodesTo(Post{Id: "1", Likes: []string{"7"}}))
		mockMongoColl.EXPECT().
			FindOneAndUpdate(ctx, filter, bson.M{"$addToSet": bson.M{"likes": "5"}}, gomock.Any()).
			Return(mockUpdated)
		mockUpdated.EXPECT().Decode(gomock.Any()).DoAndReturn(decodesTo(Post{Id: "1", Likes: []string{"7", "5"}}))

		p, liked, err := repo.ToggleLike(ctx, "1", "5")
		assert.NoError(t, err)
		assert.True(t, liked)
		assert.Len(t, p.Likes, 2)
	})

	t.Run("removes present like", func(t *testing.T) {
		mockMongoColl.EXPECT().FindOne(ctx, filter).Return(mockFound)
		mockFound.EXPECT().Decode(gomock.Any()).DoAndReturn(decodesTo(Post{Id: "1", Likes: []string{"7", "5"}}))
		mockMongoColl.EXPECT().
			FindOneAndUpdate(ctx, filter, bson.M{"$pull": bson.M{"likes": "5"}}, gomock.Any()).
			Return(mockUpdated)
		mockUpdated.EXPECT().Decode(gomock.Any()).DoAndReturn(decodesTo(Post{Id: "1", Likes: []string{"7"}}))

		p, liked, err := repo.ToggleLike(ctx, "1", "5")
		assert.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, []string{"7"}, p.Likes)
	})

	t.Run("missing post", func(t *testing.T) {
		mockMongoColl.EXPECT().FindOne(ctx, gomock.Any()).Return(mockFound)
		mockFound.EXPECT().Decode(gomock.Any()).Return(mongo.ErrNoDocuments)

		_, _, err := repo.ToggleLike(ctx, "404", "5")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	mockCursor := mongodb.NewMockICursor(ctrl)
	repo := &Repo{posts: mockMongoColl}

	t.Run("category filter", func(t *testing.T) {
		expectedPosts := []*Post{
			{Id: PostId("2"), Category: "Travel"},
			{Id: PostId("1"), Category: "Travel"},
		}
		filter := bson.M{"category": "Travel"}

		mockMongoColl.EXPECT().CountDocuments(ctx, filter).Return(int64(12), nil)
		mockMongoColl.EXPECT().Find(ctx, filter, gomock.Any()).Return(mockCursor, nil)
		mockCursor.EXPECT().
			All(ctx, gomock.AssignableToTypeOf(&expectedPosts)).
			SetArg(1, expectedPosts).
			Return(nil)
		mockCursor.EXPECT().Close(ctx).Return(nil)

		posts, total, err := repo.List(ctx, Filter{Category: "Travel"}, 2, 10)
		assert.NoError(t, err)
		assert.Equal(t, int64(12), total)
		assert.Equal(t, expectedPosts, posts)
	})

	t.Run("page past the end skips the query", func(t *testing.T) {
		mockMongoColl.EXPECT().CountDocuments(ctx, bson.M{}).Return(int64(1), nil)

		posts, total, err := repo.List(ctx, Filter{}, math.MaxInt, 10)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Empty(t, posts)
	})

	t.Run("count error", func(t *testing.T) {
		expectedErr := fmt.Errorf("count failed")
		mockMongoColl.EXPECT().CountDocuments(ctx, bson.M{}).Return(int64(0), expectedErr)

		_, _, err := repo.List(ctx, Filter{Category: CategoryAll}, 1, 10)
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestBuildFilter(t *testing.T) {
	f := buildFilter(Filter{Search: "go+", Category: "Technology", AuthorId: "3"})
	assert.Equal(t, "Technology", f["category"])
	assert.Equal(t, "3", f["authorId"])
	or := f["$or"].(bson.A)
	assert.Len(t, or, 2)
	assert.Equal(t, bson.M{"title": bson.M{"$regex": `go\+`, "$options": "i"}}, or[0])

	assert.Empty(t, buildFilter(Filter{}))
}
