package comment

import (
	"context"
	"fmt"
	"testing"

	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"blog/pkg/common"
	"blog/pkg/mongodb"
	"blog/pkg/post"
)

func TestListByPost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	mockCursor := mongodb.NewMockICursor(ctrl)
	repo := &Repo{comments: mockMongoColl}

	t.Run("success", func(t *testing.T) {
		expected := []*Comment{
			{Id: "2", PostId: "p1", ParentId: "1"},
			{Id: "1", PostId: "p1"},
		}
		mockMongoColl.EXPECT().Find(ctx, bson.M{"postId": post.PostId("p1")}, gomock.Any()).Return(mockCursor, nil)
		mockCursor.EXPECT().
			All(ctx, gomock.AssignableToTypeOf(&expected)).
			SetArg(1, expected).
			Return(nil)
		mockCursor.EXPECT().Close(ctx).Return(nil)

		got, err := repo.ListByPost(ctx, "p1")
		assert.NoError(t, err)
		assert.Equal(t, expected, got)
	})

	t.Run("find error", func(t *testing.T) {
		expectedErr := fmt.Errorf("find failed")
		mockMongoColl.EXPECT().Find(ctx, gomock.Any(), gomock.Any()).Return(nil, expectedErr)

		_, err := repo.ListByPost(ctx, "p1")
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestCommentAddAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	repo := &Repo{comments: mockMongoColl}

	c := &Comment{Id: "1", PostId: "p1"}
	mockMongoColl.EXPECT().InsertOne(ctx, c).Return(&mongo.InsertOneResult{}, nil)
	id, err := repo.Add(ctx, c)
	assert.NoError(t, err)
	assert.Equal(t, CommentId("1"), id)

	mockMongoColl.EXPECT().DeleteOne(ctx, bson.M{"id": CommentId("1")}).Return(&mongo.DeleteResult{DeletedCount: 1}, nil)
	assert.NoError(t, repo.Delete(ctx, "1"))

	mockMongoColl.EXPECT().DeleteOne(ctx, bson.M{"id": CommentId("1")}).Return(&mongo.DeleteResult{}, nil)
	assert.ErrorIs(t, repo.Delete(ctx, "1"), common.ErrNotFound)

	mockMongoColl.EXPECT().DeleteMany(ctx, bson.M{"postId": post.PostId("p1")}).Return(&mongo.DeleteResult{DeletedCount: 3}, nil)
	n, err := repo.DeleteByPost(ctx, "p1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestUpdateContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	mockMongoColl := mongodb.NewMockICollection(ctrl)
	mockResult := mongodb.NewMockISingleResult(ctrl)
	repo := &Repo{comments: mockMongoColl}

	mockMongoColl.EXPECT().
		FindOneAndUpdate(ctx, bson.M{"id": CommentId("404")}, gomock.Any(), gomock.Any()).
		Return(mockResult)
	mockResult.EXPECT().Decode(gomock.Any()).Return(mongo.ErrNoDocuments)

	_, err := repo.UpdateContent(ctx, "404", "text")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
