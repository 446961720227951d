package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog/pkg/common"
	"blog/pkg/mongodb"
	"blog/pkg/post"
)

type Repo struct {
	comments mongodb.ICollection
}

func NewCommentRepo(commentsCol *mongo.Collection) *Repo {
	return &Repo{
		comments: mongodb.NewCollection(commentsCol),
	}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	err := r.comments.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "created", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("comment/repo: failed creating indexes: %w", err)
	}
	return nil
}

func (r *Repo) Add(ctx context.Context, c *Comment) (CommentId, error) {
	if _, err := r.comments.InsertOne(ctx, c); err != nil {
		return CommentId(``), fmt.Errorf("comment/repo: failed inserting a comment: %w", err)
	}
	return c.Id, nil
}

func (r *Repo) GetById(ctx context.Context, id CommentId) (*Comment, error) {
	c := new(Comment)
	if err := r.comments.FindOne(ctx, bson.M{"id": id}).Decode(c); err != nil {
		return nil, fmt.Errorf("comment/repo: comment %s: %w", id, mapErr(err))
	}
	return c, nil
}

// ListByPost returns all comments of a post, newest first.
func (r *Repo) ListByPost(ctx context.Context, postId post.PostId) ([]*Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}, {Key: "id", Value: 1}})
	cursor, err := r.comments.Find(ctx, bson.M{"postId": postId}, opts)
	if err != nil {
		return nil, fmt.Errorf("comment/repo: failed finding comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []*Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("comment/repo: failed geting comments from cursor: %w", err)
	}
	return comments, nil
}

func (r *Repo) UpdateContent(ctx context.Context, id CommentId, content string) (*Comment, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$set": bson.M{"content": content, "updated": time.Now()}})
}

func (r *Repo) Delete(ctx context.Context, id CommentId) error {
	res, err := r.comments.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("comment/repo: failed deleting comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("comment/repo: comment %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *Repo) DeleteByPost(ctx context.Context, postId post.PostId) (int64, error) {
	res, err := r.comments.DeleteMany(ctx, bson.M{"postId": postId})
	if err != nil {
		return 0, fmt.Errorf("comment/repo: failed deleting comments of post %s: %w", postId, err)
	}
	return res.DeletedCount, nil
}

func (r *Repo) ToggleLike(ctx context.Context, id CommentId, userId string) (*Comment, bool, error) {
	c, err := r.GetById(ctx, id)
	if err != nil {
		return nil, false, err
	}

	var update bson.M
	if c.HasLike(userId) {
		update = bson.M{"$pull": bson.M{"likes": userId}}
	} else {
		update = bson.M{"$addToSet": bson.M{"likes": userId}}
	}
	updated, err := r.findAndUpdate(ctx, id, update)
	if err != nil {
		return nil, false, err
	}
	return updated, updated.HasLike(userId), nil
}

func (r *Repo) findAndUpdate(ctx context.Context, id CommentId, update bson.M) (*Comment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	c := new(Comment)
	if err := r.comments.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(c); err != nil {
		return nil, fmt.Errorf("comment/repo: failed updating comment %s: %w", id, mapErr(err))
	}
	return c, nil
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return common.ErrNotFound
	}
	return err
}
