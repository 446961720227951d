package post

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog/pkg/common"
	"blog/pkg/mongodb"
)

type Repo struct {
	posts mongodb.ICollection
}

func NewPostRepo(postsCol *mongo.Collection) *Repo {
	return &Repo{
		posts: mongodb.NewCollection(postsCol),
	}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	err := r.posts.CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "created", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "created", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("post/repo: failed creating indexes: %w", err)
	}
	return nil
}

func (r *Repo) Add(ctx context.Context, p *Post) (PostId, error) {
	_, err := r.posts.InsertOne(ctx, p)
	if err != nil {
		return PostId(``), fmt.Errorf("post/repo: failed inserting a post: %w", err)
	}
	return p.Id, nil
}

func (r *Repo) GetById(ctx context.Context, id PostId) (*Post, error) {
	post := new(Post)
	err := r.posts.FindOne(ctx, bson.M{"id": id}).Decode(post)
	if err != nil {
		return nil, fmt.Errorf("post/repo: post %s: %w", id, mapErr(err))
	}
	return post, nil
}

// IncViews bumps the view counter by one and returns the updated post.
func (r *Repo) IncViews(ctx context.Context, id PostId) (*Post, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$inc": bson.M{"views": 1}})
}

func (r *Repo) Update(ctx context.Context, id PostId, upd *Update) (*Post, error) {
	set := bson.M{"updated": time.Now()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *Repo) Delete(ctx context.Context, id PostId) error {
	res, err := r.posts.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("post/repo: failed deleting post: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post/repo: post %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// ToggleLike adds userId to the post likes if absent and removes it
// otherwise. Each branch is a single document update, so concurrent
// toggles by different users don't overwrite each other.
func (r *Repo) ToggleLike(ctx context.Context, id PostId, userId string) (*Post, bool, error) {
	post, err := r.GetById(ctx, id)
	if err != nil {
		return nil, false, err
	}

	var update bson.M
	if post.HasLike(userId) {
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

// List returns a page of posts, newest first, and the total count of posts
// matching the filter.
func (r *Repo) List(ctx context.Context, f Filter, page, limit int) ([]*Post, int64, error) {
	filter := buildFilter(f)

	total, err := r.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("post/repo: failed counting posts: %w", err)
	}

	offset, ok := pageOffset(page, limit, total)
	if !ok || offset >= total {
		return []*Post{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created", Value: -1}}).
		SetSkip(offset).
		SetLimit(int64(limit))
	cursor, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("post/repo: failed finding posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []*Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, fmt.Errorf("post/repo: failed geting posts from cursor: %w", err)
	}
	return posts, total, nil
}

func (r *Repo) findAndUpdate(ctx context.Context, id PostId, update bson.M) (*Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	post := new(Post)
	err := r.posts.FindOneAndUpdate(ctx, bson.M{"id": id}, update, opts).Decode(post)
	if err != nil {
		return nil, fmt.Errorf("post/repo: failed updating post %s: %w", id, mapErr(err))
	}
	return post, nil
}

func buildFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		pattern := searchRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
		}
	}
	if f.Category != "" && f.Category != CategoryAll {
		filter["category"] = f.Category
	}
	if f.AuthorId != "" {
		filter["authorId"] = f.AuthorId
	}
	return filter
}

func searchRegex(search string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return common.ErrNotFound
	}
	return err
}
