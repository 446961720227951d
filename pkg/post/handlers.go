package post

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"blog/pkg/authz"
	. "blog/pkg/common"
	"blog/pkg/logger"
	"blog/pkg/sessions"
	"blog/pkg/user"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type (
	IPostRepo interface {
		List(context.Context, Filter, int, int) ([]*Post, int64, error)
		GetById(context.Context, PostId) (*Post, error)
		IncViews(context.Context, PostId) (*Post, error)

		Add(context.Context, *Post) (PostId, error)
		Update(context.Context, PostId, *Update) (*Post, error)
		ToggleLike(context.Context, PostId, string) (*Post, bool, error)

		Delete(context.Context, PostId) error
	}

	// ICommentCleaner removes the comments of a deleted post.
	ICommentCleaner interface {
		DeleteByPost(context.Context, PostId) (int64, error)
	}

	IAuthors interface {
		Summaries(context.Context, []string) (map[string]*user.Summary, error)
	}

	IUserLookup interface {
		GetByUsername(context.Context, string) (*user.User, error)
	}

	PostHandler struct {
		PostRepo IPostRepo
		Comments ICommentCleaner
		Authors  IAuthors
		Users    IUserLookup
	}

	LikeResult struct {
		Likes int  `json:"likes"`
		Liked bool `json:"liked"`
	}
)

func NewPostHandler(postRepo IPostRepo, comments ICommentCleaner, authors IAuthors, users IUserLookup) *PostHandler {
	return &PostHandler{
		PostRepo: postRepo,
		Comments: comments,
		Authors:  authors,
		Users:    users,
	}
}

func (ph *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	page := QueryInt(r, "page", 1)
	limit := QueryInt(r, "limit", DefaultPageSize)
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	posts, total, err := ph.PostRepo.List(r.Context(), filter, page, limit)
	if err != nil {
		WriteError(r.Context(), w, err, "failed loading posts")
		return
	}
	if err := ph.attachAuthors(r.Context(), posts...); err != nil {
		WriteError(r.Context(), w, err, "failed loading posts")
		return
	}

	WriteRespJSON(w, NewPage(posts, total, page, limit))
}

func (ph *PostHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	author, err := ph.Users.GetByUsername(r.Context(), username)
	if err != nil {
		WriteError(r.Context(), w, err, "user not found")
		return
	}

	page := QueryInt(r, "page", 1)
	limit := QueryInt(r, "limit", DefaultPageSize)
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	posts, total, err := ph.PostRepo.List(r.Context(), Filter{AuthorId: author.Id}, page, limit)
	if err != nil {
		WriteError(r.Context(), w, err, "failed loading user posts")
		return
	}
	summary := author.Summary()
	for _, p := range posts {
		p.Author = summary
		p.LikesCount = len(p.Likes)
	}

	WriteRespJSON(w, NewPage(posts, total, page, limit))
}

// Get returns a post and counts the view.
func (ph *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postId := PostId(mux.Vars(r)["post_id"])

	post, err := ph.PostRepo.IncViews(r.Context(), postId)
	if err != nil {
		WriteError(r.Context(), w, err, "post not found")
		return
	}
	if err := ph.attachAuthors(r.Context(), post); err != nil {
		WriteError(r.Context(), w, err, "failed loading post")
		return
	}

	WriteRespJSON(w, post)
}

func (ph *PostHandler) Add(w http.ResponseWriter, r *http.Request) {
	author, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	np := new(NewPost)
	if err := ParseReqBody(r.Body, np); err != nil {
		WriteError(r.Context(), w, Validationf("can't parse post: %v", err), "can't parse post")
		return
	}
	if err := np.Validate(); err != nil {
		WriteError(r.Context(), w, err, "invalid post")
		return
	}

	now := time.Now()
	post := &Post{
		Id:       PostId(uuid.NewString()),
		Title:    np.Title,
		Content:  np.Content,
		AuthorId: author.Id,
		Image:    np.Image,
		Category: np.Category,
		Tags:     np.Tags,
		Likes:    []string{},
		Created:  now,
		Updated:  now,
	}

	if _, err := ph.PostRepo.Add(r.Context(), post); err != nil {
		WriteError(r.Context(), w, err, "failed adding post")
		return
	}
	post.Author = author.Summary()
	logger.Log(r.Context()).Infow("post created", "postId", post.Id, "authorId", author.Id)

	w.WriteHeader(http.StatusCreated)
	WriteRespJSON(w, post)
}

func (ph *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	postId := PostId(mux.Vars(r)["post_id"])

	actor, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	if _, err := ph.owned(r.Context(), postId, actor.Id); err != nil {
		writeOwnedErr(r.Context(), w, err)
		return
	}

	upd := new(Update)
	if err := ParseReqBody(r.Body, upd); err != nil {
		WriteError(r.Context(), w, Validationf("can't parse post: %v", err), "can't parse post")
		return
	}
	if err := upd.Validate(); err != nil {
		WriteError(r.Context(), w, err, "invalid post")
		return
	}

	post, err := ph.PostRepo.Update(r.Context(), postId, upd)
	if err != nil {
		WriteError(r.Context(), w, err, "failed updating post")
		return
	}
	post.Author = actor.Summary()
	post.LikesCount = len(post.Likes)

	WriteRespJSON(w, post)
}

func (ph *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postId := PostId(mux.Vars(r)["post_id"])

	actor, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	if _, err := ph.owned(r.Context(), postId, actor.Id); err != nil {
		writeOwnedErr(r.Context(), w, err)
		return
	}

	if err := ph.PostRepo.Delete(r.Context(), postId); err != nil {
		WriteError(r.Context(), w, err, "removing post failed")
		return
	}

	removed, err := ph.Comments.DeleteByPost(r.Context(), postId)
	if err != nil {
		// The post is gone already; its comments stay unreachable.
		logger.Log(r.Context()).Errorf("can't remove comments of post %s: %v", postId, err)
	}
	logger.Log(r.Context()).Infow("post deleted", "postId", postId, "comments", removed)

	WriteMsg(w, "post deleted", http.StatusOK)
}

func (ph *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	postId := PostId(mux.Vars(r)["post_id"])

	voter, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	post, liked, err := ph.PostRepo.ToggleLike(r.Context(), postId, voter.Id)
	if err != nil {
		WriteError(r.Context(), w, err, "post not found")
		return
	}

	WriteRespJSON(w, LikeResult{Likes: len(post.Likes), Liked: liked})
}

// owned loads the post and checks that actorId wrote it.
func (ph *PostHandler) owned(ctx context.Context, id PostId, actorId string) (*Post, error) {
	post, err := ph.PostRepo.GetById(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actorId, post.AuthorId); err != nil {
		return nil, err
	}
	return post, nil
}

func writeOwnedErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch StatusCode(err) {
	case http.StatusNotFound:
		WriteError(ctx, w, err, "post not found")
	case http.StatusForbidden:
		WriteError(ctx, w, err, "only the author can change the post")
	default:
		WriteError(ctx, w, err, "failed loading post")
	}
}

func (ph *PostHandler) attachAuthors(ctx context.Context, posts ...*Post) error {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorId)
	}
	authors, err := ph.Authors.Summaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("post/handlers: can't load authors: %w", err)
	}
	for _, p := range posts {
		p.Author = authors[p.AuthorId]
		p.LikesCount = len(p.Likes)
	}
	return nil
}
