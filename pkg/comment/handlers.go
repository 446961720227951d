package comment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"blog/pkg/authz"
	. "blog/pkg/common"
	"blog/pkg/logger"
	"blog/pkg/post"
	"blog/pkg/sessions"
	"blog/pkg/user"
)

type (
	ICommentRepo interface {
		ListByPost(context.Context, post.PostId) ([]*Comment, error)
		GetById(context.Context, CommentId) (*Comment, error)

		Add(context.Context, *Comment) (CommentId, error)
		UpdateContent(context.Context, CommentId, string) (*Comment, error)
		ToggleLike(context.Context, CommentId, string) (*Comment, bool, error)

		Delete(context.Context, CommentId) error
	}

	IPostLookup interface {
		GetById(context.Context, post.PostId) (*post.Post, error)
	}

	IAuthors interface {
		Summaries(context.Context, []string) (map[string]*user.Summary, error)
	}

	CommentHandler struct {
		CommentRepo ICommentRepo
		Posts       IPostLookup
		Authors     IAuthors
	}

	LikeResult struct {
		Likes int  `json:"likes"`
		Liked bool `json:"liked"`
	}
)

func NewCommentHandler(commentRepo ICommentRepo, posts IPostLookup, authors IAuthors) *CommentHandler {
	return &CommentHandler{
		CommentRepo: commentRepo,
		Posts:       posts,
		Authors:     authors,
	}
}

// List returns the flat comments of a post, newest first.
func (ch *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := ch.load(r.Context(), post.PostId(mux.Vars(r)["post_id"]))
	if err != nil {
		WriteError(r.Context(), w, err, "failed loading comments")
		return
	}
	WriteRespJSON(w, comments)
}

// Tree returns the comments of a post nested by reply. The optional
// maxDepth query parameter hides replies at that depth and below.
func (ch *CommentHandler) Tree(w http.ResponseWriter, r *http.Request) {
	maxDepth := 0
	if v := r.URL.Query().Get("maxDepth"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 {
			WriteError(r.Context(), w, Validationf("maxDepth must be a positive number"), "bad maxDepth")
			return
		}
		maxDepth = d
	}

	comments, err := ch.load(r.Context(), post.PostId(mux.Vars(r)["post_id"]))
	if err != nil {
		WriteError(r.Context(), w, err, "failed loading comments")
		return
	}
	WriteRespJSON(w, Prune(Build(comments), maxDepth))
}

func (ch *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	author, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	nc := new(NewComment)
	if err := ParseReqBody(r.Body, nc); err != nil {
		WriteError(r.Context(), w, Validationf("can't parse comment: %v", err), "can't parse comment")
		return
	}
	if err := nc.Validate(); err != nil {
		WriteError(r.Context(), w, err, "invalid comment")
		return
	}

	if _, err := ch.Posts.GetById(r.Context(), nc.PostId); err != nil {
		WriteError(r.Context(), w, err, "post not found")
		return
	}
	if nc.ParentCommentId != "" {
		if err := ch.checkParent(r.Context(), nc); err != nil {
			WriteError(r.Context(), w, err, "failed loading parent comment")
			return
		}
	}

	now := time.Now()
	c := &Comment{
		Id:       CommentId(uuid.NewString()),
		PostId:   nc.PostId,
		ParentId: nc.ParentCommentId,
		AuthorId: author.Id,
		Content:  nc.Content,
		Likes:    []string{},
		Created:  now,
		Updated:  now,
	}
	if _, err := ch.CommentRepo.Add(r.Context(), c); err != nil {
		WriteError(r.Context(), w, err, "failed adding comment")
		return
	}
	c.Author = author.Summary()
	logger.Log(r.Context()).Infow("comment created", "commentId", c.Id, "postId", c.PostId, "parentId", c.ParentId)

	w.WriteHeader(http.StatusCreated)
	WriteRespJSON(w, c)
}

func (ch *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	commentId := CommentId(mux.Vars(r)["comment_id"])

	actor, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	if err := ch.owned(r.Context(), commentId, actor.Id); err != nil {
		writeOwnedErr(r.Context(), w, err)
		return
	}

	edit := new(Edit)
	if err := ParseReqBody(r.Body, edit); err != nil {
		WriteError(r.Context(), w, Validationf("can't parse comment: %v", err), "can't parse comment")
		return
	}
	if err := edit.Validate(); err != nil {
		WriteError(r.Context(), w, err, "invalid comment")
		return
	}

	c, err := ch.CommentRepo.UpdateContent(r.Context(), commentId, edit.Content)
	if err != nil {
		WriteError(r.Context(), w, err, "failed updating comment")
		return
	}
	c.Author = actor.Summary()
	c.LikesCount = len(c.Likes)

	WriteRespJSON(w, c)
}

func (ch *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	commentId := CommentId(mux.Vars(r)["comment_id"])

	actor, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	if err := ch.owned(r.Context(), commentId, actor.Id); err != nil {
		writeOwnedErr(r.Context(), w, err)
		return
	}

	if err := ch.CommentRepo.Delete(r.Context(), commentId); err != nil {
		WriteError(r.Context(), w, err, "removing comment failed")
		return
	}

	WriteMsg(w, "comment deleted", http.StatusOK)
}

func (ch *CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	commentId := CommentId(mux.Vars(r)["comment_id"])

	voter, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		WriteError(r.Context(), w, err, "not authorized")
		return
	}

	c, liked, err := ch.CommentRepo.ToggleLike(r.Context(), commentId, voter.Id)
	if err != nil {
		WriteError(r.Context(), w, err, "comment not found")
		return
	}

	WriteRespJSON(w, LikeResult{Likes: len(c.Likes), Liked: liked})
}

// checkParent makes sure a reply points at a comment of the same post.
func (ch *CommentHandler) checkParent(ctx context.Context, nc *NewComment) error {
	parent, err := ch.CommentRepo.GetById(ctx, nc.ParentCommentId)
	if errors.Is(err, ErrNotFound) {
		return Validationf("parent comment %s not found", nc.ParentCommentId)
	}
	if err != nil {
		return err
	}
	if parent.PostId != nc.PostId {
		return Validationf("parent comment %s belongs to another post", nc.ParentCommentId)
	}
	return nil
}

func (ch *CommentHandler) owned(ctx context.Context, id CommentId, actorId string) error {
	c, err := ch.CommentRepo.GetById(ctx, id)
	if err != nil {
		return err
	}
	return authz.Check(actorId, c.AuthorId)
}

func writeOwnedErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch StatusCode(err) {
	case http.StatusNotFound:
		WriteError(ctx, w, err, "comment not found")
	case http.StatusForbidden:
		WriteError(ctx, w, err, "only the author can change the comment")
	default:
		WriteError(ctx, w, err, "failed loading comment")
	}
}

func (ch *CommentHandler) load(ctx context.Context, postId post.PostId) ([]*Comment, error) {
	comments, err := ch.CommentRepo.ListByPost(ctx, postId)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorId)
	}
	authors, err := ch.Authors.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("comment/handlers: can't load authors: %w", err)
	}
	for _, c := range comments {
		c.Author = authors[c.AuthorId]
		c.LikesCount = len(c.Likes)
	}
	return comments, nil
}
