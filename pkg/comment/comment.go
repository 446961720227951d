package comment

import (
	"strings"
	"time"
	"unicode/utf8"

	"blog/pkg/common"
	"blog/pkg/post"
	"blog/pkg/user"
)

const MaxContentLength = 1000

type CommentId string

type Comment struct {
	Id       CommentId   `json:"id" bson:"id"`
	PostId   post.PostId `json:"postId" bson:"postId"`
	ParentId CommentId   `json:"parentId,omitempty" bson:"parentId,omitempty"`
	AuthorId string      `json:"authorId" bson:"authorId"`
	Content  string      `json:"content" bson:"content"`
	Likes    []string    `json:"likes" bson:"likes"`

	Created time.Time `json:"created" bson:"created"`
	Updated time.Time `json:"updated" bson:"updated"`

	Author     *user.Summary `json:"author" bson:"-"`
	LikesCount int           `json:"likesCount" bson:"-"`
}

// NewComment is the client payload for posting a comment or a reply.
type NewComment struct {
	Content         string      `json:"content"`
	PostId          post.PostId `json:"postId"`
	ParentCommentId CommentId   `json:"parentCommentId"`
}

type Edit struct {
	Content string `json:"content"`
}

func (c *Comment) HasLike(userId string) bool {
	for _, id := range c.Likes {
		if id == userId {
			return true
		}
	}
	return false
}

func (nc *NewComment) Validate() error {
	content, err := validateContent(nc.Content)
	if err != nil {
		return err
	}
	nc.Content = content
	nc.PostId = post.PostId(strings.TrimSpace(string(nc.PostId)))
	if nc.PostId == "" {
		return common.Validationf("postId is required")
	}
	nc.ParentCommentId = CommentId(strings.TrimSpace(string(nc.ParentCommentId)))
	return nil
}

func (e *Edit) Validate() error {
	content, err := validateContent(e.Content)
	if err != nil {
		return err
	}
	e.Content = content
	return nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", common.Validationf("content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", common.Validationf("content must be at most %d characters", MaxContentLength)
	}
	return content, nil
}
