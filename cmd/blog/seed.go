package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"

	"blog/pkg/comment"
	"blog/pkg/common"
	"blog/pkg/logger"
	"blog/pkg/post"
	"blog/pkg/user"
)

// Everybody seeded logs in with this password.
const seedPassword = "sdfsdfsdf"

type (
	seedUsers interface {
		Add(context.Context, *user.User) (string, error)
		GetAll(context.Context) ([]*user.User, error)
	}
	seedPosts interface {
		Add(context.Context, *post.Post) (post.PostId, error)
		List(context.Context, post.Filter, int, int) ([]*post.Post, int64, error)
	}
	seedComments interface {
		Add(context.Context, *comment.Comment) (comment.CommentId, error)
	}

	seeder struct {
		users    seedUsers
		posts    seedPosts
		comments seedComments
		avatar   string
		f        faker.Faker
	}
)

func newSeeder(st *stores, avatar string) *seeder {
	return &seeder{
		users:    st.users,
		posts:    st.posts,
		comments: st.comments,
		avatar:   avatar,
		f:        faker.New(),
	}
}

// Run creates authors when there are none and then n posts with comment
// threads. Stores that already hold posts are left alone.
func (s *seeder) Run(ctx context.Context, n int) error {
	_, total, err := s.posts.List(ctx, post.Filter{}, 1, 1)
	if err != nil {
		return fmt.Errorf("seed: can't count posts: %w", err)
	}
	if total > 0 {
		logger.Log(ctx).Infof("seed: %d posts exist, skipping", total)
		return nil
	}

	authors, err := s.users.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("seed: can't get all authors: %w", err)
	}
	if len(authors) == 0 {
		if authors, err = s.createAuthors(ctx, 5); err != nil {
			return err
		}
	}

	comments := 0
	for i := 0; i < n; i++ {
		p := s.genPost(authors)
		if _, err := s.posts.Add(ctx, p); err != nil {
			return fmt.Errorf("seed: can't add post: %w", err)
		}
		for _, c := range s.genThread(p, authors) {
			if _, err := s.comments.Add(ctx, c); err != nil {
				return fmt.Errorf("seed: can't add comment: %w", err)
			}
			comments++
		}
	}
	logger.Log(ctx).Infow("seed: done", "authors", len(authors), "posts", n, "comments", comments)
	return nil
}

func (s *seeder) createAuthors(ctx context.Context, n int) ([]*user.User, error) {
	pass, err := common.HashPass(seedPassword)
	if err != nil {
		return nil, err
	}

	// User for experiments (not random)
	authors := []*user.User{{Username: "pike", Email: "pike@example.com"}}
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("%s%d", strings.ToLower(s.f.Person().FirstName()), i)
		authors = append(authors, &user.User{Username: name, Email: name + "@example.com"})
	}
	for _, u := range authors {
		u.Password = pass
		u.Avatar = s.avatar
		if _, err := s.users.Add(ctx, u); err != nil {
			return nil, fmt.Errorf("seed: can't add user %s: %w", u.Username, err)
		}
	}
	return authors, nil
}

func (s *seeder) genPost(authors []*user.User) *post.Post {
	created := s.f.Time().Time(time.Now())
	p := &post.Post{
		Id:       post.PostId(uuid.NewString()),
		Title:    strings.Join(s.f.Lorem().Words(rand.Intn(5)+3), " "),
		Content:  s.f.Lorem().Paragraph(rand.Intn(3) + 2),
		AuthorId: randUser(authors).Id,
		Category: post.Categories[rand.Intn(len(post.Categories))],
		Tags:     uniqWords(s.f.Lorem().Words(rand.Intn(3))),
		Likes:    []string{},
		Views:    rand.Intn(100),
		Created:  created,
		Updated:  created,
	}
	if rand.Intn(2) == 0 {
		p.Image = s.f.Internet().URL()
	}
	return p
}

// genThread makes up to ten comments; most of them reply to an earlier one.
func (s *seeder) genThread(p *post.Post, authors []*user.User) []*comment.Comment {
	n := rand.Intn(10)
	comments := make([]*comment.Comment, 0, n)
	at := p.Created
	for i := 0; i < n; i++ {
		at = at.Add(time.Duration(rand.Intn(120)+1) * time.Minute)
		c := &comment.Comment{
			Id:       comment.CommentId(uuid.NewString()),
			PostId:   p.Id,
			AuthorId: randUser(authors).Id,
			Content:  s.f.Lorem().Sentence(rand.Intn(12) + 3),
			Likes:    []string{},
			Created:  at,
			Updated:  at,
		}
		if i > 0 && rand.Intn(3) > 0 {
			c.ParentId = comments[rand.Intn(i)].Id
		}
		comments = append(comments, c)
	}
	return comments
}

func randUser(users []*user.User) *user.User {
	return users[rand.Intn(len(users))]
}

func uniqWords(words []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
