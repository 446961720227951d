package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gomodule/redigo/redis"
	_ "github.com/jackc/pgx/v4/stdlib"

	"blog/pkg/comment"
	"blog/pkg/config"
	"blog/pkg/logger"
	"blog/pkg/mongodb"
	"blog/pkg/post"
	"blog/pkg/server"
	"blog/pkg/user"
)

type (
	userStore interface {
		server.UserStore
		GetByIds(context.Context, []string) ([]*user.User, error)
		GetAll(context.Context) ([]*user.User, error)
	}

	// stores holds the backends chosen by STORE. closers run in reverse order.
	stores struct {
		users     userStore
		posts     post.IPostRepo
		comments  server.CommentStore
		redisPool *redis.Pool

		migrations []func(context.Context) error
		closers    []func()
	}
)

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}
	if cfg.RedisAddr != "" {
		st.redisPool = user.NewRedisPool(cfg.RedisAddr)
		st.closers = append(st.closers, func() { st.redisPool.Close() })
	}

	if cfg.Store == config.StoreMemory {
		logger.Log(ctx).Warn("using in-memory stores, nothing is persisted")
		st.users = user.NewMemoryRepo()
		st.posts = post.NewMemoryRepo()
		st.comments = comment.NewMemoryRepo()
		return st, nil
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("main: unable to open PostgreSQL: %w", err)
	}
	st.closers = append(st.closers, func() { db.Close() })
	if err := db.PingContext(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("main: unable to reach PostgreSQL: %w", err)
	}

	mongoClient, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("main: unable to connect to MongoDB: %w", err)
	}
	st.closers = append(st.closers, func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Log(ctx).Errorf("main: failed disconnecting from MongoDB: %v", err)
		}
	})

	mdb := mongoClient.Database(cfg.MongoDB)
	usersRepo := user.NewUserRepo(db)
	postsRepo := post.NewPostRepo(mdb.Collection("posts"))
	commentsRepo := comment.NewCommentRepo(mdb.Collection("comments"))

	st.users, st.posts, st.comments = usersRepo, postsRepo, commentsRepo
	st.migrations = append(st.migrations,
		usersRepo.Migrate,
		postsRepo.EnsureIndexes,
		commentsRepo.EnsureIndexes,
	)
	return st, nil
}

func (st *stores) Migrate(ctx context.Context) error {
	for _, m := range st.migrations {
		if err := m(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (st *stores) Close() {
	for i := len(st.closers) - 1; i >= 0; i-- {
		st.closers[i]()
	}
}
