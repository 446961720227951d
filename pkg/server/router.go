// Package server wires the handlers and middleware into the HTTP router.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"blog/pkg/comment"
	"blog/pkg/common"
	"blog/pkg/middleware"
	"blog/pkg/post"
	"blog/pkg/sessions"
	"blog/pkg/user"
	"blog/pkg/user/api"
)

type (
	UserStore interface {
		api.UserRepo
		GetById(context.Context, string) (*user.User, error)
		GetByUsername(context.Context, string) (*user.User, error)
	}

	CommentStore interface {
		comment.ICommentRepo
		DeleteByPost(context.Context, post.PostId) (int64, error)
	}

	Deps struct {
		Users         UserStore
		Posts         post.IPostRepo
		Comments      CommentStore
		Summaries     *user.SummaryCache
		Sessions      *sessions.SessionManager
		Logger        *zap.SugaredLogger
		DefaultAvatar string
	}
)

func NewRouter(d Deps) *mux.Router {
	userHandler := api.NewUserHandler(d.Users, d.Sessions, d.Summaries, d.DefaultAvatar)
	postHandler := post.NewPostHandler(d.Posts, d.Comments, d.Summaries, d.Users)
	commentHandler := comment.NewCommentHandler(d.Comments, d.Posts, d.Summaries)

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(h)
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		common.WriteMsg(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		common.WriteMsg(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	apiRouter := r.PathPrefix("/api").Subrouter()

	apiRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		common.WriteRespJSON(w, map[string]string{"status": "ok"})
	}).Methods("GET")

	// Auth
	apiRouter.HandleFunc("/auth/register", userHandler.Register).Methods("POST")
	apiRouter.HandleFunc("/auth/login", userHandler.LogIn).Methods("POST")
	apiRouter.Handle("/auth/me", protected(userHandler.Me)).Methods("GET")
	apiRouter.Handle("/auth/me", protected(userHandler.UpdateProfile)).Methods("PUT")

	// Posts
	apiRouter.HandleFunc("/posts", postHandler.List).Methods("GET")
	apiRouter.Handle("/posts", protected(postHandler.Add)).Methods("POST")
	apiRouter.HandleFunc("/posts/{post_id}", postHandler.Get).Methods("GET")
	apiRouter.Handle("/posts/{post_id}", protected(postHandler.Update)).Methods("PUT")
	apiRouter.Handle("/posts/{post_id}", protected(postHandler.Delete)).Methods("DELETE")
	apiRouter.Handle("/posts/{post_id}/like", protected(postHandler.Like)).Methods("POST")
	apiRouter.HandleFunc("/users/{username}/posts", postHandler.GetByUser).Methods("GET")

	// Comments
	apiRouter.HandleFunc("/comments/post/{post_id}", commentHandler.List).Methods("GET")
	apiRouter.HandleFunc("/comments/post/{post_id}/tree", commentHandler.Tree).Methods("GET")
	apiRouter.Handle("/comments", protected(commentHandler.Add)).Methods("POST")
	apiRouter.Handle("/comments/{comment_id}", protected(commentHandler.Update)).Methods("PUT")
	apiRouter.Handle("/comments/{comment_id}", protected(commentHandler.Delete)).Methods("DELETE")
	apiRouter.Handle("/comments/{comment_id}/like", protected(commentHandler.Like)).Methods("POST")

	logMiddleware := middleware.NewLoggingMiddleware(d.Logger)
	r.Use(logMiddleware.SetupTracing)
	r.Use(logMiddleware.SetupLogging)
	r.Use(logMiddleware.AccessLog)
	r.Use(logMiddleware.Recover)
	r.Use(middleware.JSON)

	auth := middleware.NewAuthMiddleware(d.Sessions, d.Users)
	r.Use(auth.Middleware)

	return r
}
