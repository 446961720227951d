package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "blog/pkg/common"
	"blog/pkg/logger"
	"blog/pkg/sessions"
	"blog/pkg/user"
)

const authLookupTimeout = 5 * time.Second

type (
	IUserRepo interface {
		GetById(context.Context, string) (*user.User, error)
	}
	ISessionManager interface {
		UserIdFromToken(string) (string, error)
	}
	Auth struct {
		UserRepo       IUserRepo
		SessionManager ISessionManager
	}
)

func NewAuthMiddleware(sm ISessionManager, ur IUserRepo) *Auth {
	return &Auth{
		UserRepo:       ur,
		SessionManager: sm,
	}
}

// Middleware resolves the bearer token to a user and stores it in the
// request context. Requests without a usable token go on anonymously;
// RequireAuth rejects them where a user is needed.
func (auth *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		userId, err := auth.SessionManager.UserIdFromToken(authHeader)
		if sessions.IsAuthError(err) {
			logger.Log(r.Context()).Infof("auth: rejected token: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			WriteError(r.Context(), w, err, "auth: can't verify the token")
			return
		}

		repoCtx, repoCtxCancel := context.WithTimeout(r.Context(), authLookupTimeout)
		defer repoCtxCancel()
		u, err := auth.UserRepo.GetById(repoCtx, userId)
		if errors.Is(err, ErrNotFound) {
			logger.Log(r.Context()).Infof("auth: token user %s is gone", userId)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			WriteError(r.Context(), w, err, "auth: can't get the user from repo")
			return
		}

		next.ServeHTTP(w, r.WithContext(sessions.WithAuthUser(r.Context(), u)))
	})
}

// RequireAuth answers 401 unless the auth middleware put a user into
// the context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := sessions.GetAuthUser(r.Context()); err != nil {
			WriteError(r.Context(), w, NewPublicError(ErrUnauthorized, "authorization required"), "not authorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
