package api

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"blog/pkg/common"
	"blog/pkg/logger"
	"blog/pkg/sessions"
	"blog/pkg/user"
)

//go:generate mockgen -source=handlers.go -destination=mock_api.go -package=api

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
)

var errBadCredentials = common.NewPublicError(common.ErrUnauthorized, "invalid email or password")

type (
	UserRepo interface {
		Exists(ctx context.Context, username, email string) (bool, error)
		GetByEmail(ctx context.Context, email string) (*user.User, error)
		Add(ctx context.Context, u *user.User) (string, error)
		UpdateProfile(ctx context.Context, uid string, upd user.ProfileUpdate) (*user.User, error)
	}

	SessionManager interface {
		CreateToken(*user.User) (string, error)
	}

	SummaryInvalidator interface {
		Invalidate(ctx context.Context, id string)
	}

	UserHandler struct {
		Repo           UserRepo
		SessionManager SessionManager
		Summaries      SummaryInvalidator
		DefaultAvatar  string
	}

	RegisterForm struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginForm struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	AuthResponse struct {
		Token string     `json:"token"`
		User  *user.User `json:"user"`
	}
)

func NewUserHandler(r UserRepo, sm SessionManager, summaries SummaryInvalidator, defaultAvatar string) *UserHandler {
	return &UserHandler{
		Repo:           r,
		SessionManager: sm,
		Summaries:      summaries,
		DefaultAvatar:  defaultAvatar,
	}
}

func (f *RegisterForm) Validate() error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))

	if err := validateUsername(f.Username); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(f.Email); err != nil || !strings.Contains(f.Email, "@") {
		return common.Validationf("email %q is not valid", f.Email)
	}
	if utf8.RuneCountInString(f.Password) < MinPasswordLength {
		return common.Validationf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return common.Validationf("username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

func (uh *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	form := new(RegisterForm)
	if err := common.ParseReqBody(r.Body, form); err != nil {
		common.WriteError(r.Context(), w, common.Validationf("bad request format: %v", err), "bad request format")
		return
	}
	if err := form.Validate(); err != nil {
		common.WriteError(r.Context(), w, err, "invalid registration data")
		return
	}

	exists, err := uh.Repo.Exists(r.Context(), form.Username, form.Email)
	if err != nil {
		common.WriteError(r.Context(), w, err, "can't check user")
		return
	}
	if exists {
		common.WriteError(r.Context(), w,
			common.NewPublicError(common.ErrConflict, "user with this username or email already exists"), "user exists")
		return
	}

	hash, err := common.HashPass(form.Password)
	if err != nil {
		common.WriteError(r.Context(), w, err, "can't hash password")
		return
	}
	u := &user.User{
		Username: form.Username,
		Email:    form.Email,
		Password: hash,
		Avatar:   uh.DefaultAvatar,
		// Id and Created are set by the store
	}
	id, err := uh.Repo.Add(r.Context(), u)
	if errors.Is(err, common.ErrConflict) {
		common.WriteError(r.Context(), w,
			common.NewPublicError(common.ErrConflict, "user with this username or email already exists"), "user exists")
		return
	}
	if err != nil {
		common.WriteError(r.Context(), w, err, "can't add user")
		return
	}
	u.Id = id
	logger.Log(r.Context()).Infow("user registered", "userId", u.Id, "username", u.Username)

	uh.sendToken(r.Context(), w, u, http.StatusCreated)
}

func (uh *UserHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	form := new(LoginForm)
	if err := common.ParseReqBody(r.Body, form); err != nil {
		common.WriteError(r.Context(), w, common.Validationf("bad request format: %v", err), "bad request format")
		return
	}

	u, err := uh.Repo.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(form.Email)))
	if errors.Is(err, common.ErrNotFound) {
		logger.Log(r.Context()).Infof("login: no user with email %q", form.Email)
		common.WriteError(r.Context(), w, errBadCredentials, "login failed")
		return
	}
	if err != nil {
		common.WriteError(r.Context(), w, err, "can't get user")
		return
	}
	if !common.CheckPass(u.Password, form.Password) {
		logger.Log(r.Context()).Infof("login: wrong password for user %s", u.Id)
		common.WriteError(r.Context(), w, errBadCredentials, "login failed")
		return
	}

	uh.sendToken(r.Context(), w, u, http.StatusOK)
}

func (uh *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteError(r.Context(), w, err, "not authorized")
		return
	}
	common.WriteRespJSON(w, u)
}

func (uh *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := sessions.GetAuthUser(r.Context())
	if err != nil {
		common.WriteError(r.Context(), w, err, "not authorized")
		return
	}

	upd := user.ProfileUpdate{}
	if err := common.ParseReqBody(r.Body, &upd); err != nil {
		common.WriteError(r.Context(), w, common.Validationf("bad request format: %v", err), "bad request format")
		return
	}
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if err := validateUsername(name); err != nil {
			common.WriteError(r.Context(), w, err, "invalid username")
			return
		}
		upd.Username = &name
	}
	if upd.Avatar != nil && strings.TrimSpace(*upd.Avatar) == "" {
		upd.Avatar = &uh.DefaultAvatar
	}

	u, err := uh.Repo.UpdateProfile(r.Context(), actor.Id, upd)
	if errors.Is(err, common.ErrConflict) {
		common.WriteError(r.Context(), w, common.NewPublicError(common.ErrConflict, "username is taken"), "profile update failed")
		return
	}
	if err != nil {
		common.WriteError(r.Context(), w, err, "can't update profile")
		return
	}
	uh.Summaries.Invalidate(r.Context(), u.Id)

	common.WriteRespJSON(w, u)
}

func (uh *UserHandler) sendToken(ctx context.Context, w http.ResponseWriter, u *user.User, code int) {
	token, err := uh.SessionManager.CreateToken(u)
	if err != nil {
		common.WriteError(ctx, w, err, "user authentication failed")
		return
	}

	w.WriteHeader(code)
	common.WriteRespJSON(w, AuthResponse{Token: token, User: u})
}
