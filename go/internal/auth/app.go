package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAuthFailed         = errors.New("authentication failed")
)

const (
	DefaultSessionTTL = 24 * time.Hour
	TokenPrefix       = "nexora_token_"
)

// Config holds auth settings
type Config struct {
	SessionTTL time.Duration
	BcryptCost int
}

// Emitter defines what the app needs to publish domain events
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload any)
}

// App handles login, registration and the stored session
type App struct {
	repo    *state.Repository
	creds   CredentialProvider
	emitter Emitter
	clock   clockwork.Clock
	config  Config
}

// NewApp creates a new auth App. creds defaults to the demo accounts; emitter may be nil.
func NewApp(repo *state.Repository, creds CredentialProvider, emitter Emitter, clock clockwork.Clock, config Config) *App {
	if creds == nil {
		creds = NewDemoCredentials()
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &App{
		repo:    repo,
		creds:   creds,
		emitter: emitter,
		clock:   clock,
		config:  config,
	}
}

// general wraps sentinel with a form-level message shown above the fields.
func general(sentinel error, msg string) error {
	return fmt.Errorf("%w: %w", sentinel, validation.Errors{"general": msg})
}

// Login checks the credentials against the built-in accounts and then the
// registered ones and starts a session.
func (a *App) Login(ctx context.Context, req LoginRequest) (Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validateLogin(req); err != nil {
		return Session{}, err
	}

	user, ok := a.authenticate(ctx, req)
	if !ok {
		log.Info().Str("email", req.Email).Msg("login rejected")
		return Session{}, general(ErrInvalidCredentials, "Invalid credentials. Try: "+a.creds.Hint())
	}

	s, err := a.startSession(ctx, user)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("login failed")
		return Session{}, general(ErrAuthFailed, "Login failed. Please try again.")
	}
	a.emit(ctx, events.TypeUserLoggedIn, user)
	return s, nil
}

func (a *App) authenticate(ctx context.Context, req LoginRequest) (models.User, bool) {
	if c, ok := a.creds.Lookup(req.Email); ok {
		if bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(req.Password)) != nil {
			return models.User{}, false
		}
		return models.User{
			ID:       uuid.NewString(),
			Email:    c.Email,
			Name:     strings.SplitN(c.Email, "@", 2)[0],
			UserType: c.UserType,
			JoinDate: a.clock.Now(),
		}, true
	}

	for _, u := range a.repo.RegisteredUsers(ctx) {
		if !strings.EqualFold(u.Email, req.Email) {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			return models.User{}, false
		}
		user := u.User
		user.IsNewUser = false
		return user, true
	}
	return models.User{}, false
}

// UsernameAvailable reports whether username can be registered. Names shorter than
// three characters are never available.
func (a *App) UsernameAvailable(ctx context.Context, username string) bool {
	if len(username) < 3 {
		return false
	}
	return !a.usernameTaken(ctx, username)
}

func (a *App) usernameTaken(ctx context.Context, username string) bool {
	if reserved(username) {
		return true
	}
	for _, u := range a.repo.RegisteredUsers(ctx) {
		if strings.EqualFold(u.Username, username) {
			return true
		}
	}
	return false
}

func (a *App) emailTaken(ctx context.Context, email string) bool {
	if _, ok := a.creds.Lookup(email); ok {
		return true
	}
	for _, u := range a.repo.RegisteredUsers(ctx) {
		if strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// Register validates the form, stores the account and starts a session for it.
func (a *App) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRegister(req, func(name string) bool { return a.usernameTaken(ctx, name) }); err != nil {
		return Session{}, err
	}
	if a.emailTaken(ctx, req.Email) {
		return Session{}, fmt.Errorf("%w: %w", ErrEmailTaken, validation.Errors{"email": "An account with this email already exists"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.config.BcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		return Session{}, general(ErrAuthFailed, "Registration failed. Please try again.")
	}

	user := models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Username,
		UserType:  req.UserType,
		JoinDate:  a.clock.Now(),
		IsNewUser: true,
	}
	if _, err := a.repo.UpdateRegisteredUsers(ctx, func(users *[]models.RegisteredUser) error {
		*users = append(*users, models.RegisteredUser{User: user, PasswordHash: string(hash)})
		return nil
	}); err != nil {
		log.Error().Err(err).Msg("failed to store registered user")
		return Session{}, general(ErrAuthFailed, "Registration failed. Please try again.")
	}

	s, err := a.startSession(ctx, user)
	if err != nil {
		log.Error().Err(err).Msg("failed to start session after registration")
		return Session{}, general(ErrAuthFailed, "Registration failed. Please try again.")
	}
	log.Info().Str("username", user.Username).Str("user_type", string(user.UserType)).Msg("user registered")
	a.emit(ctx, events.TypeUserRegistered, user)
	return s, nil
}

func (a *App) startSession(ctx context.Context, user models.User) (Session, error) {
	now := a.clock.Now()
	token := TokenPrefix + uuid.NewString()
	session := models.AuthSession{
		User:      user,
		ExpiresAt: now.Add(a.config.SessionTTL),
		LoginTime: now,
	}
	if err := a.repo.SaveAuthToken(ctx, token); err != nil {
		return Session{}, err
	}
	if err := a.repo.SaveAuthSession(ctx, session); err != nil {
		if clearErr := a.repo.Clear(ctx, state.KeyAuthToken); clearErr != nil {
			return Session{}, errors.Join(err, clearErr)
		}
		return Session{}, err
	}
	log.Info().Str("email", user.Email).Time("expires_at", session.ExpiresAt).Msg("session started")
	return Session{Token: token, User: user, ExpiresAt: session.ExpiresAt}, nil
}

// Authenticated returns the stored session when a token and an unexpired session
// both exist. An expired session is cleared.
func (a *App) Authenticated(ctx context.Context) (*models.AuthSession, error) {
	token := a.repo.AuthToken(ctx)
	session := a.repo.AuthSession(ctx)
	if token == "" || session == nil {
		return nil, ErrNotAuthenticated
	}
	if !session.Valid(a.clock.Now()) {
		if err := a.repo.Clear(ctx, state.KeyAuthToken, state.KeyAuthSession); err != nil {
			log.Warn().Err(err).Msg("failed to clear expired session")
		}
		log.Info().Str("email", session.Email).Msg("session expired")
		return nil, ErrSessionExpired
	}
	return session, nil
}

// ValidateToken returns the session if token is the stored token.
func (a *App) ValidateToken(ctx context.Context, token string) (*models.AuthSession, error) {
	session, err := a.Authenticated(ctx)
	if err != nil {
		return nil, err
	}
	stored := a.repo.AuthToken(ctx)
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return nil, ErrNotAuthenticated
	}
	return session, nil
}

// Logout clears the token, the session and the user preferences.
func (a *App) Logout(ctx context.Context) error {
	session := a.repo.AuthSession(ctx)
	if err := a.repo.Clear(ctx, state.KeyAuthToken, state.KeyAuthSession, state.KeyUserPreferences); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	if session != nil {
		log.Info().Str("email", session.Email).Msg("logged out")
		a.emit(ctx, events.TypeUserLoggedOut, session.User)
	}
	return nil
}

func (a *App) emit(ctx context.Context, eventType string, user models.User) {
	if a.emitter == nil {
		return
	}
	a.emitter.Emit(ctx, eventType, events.AuthPayload{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: string(user.UserType),
		At:       a.clock.Now(),
	})
}
