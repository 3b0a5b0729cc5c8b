//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	stdErrors "errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"ephemeral-chat/auth"
	"ephemeral-chat/domain"
	"ephemeral-chat/errors"
	"ephemeral-chat/infrastructure/storage"
	"github.com/google/uuid"
)

const displayNameAttempts = 5

var (
	adjectives = []string{"Silent", "Shadow", "Mystic", "Phantom", "Ghost", "Cipher", "Enigma", "Anonymous", "Hidden", "Stealth"}
	nouns      = []string{"Wolf", "Raven", "Fox", "Owl", "Hawk", "Panther", "Tiger", "Eagle", "Bear", "Lion"}
)

type TokenIssuer interface {
	Generate(userID string) (string, error)
}

type IAuthService interface {
	Register(email, password string) (AuthResult, error)
	Login(email, password string) (AuthResult, error)
	Me(userID string) (domain.PublicProfile, error)
}

type AuthResult struct {
	Token string               `json:"token"`
	User  domain.PublicProfile `json:"user"`
}

type AuthService struct {
	userRepository storage.IUserRepository
	tokens         TokenIssuer
	log            *slog.Logger
	now            func() time.Time
	randomName     func() string
}

func NewAuthService(repo storage.IUserRepository, tokens TokenIssuer, log *slog.Logger) *AuthService {
	return &AuthService{
		userRepository: repo,
		tokens:         tokens,
		log:            log,
		now:            time.Now,
		randomName:     AnonymousName,
	}
}

// AnonymousName builds a display name such as "SilentWolf4821".
func AnonymousName() string {
	return fmt.Sprintf("%s%s%d",
		adjectives[rand.IntN(len(adjectives))],
		nouns[rand.IntN(len(nouns))],
		rand.IntN(9999))
}

// Register creates an account with a generated anonymous display name.
// A name collision retries with another name, an email collision fails.
func (s *AuthService) Register(email, password string) (AuthResult, error) {
	email = auth.NormalizeEmail(email)
	// Validated before any expensive cryptographic operation
	if err := auth.ValidateRegister(auth.RegisterRequest{Email: email, Password: password}); err != nil {
		return AuthResult{}, err
	}

	// Hashed in the service layer to keep the repository unaware of plain passwords
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    s.now().UTC(),
	}
	for attempt := 1; ; attempt++ {
		user.DisplayName = s.randomName()
		if err = auth.ValidateDisplayName(user.DisplayName); err != nil {
			return AuthResult{}, err
		}
		err = s.userRepository.CreateUser(user)
		if !stdErrors.Is(err, errors.ErrDisplayNameTaken) || attempt == displayNameAttempts {
			break
		}
		s.log.Debug("Display name already taken, drawing another one", "attempt", attempt)
	}
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info("User registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) Login(email, password string) (AuthResult, error) {
	email = auth.NormalizeEmail(email)
	if err := auth.ValidateLogin(auth.LoginRequest{Email: email, Password: password}); err != nil {
		return AuthResult{}, err
	}

	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		if stdErrors.Is(err, errors.ErrUserNotFound) {
			// Generic error to prevent user enumeration attacks
			return AuthResult{}, errors.ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return AuthResult{}, errors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(userID string) (domain.PublicProfile, error) {
	user, err := s.userRepository.GetUserByID(userID)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	return user.Profile(), nil
}

func (s *AuthService) issue(user domain.User) (AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user.Profile()}, nil
}
