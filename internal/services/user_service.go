package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiffoh/messaging-app-mongoDB/internal/domain"
	"github.com/kiffoh/messaging-app-mongoDB/internal/models"
	"github.com/kiffoh/messaging-app-mongoDB/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID, username string) (string, time.Time, error)
}

type UserPatch struct {
	Username *string
	Bio      *string
	Photo    *string
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *zap.Logger
	cost   int
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
}

func (s *UserService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalid("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &models.User{Username: username, Password: string(hash)})
	if err != nil {
		return nil, storeErr(err, "username")
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID.Hex()), zap.String("username", u.Username))
	return domain.NewUser(u, nil), nil
}

func (s *UserService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.GenerateAccessToken(u.ID.Hex(), u.Username)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: domain.NewUser(u, nil)}, nil
}

// GetUser returns the profile with contacts embedded.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return s.withContacts(ctx, u)
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, patch UserPatch) (*domain.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	if patch.Username == nil && patch.Bio == nil && patch.Photo == nil {
		return nil, invalid("nothing to update")
	}
	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if name == "" {
			return nil, invalid("username cannot be empty")
		}
		patch.Username = &name
	}

	u, err := s.users.Update(ctx, id, repository.UserUpdate{Username: patch.Username, Bio: patch.Bio, Photo: patch.Photo})
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return s.withContacts(ctx, u)
}

// UpdateContacts replaces the user's contact list. The user's own id and
// repeated ids are dropped; every remaining contact must exist.
func (s *UserService) UpdateContacts(ctx context.Context, userID string, contactIDs []string) (*domain.User, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	ids, err := parseIDs(contactIDs)
	if err != nil {
		return nil, err
	}

	contacts := make([]primitive.ObjectID, 0, len(ids))
	for _, c := range unique(ids) {
		if c != id {
			contacts = append(contacts, c)
		}
	}
	found, err := s.users.GetMany(ctx, contacts)
	if err != nil {
		return nil, storeErr(err, "load contacts")
	}
	if len(found) != len(contacts) {
		return nil, fmt.Errorf("contact %w", ErrNotFound)
	}

	u, err := s.users.SetContacts(ctx, id, contacts)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return domain.NewUser(u, found), nil
}

func (s *UserService) ListUsernames(ctx context.Context) ([]domain.Member, error) {
	users, err := s.users.ListUsernames(ctx)
	if err != nil {
		return nil, storeErr(err, "list users")
	}
	return domain.NewMembers(users), nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	id, err := parseID(userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storeErr(err, "user")
	}
	s.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

func (s *UserService) withContacts(ctx context.Context, u *models.User) (*domain.User, error) {
	contacts, err := s.users.GetMany(ctx, u.Contacts)
	if err != nil {
		return nil, storeErr(err, "load contacts")
	}
	return domain.NewUser(u, contacts), nil
}
