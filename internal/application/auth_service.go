package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/communify/communify-backend/internal/domain/entity"
	repo "github.com/communify/communify-backend/internal/domain/repository"
	"github.com/communify/communify-backend/pkg/helpers"
	"github.com/communify/communify-backend/pkg/mailer"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the two are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountInactive    = errors.New("inactive account")
	ErrDuplicateEmail     = errors.New("an account with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	// ErrPasscodeRequired means the current parental passcode was missing
	// or did not match when proof of it was required.
	ErrPasscodeRequired = errors.New("current parental passcode required")
	// ErrPasscodeNotSet is returned when removing a passcode that was
	// never set.
	ErrPasscodeNotSet = errors.New("no parental passcode is set")
)

// Service orchestrates registration, login, and parental-passcode flows
// over the injected hasher, token service, and account repository.
// ES and Pub are optional; when nil the related side effects are skipped.
type Service struct {
	Repo         repo.UserRepository
	Tokens       *helpers.TokenService
	Hasher       *helpers.PasswordHasher
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	Pub          *helpers.RabbitPublisher
	MailEnabled  bool
}

func NewService(r repo.UserRepository, tokens *helpers.TokenService, hasher *helpers.PasswordHasher, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string, pub *helpers.RabbitPublisher, mailEnabled bool) *Service {
	return &Service{
		Repo:         r,
		Tokens:       tokens,
		Hasher:       hasher,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		Pub:          pub,
		MailEnabled:  mailEnabled,
	}
}

// Register creates a new member account. The status invariant is applied
// inside entity.NewUser before the first persist.
func (s *Service) Register(ctx context.Context, email, password, name string) (*entity.User, error) {
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := entity.NewUser(email, name, hash)
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.indexUser(ctx, u)
	s.enqueueWelcomeEmail(ctx, u)
	return u, nil
}

// Login authenticates by email and password and issues a bearer token.
// Unknown email and wrong password collapse into ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}

	ok, err := s.Hasher.Verify(password, u.PasswordHash)
	if err != nil {
		// Corrupt stored hash: internal failure, never "wrong password".
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("credential hash verification failed")
		}
		return "", time.Time{}, fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}

	u.ReconcileStatus()
	if !u.IsActive {
		return "", time.Time{}, ErrAccountInactive
	}

	token, exp, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// GetProfile loads an account by id.
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// VerifyParentalPasscode checks the supplied passcode against the stored
// hash without mutating anything. An unset passcode never matches.
func (s *Service) VerifyParentalPasscode(ctx context.Context, userID, passcode string) (bool, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	if !u.HasParentalPasscode() {
		return false, nil
	}
	return s.Hasher.Verify(passcode, u.ParentalPasscodeHash)
}

// SetParentalPasscode sets a new passcode. If one is already set, the
// current passcode must be proven first; if none is set the change is
// unconditional.
func (s *Service) SetParentalPasscode(ctx context.Context, userID, current, newPasscode string) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if u.HasParentalPasscode() {
		ok, err := s.Hasher.Verify(current, u.ParentalPasscodeHash)
		if err != nil {
			return fmt.Errorf("verify current passcode: %w", err)
		}
		if !ok {
			return ErrPasscodeRequired
		}
	}

	hash, err := s.Hasher.Hash(newPasscode)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}
	u.ParentalPasscodeHash = hash
	u.ReconcileStatus()
	return s.Repo.Update(ctx, u)
}

// RemoveParentalPasscode clears the passcode after proving the current
// one. Removing an unset passcode is an error.
func (s *Service) RemoveParentalPasscode(ctx context.Context, userID, current string) error {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !u.HasParentalPasscode() {
		return ErrPasscodeNotSet
	}
	ok, err := s.Hasher.Verify(current, u.ParentalPasscodeHash)
	if err != nil {
		return fmt.Errorf("verify current passcode: %w", err)
	}
	if !ok {
		return ErrPasscodeRequired
	}

	u.ParentalPasscodeHash = ""
	u.ReconcileStatus()
	return s.Repo.Update(ctx, u)
}

// CreateAdmin lets an administrator create another administrator
// account. The row is inserted with the admin role in one step; a
// half-promoted member must never exist. Admin accounts get no welcome
// email.
func (s *Service) CreateAdmin(ctx context.Context, email, password, name string) (*entity.User, error) {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := entity.NewUser(email, name, hash)
	u.Role = entity.RoleAdmin
	u.ReconcileStatus()
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	s.indexUser(ctx, u)
	return u, nil
}

// SetUserActive toggles the is_active flag on an account and reconciles
// the lifecycle status before persisting.
func (s *Service) SetUserActive(ctx context.Context, userID string, active bool) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.IsActive = active
	u.ReconcileStatus()
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.indexUser(ctx, u)
	return u, nil
}

// ListUsers returns a page of accounts.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) enqueueWelcomeEmail(ctx context.Context, u *entity.User) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: "welcome",
		Data:     map[string]any{"Name": u.Name},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email enqueue failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"is_active":  u.IsActive,
		"status":     u.Status,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchUsers performs a multi_match search on email and name via
// Elasticsearch. Without a configured client it returns an empty result.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
