package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"investgate/internal/audit"
	"investgate/internal/auth/device"
	"investgate/internal/auth/models"
	"investgate/internal/auth/store"
	"investgate/pkg/domain"
	dErrors "investgate/pkg/domain-errors"
	"investgate/pkg/platform/sentinel"
	"investgate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mocks.go -package=mocks

// RevocationList accepts credentials invalidated at logout. Nil disables
// revocation and falls back to expiry-only token lifecycle.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

const defaultTokenLifetime = 24 * time.Hour

// Service implements registration, login, credential refresh, logout, and
// user administration. Every mutation emits an audit event after it
// commits; the recorder never blocks or fails the primary operation.
type Service struct {
	users         store.UserStore
	codec         Issuer
	revocations   RevocationList
	recorder      *audit.Recorder
	logger        *slog.Logger
	tokenLifetime time.Duration
}

// Issuer mints signed credentials. Satisfied by token.Codec.
type Issuer interface {
	Issue(userID domain.UserID, role domain.Role, lifetime time.Duration) (string, error)
}

type Option func(*Service)

func WithRevocationList(list RevocationList) Option {
	return func(s *Service) { s.revocations = list }
}

func WithTokenLifetime(d time.Duration) Option {
	return func(s *Service) { s.tokenLifetime = d }
}

func New(users store.UserStore, codec Issuer, recorder *audit.Recorder, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		users:         users,
		codec:         codec,
		recorder:      recorder,
		logger:        logger,
		tokenLifetime: defaultTokenLifetime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateRegister(req *models.RegisterRequest) error {
	var violations []string
	if !govalidator.StringLength(req.Name, "1", "255") {
		violations = append(violations, "name is required")
	}
	if !govalidator.IsEmail(req.Email) || !govalidator.StringLength(req.Email, "3", "255") {
		violations = append(violations, "a valid email is required")
	}
	if len(req.Password) < 8 {
		violations = append(violations, "password must be at least 8 characters")
	}
	if len(violations) > 0 {
		return dErrors.Validation(violations)
	}
	return nil
}

// Register creates an investor account and issues its first credential.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "request is required")
	}
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           domain.UserID(uuid.New()),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         domain.RoleInvestor,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "Email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	signed, err := s.codec.Issue(user.ID, user.Role, s.tokenLifetime)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
	}

	s.recorder.Record(ctx, audit.Event{
		SubjectID:  user.ID,
		Action:     audit.ActionRegister,
		EntityType: "user",
		EntityID:   user.ID.String(),
		Device:     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	})

	return &models.AuthResult{User: user.View(), Token: signed}, nil
}

// Login verifies the password and issues a fresh credential. The "wrong
// email" and "wrong password" paths share one message; a deactivated
// account is the only distinct outcome. No audit event on failure.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.WarnContext(ctx, "login failed - password mismatch",
			"user_id", user.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")
	}

	if !user.IsActive {
		return nil, dErrors.New(dErrors.CodeForbidden, "Account is deactivated")
	}

	signed, err := s.codec.Issue(user.ID, user.Role, s.tokenLifetime)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
	}

	s.recorder.Record(ctx, audit.Event{
		SubjectID:  user.ID,
		Action:     audit.ActionLogin,
		EntityType: "user",
		EntityID:   user.ID.String(),
		Device:     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	})

	return &models.AuthResult{User: user.View(), Token: signed}, nil
}

// Refresh issues a new credential for the authenticated identity. The old
// credential stays valid until its own expiry; only logout revokes.
func (s *Service) Refresh(ctx context.Context) (*models.AuthResult, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	user, err := s.users.FindByID(ctx, ident.UserID)
	if err != nil {
		// The subject can vanish between the gate's directory read and
		// this lookup; that is an authentication failure, not a server one.
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	signed, err := s.codec.Issue(user.ID, user.Role, s.tokenLifetime)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
	}

	s.recorder.Record(ctx, audit.Event{
		SubjectID:  user.ID,
		Action:     audit.ActionTokenRefreshed,
		EntityType: "user",
		EntityID:   user.ID.String(),
	})

	return &models.AuthResult{User: user.View(), Token: signed}, nil
}

// Logout revokes the presenting credential when a revocation list is
// configured. Without one, logout is client-side only and the credential
// expires naturally. Either way the action is audited.
func (s *Service) Logout(ctx context.Context) error {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}

	if s.revocations != nil {
		// The token lifetime bounds the remaining validity, so the list
		// entry outlives the credential by at most the elapsed time.
		jti := requestcontext.TokenID(ctx)
		if err := s.revocations.Revoke(ctx, jti, s.tokenLifetime); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke credential",
				"error", err,
				"jti", jti,
				"request_id", requestcontext.RequestID(ctx),
			)
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to log out")
		}
	}

	s.recorder.Record(ctx, audit.Event{
		SubjectID:  ident.UserID,
		Action:     audit.ActionLogout,
		EntityType: "user",
		EntityID:   ident.UserID.String(),
	})
	return nil
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context) (*models.View, error) {
	ident, ok := requestcontext.IdentityFrom(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Authentication required")
	}
	user, err := s.users.FindByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	v := user.View()
	return &v, nil
}
