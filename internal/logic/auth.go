package logic

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/thinkly/thinkly-api/internal/models"
)

// AuthConfig configures token issuing and password handling.
type AuthConfig struct {
	JWTSecret        []byte
	Issuer           string
	AccessTokenTTL   time.Duration
	PasswordResetTTL time.Duration
	FrontendURL      string
	BcryptCost       int
}

// Claims are the JWT claims of an access token.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"admin"`
	jwt.RegisteredClaims
}

type authService struct {
	pg     PgPool
	tokens TokenStore
	mailer Mailer
	cfg    AuthConfig
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewAuthService(pg PgPool, tokens TokenStore, mailer Mailer, cfg AuthConfig, logger *zap.SugaredLogger) AuthService {
	if cfg.Issuer == "" {
		cfg.Issuer = "thinkly"
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 24 * time.Hour
	}
	if cfg.PasswordResetTTL <= 0 {
		cfg.PasswordResetTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{pg: pg, tokens: tokens, mailer: mailer, cfg: cfg, logger: logger, now: time.Now}
}

const userColumns = `id, username, email, is_admin, email_notifications, created_at`

func scanUser(row pgx.Row, extra ...any) (*models.User, error) {
	var u models.User
	dest := append([]any{&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.EmailNotifications, &u.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates an account and signs the new user in.
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := scanUser(s.pg.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		strings.TrimSpace(req.Username), normalizeEmail(req.Email), string(hash)))
	if err != nil {
		return nil, translatePgError(err, "account")
	}

	if err := s.mailer.Send(ctx, welcomeEmail(user, s.cfg.FrontendURL)); err != nil {
		s.logger.Warnw("Failed to send welcome email", "user_id", user.ID, "error", err)
	}

	return s.issueToken(user)
}

// Login checks credentials. Username and email are both accepted.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var hash string
	user, err := scanUser(s.pg.QueryRow(ctx, `
		SELECT `+userColumns+`, password_hash
		FROM users
		WHERE lower(username) = lower($1) OR email = $2`,
		strings.TrimSpace(req.Identifier), normalizeEmail(req.Identifier)), &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return nil, ErrUnauthorized("invalid credentials")
	}
	return s.issueToken(user)
}

func (s *authService) issueToken(user *models.User) (*models.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTokenTTL)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := tok.SignedString(s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        *user,
	}, nil
}

// ParseToken validates an access token and rejects revoked ones. IsAdmin is
// reloaded from the account, and tokens of deleted accounts are rejected.
func (s *authService) ParseToken(ctx context.Context, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.cfg.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized("invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrUnauthorized("invalid token claims")
	}

	_, err = s.tokens.Get(ctx, revokedKey(claims.ID))
	switch {
	case err == nil:
		return nil, ErrUnauthorized("token revoked")
	case !errors.Is(err, ErrTokenNotFound):
		return nil, fmt.Errorf("check token revocation: %w", err)
	}

	// The admin claim only reflects the role at login; the account row wins.
	var isAdmin bool
	err = s.pg.QueryRow(ctx, `SELECT is_admin FROM users WHERE id = $1`, claims.UserID).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnauthorized("account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("load account role: %w", err)
	}
	claims.IsAdmin = isAdmin
	return claims, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.tokens.Put(ctx, revokedKey(claims.ID), strconv.FormatInt(claims.UserID, 10), ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(s.pg.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translatePgError(err, "user")
	}
	return user, nil
}

// RequestPasswordReset emails a reset link. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := scanUser(s.pg.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, normalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Infow("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.tokens.Put(ctx, resetKey(token), strconv.FormatInt(user.ID, 10), s.cfg.PasswordResetTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.cfg.FrontendURL + "/reset-password?token=" + token
	return s.mailer.Send(ctx, passwordResetEmail(user, link, s.cfg.PasswordResetTTL))
}

// ResetPassword consumes a reset token and sets a new password.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	val, err := s.tokens.Get(ctx, resetKey(token))
	if errors.Is(err, ErrTokenNotFound) {
		return ErrValidation("invalid or expired reset token")
	}
	if err != nil {
		return fmt.Errorf("load reset token: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return fmt.Errorf("corrupt reset token value %q: %w", val, err)
	}

	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	if err := s.tokens.Expire(ctx, resetKey(token)); err != nil {
		s.logger.Warnw("Failed to expire reset token", "user_id", userID, "error", err)
	}
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	var hash string
	if err := s.pg.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, userID).Scan(&hash); err != nil {
		return translatePgError(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(current)) != nil {
		return ErrUnauthorized("current password is incorrect")
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *authService) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	tag, err := s.pg.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound("user not found")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashToken creates a SHA256 hash of a token for secure storage lookup
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func revokedKey(jti string) string  { return "revoked:" + jti }
func resetKey(token string) string { return "reset:" + hashToken(token) }
