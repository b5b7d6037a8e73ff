// Package auth はOAuth認可コードフロー、ユーザーのupsert、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/gadash/internal/model"
	"github.com/hitoshi/gadash/internal/repository"
)

// ErrConsentDenied はプロバイダーからユーザーが解決されなかったことを示す。
// 同意拒否の場合に返り、呼び出し元は未認証状態に戻す。
var ErrConsentDenied = errors.New("no user resolved from provider")

// OAuthUserInfo はOAuthプロバイダーから取得したプロフィールとアクセストークン。
// リフレッシュトークンはユーザーレコードに保存しないため保持しない。
type OAuthUserInfo struct {
	ProviderUserID string
	DisplayName    string
	AccessToken    string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL は同意画面へのURLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロフィールを取得する。
	// ユーザーを解決できなかった場合はnil, nilを返す。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

// GetLoginURL は同意画面へのURLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 成功時はユーザーを1回だけupsertしてからセッションを作成する。
// ユーザーが解決されなかった場合はErrConsentDeniedを返し、ストアには書き込まない。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	// 1. 認可コードをトークンに交換し、プロフィールを取得
	info, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}
	if info == nil {
		return nil, ErrConsentDenied
	}

	// 2. google_idをキーにユーザーをupsert（既存ならアクセストークンのみ上書き）
	now := s.now()
	user, created, err := s.userRepo.Upsert(ctx, &model.User{
		ID:          uuid.New().String(),
		GoogleID:    info.ProviderUserID,
		DisplayName: info.DisplayName,
		AccessToken: info.AccessToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	if created {
		slog.Info("new user created",
			slog.String("user_id", user.ID),
			slog.String("google_id", user.GoogleID),
		)
	} else {
		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
			slog.String("google_id", user.GoogleID),
		)
	}

	// 3. セッションを発行
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}

	return session, nil
}

// ResolveUser はセッションIDからユーザーを解決する。
// セッションが無効・期限切れ、または参照先ユーザーが存在しない場合はnil, nilを返す。
// 解決できた場合はセッションの有効期限を延長する。
func (s *Service) ResolveUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	// 延長の失敗は認証結果に影響させない
	if err := s.sessionRepo.Touch(ctx, session.ID, s.expiresAt()); err != nil {
		slog.Warn("failed to extend session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: s.expiresAt(),
		CreatedAt: s.now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) expiresAt() time.Time {
	return s.now().Add(time.Duration(s.config.SessionMaxAge) * time.Second)
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
