// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/gadash/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert はGoogleIDをキーにユーザーを1回の書き込みで作成または更新する。
	// 既存ユーザーの場合はアクセストークンのみを上書きし、表示名は変更しない。
	// 新規作成された場合はcreatedがtrueになる。
	Upsert(ctx context.Context, user *model.User) (saved *model.User, created bool, err error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Touch はセッションの有効期限を延長する。
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
