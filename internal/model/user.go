// Package model はドメインモデルを定義する。
package model

import "time"

// User はGoogleアカウントでログインしたユーザーを表す。
// GoogleIDはプロバイダー発行の識別子で、ストア上で一意。
// AccessTokenはログインのたびに上書きされる。
type User struct {
	ID          string
	GoogleID    string
	DisplayName string
	AccessToken string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session はブラウザとユーザーを結び付けるサーバー側セッションを表す。
// UserIDは弱参照であり、参照先のユーザーが存在しない場合もある。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
