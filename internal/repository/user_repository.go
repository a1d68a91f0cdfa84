package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (model.User, error)
	//最終ログインの更新など
	Update(ctx context.Context, user *model.User) error
	//キャンセル回数を＋１（注文キャンセルと同じトランザクション内で呼ぶ）
	IncrementCanceledOrders(ctx context.Context, userID int64) error
}
