package repository

import "context"

// 在庫台帳。どちらも呼び出し側のトランザクションと同じ原子単位で実行される前提。
type StockRepository interface {
	// 在庫が足りるときだけ減算する。チェックと減算は1文（条件付きUPDATE）で行い、
	// 別トランザクションから見える2往復にはしない。falseは在庫不足
	// （または商品が存在しない・削除済み）。
	Reserve(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル）。同じ予約に対して二度呼ばないのは呼び出し側の責任。
	Restore(ctx context.Context, productID int64, qty int64) error
}
