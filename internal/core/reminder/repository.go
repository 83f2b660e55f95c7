package reminder

import "context"

// Repository はリマインダーの永続化を行うインターフェースです。
type Repository interface {
	// Create は同じ社員、宛先、期日の通知がなければ r を保存し、書き込んだかどうかを返します。
	Create(ctx context.Context, r *Reminder) (bool, error)
}
