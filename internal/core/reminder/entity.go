package reminder

import "time"

// Reminder は試用期間の終了が近いことの通知です。
type Reminder struct {
	ID         string
	EmployeeID string
	Recipient  string
	DueOn      time.Time
	Message    string
	CreatedAt  time.Time
}
