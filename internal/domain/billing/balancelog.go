package billing

import "time"

// LogType discriminates ledger postings.
type LogType string

const (
	LogDebit  LogType = "debit"
	LogCredit LogType = "credit"
)

// BalanceLog is one ledger posting. A billed window produces two of
// these, a debit against the forward owner and a credit to the agent
// owner; they are separate postings, not a transfer.
type BalanceLog struct {
	id        uint
	userID    uint
	logType   LogType
	amount    float64
	balance   float64
	memo      string
	metadata  map[string]any
	createdAt time.Time
}

func NewBalanceLog(userID uint, logType LogType, amount, balance float64, memo string, metadata map[string]any) *BalanceLog {
	return &BalanceLog{
		userID:    userID,
		logType:   logType,
		amount:    amount,
		balance:   balance,
		memo:      memo,
		metadata:  metadata,
		createdAt: time.Now(),
	}
}

func ReconstructBalanceLog(id, userID uint, logType LogType, amount, balance float64, memo string, metadata map[string]any, createdAt time.Time) *BalanceLog {
	return &BalanceLog{
		id:        id,
		userID:    userID,
		logType:   logType,
		amount:    amount,
		balance:   balance,
		memo:      memo,
		metadata:  metadata,
		createdAt: createdAt,
	}
}

func (l *BalanceLog) ID() uint                 { return l.id }
func (l *BalanceLog) UserID() uint             { return l.userID }
func (l *BalanceLog) Type() LogType            { return l.logType }
func (l *BalanceLog) Amount() float64          { return l.amount }
func (l *BalanceLog) Balance() float64         { return l.balance }
func (l *BalanceLog) Memo() string             { return l.memo }
func (l *BalanceLog) Metadata() map[string]any { return l.metadata }
func (l *BalanceLog) CreatedAt() time.Time     { return l.createdAt }

func (l *BalanceLog) SetID(id uint) { l.id = id }
