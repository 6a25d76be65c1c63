package billing

import "time"

// Wallet is a user's balance account. Consumption debits and relay income
// credits both land here; the balance never goes below zero.
type Wallet struct {
	id        uint
	userID    uint
	balance   float64
	updatedAt time.Time
}

func NewWallet(userID uint) *Wallet {
	return &Wallet{userID: userID, updatedAt: time.Now()}
}

func ReconstructWallet(id, userID uint, balance float64, updatedAt time.Time) *Wallet {
	return &Wallet{
		id:        id,
		userID:    userID,
		balance:   balance,
		updatedAt: updatedAt,
	}
}

func (w *Wallet) ID() uint             { return w.id }
func (w *Wallet) UserID() uint         { return w.userID }
func (w *Wallet) Balance() float64     { return w.balance }
func (w *Wallet) UpdatedAt() time.Time { return w.updatedAt }

// SetID sets the id after persistence.
func (w *Wallet) SetID(id uint) { w.id = id }

// Debit subtracts amount from the balance. The balance floor is zero:
// a debit that would overdraw fails without mutating the wallet.
func (w *Wallet) Debit(amount float64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if w.balance < amount {
		return ErrInsufficientBalance
	}
	w.balance -= amount
	w.updatedAt = time.Now()
	return nil
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount float64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	w.balance += amount
	w.updatedAt = time.Now()
	return nil
}
