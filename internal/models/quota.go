package models

import (
	"math/big"
	"time"
)

// QuotaLedger trzyma dwa niezależne liczniki zużycia na użytkownika:
// bajty w object storage (upload) i bajty treści edytowanych online.
// Wartości są dziesiętnymi stringami o dowolnej precyzji — nigdy float.
type QuotaLedger struct {
	UserID          string    `json:"user_id"`
	UploadLimit     string    `json:"upload_limit"`
	UploadUsed      string    `json:"upload_used"`
	OnlineEditLimit string    `json:"online_edit_limit"`
	OnlineEditUsed  string    `json:"online_edit_used"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func parseAmount(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return big.NewInt(0)
	}
	return n
}

func increase(used, limit string, amount int64) (string, bool) {
	next := new(big.Int).Add(parseAmount(used), big.NewInt(amount))
	if next.Cmp(parseAmount(limit)) > 0 {
		return used, false
	}
	return next.String(), true
}

func decrease(used string, amount int64) string {
	next := new(big.Int).Sub(parseAmount(used), big.NewInt(amount))
	if next.Sign() < 0 {
		next.SetInt64(0)
	}
	return next.String()
}

func replace(used, limit string, oldAmount, newAmount int64) (string, bool) {
	next := new(big.Int).Sub(parseAmount(used), big.NewInt(oldAmount))
	next.Add(next, big.NewInt(newAmount))
	if next.Cmp(parseAmount(limit)) > 0 {
		return used, false
	}
	if next.Sign() < 0 {
		next.SetInt64(0)
	}
	return next.String(), true
}

// IncreaseUploadUsed dolicza amount do puli uploadu. Zwraca false bez zmiany
// stanu, gdy wynik przekroczyłby limit.
func (q *QuotaLedger) IncreaseUploadUsed(amount int64) bool {
	next, ok := increase(q.UploadUsed, q.UploadLimit, amount)
	if !ok {
		return false
	}
	q.UploadUsed = next
	q.UpdatedAt = time.Now()
	return true
}

// DecreaseUploadUsed odlicza amount, z podłogą na zerze. Nigdy nie zawodzi.
func (q *QuotaLedger) DecreaseUploadUsed(amount int64) {
	q.UploadUsed = decrease(q.UploadUsed, amount)
	q.UpdatedAt = time.Now()
}

func (q *QuotaLedger) IncreaseOnlineEditUsed(amount int64) bool {
	next, ok := increase(q.OnlineEditUsed, q.OnlineEditLimit, amount)
	if !ok {
		return false
	}
	q.OnlineEditUsed = next
	q.UpdatedAt = time.Now()
	return true
}

func (q *QuotaLedger) DecreaseOnlineEditUsed(amount int64) {
	q.OnlineEditUsed = decrease(q.OnlineEditUsed, amount)
	q.UpdatedAt = time.Now()
}

// ReplaceOnlineEditUsed podmienia rozmiar pliku edytowanego w miejscu:
// used - old + new. Zwraca false bez zmiany stanu powyżej limitu.
func (q *QuotaLedger) ReplaceOnlineEditUsed(oldAmount, newAmount int64) bool {
	next, ok := replace(q.OnlineEditUsed, q.OnlineEditLimit, oldAmount, newAmount)
	if !ok {
		return false
	}
	q.OnlineEditUsed = next
	q.UpdatedAt = time.Now()
	return true
}
