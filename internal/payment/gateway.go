package payment

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

var ErrDeclined = errors.New("payment declined")

type Method string

const (
	MethodGooglePay Method = "googlepay"
	MethodPhonePe   Method = "phonepe"
)

func ParseMethod(s string) (Method, bool) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodGooglePay, MethodPhonePe:
		return m, true
	}
	return "", false
}

func (m Method) Label() string {
	switch m {
	case MethodGooglePay:
		return "Google Pay"
	case MethodPhonePe:
		return "PhonePe"
	}
	return string(m)
}

type Charge struct {
	Amount      decimal.Decimal
	Method      Method
	Description string
}

type Record struct {
	OrderID       string          `json:"order_id"`
	TransactionID string          `json:"transaction_id"`
	Status        Status          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Method        Method          `json:"method"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Gateway takes an advance payment. Begin opens the payment and returns a
// PENDING record; Await blocks until the payment settles.
type Gateway interface {
	Begin(ctx context.Context, charge Charge) (*Record, error)
	Await(ctx context.Context, rec *Record) (*Record, error)
}

// NewOrderID returns ORD- followed by eight upper-case base36 characters.
func NewOrderID() string {
	u := uuid.New()
	s := strings.ToUpper(new(big.Int).SetBytes(u[:8]).Text(36))
	for len(s) < 8 {
		s = "0" + s
	}
	return "ORD-" + s[len(s)-8:]
}

// NewTransactionID returns TXN followed by twelve digits.
func NewTransactionID() string {
	u := uuid.New()
	n := new(big.Int).SetBytes(u[8:])
	n.Mod(n, big.NewInt(1_000_000_000_000))
	return fmt.Sprintf("TXN%012d", n.Int64())
}
