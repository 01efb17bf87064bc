// Package payment simulates the card processor used at checkout.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultApprovalPercent is the share of charges the simulator approves.
const DefaultApprovalPercent = 70

var ErrInvalidAmount = errors.New("charge amount must be positive")

type ChargeRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
}

type ChargeResult struct {
	Approved      bool
	TransactionID string
	DeclineReason string
}

// Gateway charges a customer. A decline is a result, not an error.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Roller yields a uniform value in [0, 100).
type Roller interface {
	Roll() int
}

type RandomRoller struct{}

func (RandomRoller) Roll() int {
	return rand.Intn(100)
}

var declineReasons = []string{
	"insufficient funds",
	"card expired",
	"do not honor",
	"suspected fraud",
	"limit exceeded",
}

// decide approves rolls below approvalPercent. Declines pick a reason from
// the remainder of the roll.
func decide(roll, approvalPercent int) (bool, string) {
	if roll < approvalPercent {
		return true, ""
	}
	return false, declineReasons[(roll-approvalPercent)%len(declineReasons)]
}

type Simulator struct {
	roller          Roller
	approvalPercent int
}

func NewSimulator(roller Roller, approvalPercent int) *Simulator {
	if roller == nil {
		roller = RandomRoller{}
	}
	return &Simulator{roller: roller, approvalPercent: approvalPercent}
}

func (s *Simulator) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, req.Amount)
	}

	approved, reason := decide(s.roller.Roll(), s.approvalPercent)
	res := &ChargeResult{Approved: approved, DeclineReason: reason}
	if approved {
		res.TransactionID = fmt.Sprintf("TXN-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
	}
	return res, nil
}
