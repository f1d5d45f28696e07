package domain

import (
	"errors"
	"strings"
	"time"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "Pending"
	ProposalAccepted ProposalStatus = "Accepted"
	ProposalRejected ProposalStatus = "Rejected"
)

var (
	ErrInvalidProposal   = errors.New("proposal must have at least one named item and a positive total")
	ErrInvalidTransition = errors.New("proposal is no longer pending")
)

type ProposalItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// TransactionProposal is a structured purchase offer embedded in exactly
// one message. TotalCents is computed from the items at creation time and
// never taken from caller input.
type TransactionProposal struct {
	ID         uint           `json:"id"`
	MessageID  uint           `json:"message_id"`
	Items      []ProposalItem `json:"items"`
	TotalCents int64          `json:"total_cents"`
	Status     ProposalStatus `json:"status"`
	ResolvedBy *uint          `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewProposal filters out items with blank names, validates the rest and
// computes the total. It returns ErrInvalidProposal when no valid items
// remain or the total is not positive.
func NewProposal(items []ProposalItem) (TransactionProposal, error) {
	kept := make([]ProposalItem, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		if item.Quantity < 1 || item.UnitPriceCents < 0 {
			return TransactionProposal{}, ErrInvalidProposal
		}
		kept = append(kept, item)
	}

	var total int64
	for _, item := range kept {
		total += int64(item.Quantity) * item.UnitPriceCents
	}

	if len(kept) == 0 || total <= 0 {
		return TransactionProposal{}, ErrInvalidProposal
	}

	return TransactionProposal{
		Items:      kept,
		TotalCents: total,
		Status:     ProposalPending,
	}, nil
}

// Resolve moves a pending proposal to the given terminal status. Repeating
// the decision already recorded is a no-op; any other transition out of a
// terminal status is ErrInvalidTransition.
func (p *TransactionProposal) Resolve(status ProposalStatus, resolverID uint, at time.Time) error {
	if status != ProposalAccepted && status != ProposalRejected {
		return ErrInvalidTransition
	}
	if p.Status == status {
		return nil
	}
	if p.Status != ProposalPending {
		return ErrInvalidTransition
	}

	p.Status = status
	p.ResolvedBy = &resolverID
	p.ResolvedAt = &at

	return nil
}

// Resolved reports whether the proposal has reached a terminal status.
func (p *TransactionProposal) Resolved() bool {
	return p.Status == ProposalAccepted || p.Status == ProposalRejected
}
