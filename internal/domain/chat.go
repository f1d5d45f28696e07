package domain

import "time"

// Chat is a conversation thread between one organization and one vendor.
// There is at most one chat per (organization, vendor) pair.
type Chat struct {
	ID             uint      `json:"id"`
	OrganizationID uint      `json:"organization_id"`
	VendorID       uint      `json:"vendor_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Message is one entry in a chat's append-only sequence. Seq is assigned
// by the store inside the append transaction and orders messages within
// their chat. Exactly one of Text and Proposal carries the payload.
type Message struct {
	ID          uint                 `json:"id"`
	ChatID      uint                 `json:"chat_id"`
	Seq         uint                 `json:"seq"`
	SenderID    uint                 `json:"sender_id"`
	FromVendor  bool                 `json:"from_vendor"`
	Text        string               `json:"text,omitempty"`
	ClientMsgID string               `json:"client_msg_id"`
	Proposal    *TransactionProposal `json:"transaction_proposal,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}
