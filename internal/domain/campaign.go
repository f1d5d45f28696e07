package domain

import "time"

type Campaign struct {
	ID             uint      `json:"id"`
	OrganizationID uint      `json:"organization_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	GoalCents      int64     `json:"goal_cents"`
	RaisedCents    int64     `json:"raised_cents"`
	Deadline       time.Time `json:"deadline"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Donation is a recorded pledge against a campaign. Nothing is charged;
// settlement is out of scope for this service.
type Donation struct {
	ID            uint      `json:"id"`
	CampaignID    uint      `json:"campaign_id"`
	DonorID       uint      `json:"donor_id"`
	AmountCents   int64     `json:"amount_cents"`
	Message       string    `json:"message,omitempty"`
	ReceiptNumber string    `json:"receipt_number"`
	CreatedAt     time.Time `json:"created_at"`
}
