package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateCampaignRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalCents   int64  `json:"goal_cents"`
	Deadline    string `json:"deadline"` // "02/01/2006"
}

func (req *CreateCampaignRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.GoalCents, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Deadline, validation.Required),
	)
}

type DonationRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Message     string `json:"message,omitempty"`
}

func (req *DonationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AmountCents, validation.Required, validation.Min(int64(1))),
		validation.Field(&req.Message, validation.Length(0, 500)),
	)
}
