package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/givehub/givehub-api/internal/domain"
)

type OpenChatRequest struct {
	CounterpartID uint `json:"counterpart_id"`
}

func (req *OpenChatRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CounterpartID, validation.Required),
	)
}

type SendMessageRequest struct {
	Text        string `json:"text"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
}

func (req *SendMessageRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Text, validation.Required),
	)
}

type ProposalItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type SendProposalRequest struct {
	Items       []ProposalItem `json:"items"`
	ClientMsgID string         `json:"client_msg_id,omitempty"`
}

func (req *SendProposalRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Items, validation.Required, validation.Length(1, 0)),
	)
}

// DomainItems converts the request's line items; blank names and numeric
// bounds are enforced by the proposal itself.
func (req *SendProposalRequest) DomainItems() []domain.ProposalItem {
	items := make([]domain.ProposalItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.ProposalItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		}
	}
	return items
}
