package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignupRequest_Validate(t *testing.T) {
	valid := func() SignupRequest {
		return SignupRequest{
			Email:           "vendor@example.com",
			Password:        "password1",
			ConfirmPassword: "password1",
			Name:            "Supplies Co",
			Role:            "vendor",
		}
	}

	t.Run("valid request passes", func(t *testing.T) {
		req := valid()
		assert.NoError(t, req.Validate())
	})

	t.Run("malformed email fails", func(t *testing.T) {
		req := valid()
		req.Email = "not-an-email"
		assert.Error(t, req.Validate())
	})

	t.Run("unknown role fails", func(t *testing.T) {
		req := valid()
		req.Role = "admin"
		assert.Error(t, req.Validate())
	})

	t.Run("password without a digit fails", func(t *testing.T) {
		req := valid()
		req.Password = "passwordonly"
		req.ConfirmPassword = "passwordonly"
		assert.ErrorIs(t, req.Validate(), errInvalidPassword)
	})

	t.Run("short password fails", func(t *testing.T) {
		req := valid()
		req.Password = "pass1"
		req.ConfirmPassword = "pass1"
		assert.ErrorIs(t, req.Validate(), errInvalidPassword)
	})

	t.Run("mismatched confirm password fails", func(t *testing.T) {
		req := valid()
		req.ConfirmPassword = "password2"
		assert.ErrorIs(t, req.Validate(), errConfirmPasswordMismatch)
	})
}

func TestOpenChatRequest_Validate(t *testing.T) {
	t.Run("counterpart is required", func(t *testing.T) {
		req := OpenChatRequest{}
		assert.Error(t, req.Validate())
	})

	t.Run("valid request passes", func(t *testing.T) {
		req := OpenChatRequest{CounterpartID: 7}
		assert.NoError(t, req.Validate())
	})
}

func TestSendMessageRequest_Validate(t *testing.T) {
	t.Run("text is required", func(t *testing.T) {
		req := SendMessageRequest{}
		assert.Error(t, req.Validate())
	})

	t.Run("valid request passes", func(t *testing.T) {
		req := SendMessageRequest{Text: "hello"}
		assert.NoError(t, req.Validate())
	})
}

func TestSendProposalRequest_Validate(t *testing.T) {
	t.Run("at least one item is required", func(t *testing.T) {
		req := SendProposalRequest{}
		assert.Error(t, req.Validate())
	})

	t.Run("valid request passes", func(t *testing.T) {
		req := SendProposalRequest{
			Items: []ProposalItem{{Name: "water filter", Quantity: 2, UnitPriceCents: 250}},
		}
		assert.NoError(t, req.Validate())
	})
}

func TestSendProposalRequest_DomainItems(t *testing.T) {
	req := SendProposalRequest{
		Items: []ProposalItem{
			{Name: "water filter", Quantity: 2, UnitPriceCents: 250},
			{Name: "pipe", Quantity: 1, UnitPriceCents: 100},
		},
	}

	items := req.DomainItems()

	assert.Len(t, items, 2)
	assert.Equal(t, "water filter", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(250), items[0].UnitPriceCents)
}

func TestCreateCampaignRequest_Validate(t *testing.T) {
	valid := func() CreateCampaignRequest {
		return CreateCampaignRequest{
			Title:       "Clean Water",
			Description: "Filters for the region",
			GoalCents:   100_000,
			Deadline:    "31/12/2026",
		}
	}

	t.Run("valid request passes", func(t *testing.T) {
		req := valid()
		assert.NoError(t, req.Validate())
	})

	t.Run("zero goal fails", func(t *testing.T) {
		req := valid()
		req.GoalCents = 0
		assert.Error(t, req.Validate())
	})

	t.Run("missing title fails", func(t *testing.T) {
		req := valid()
		req.Title = ""
		assert.Error(t, req.Validate())
	})
}

func TestDonationRequest_Validate(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		req := DonationRequest{AmountCents: 500}
		assert.NoError(t, req.Validate())
	})

	t.Run("zero amount fails", func(t *testing.T) {
		req := DonationRequest{}
		assert.Error(t, req.Validate())
	})
}
