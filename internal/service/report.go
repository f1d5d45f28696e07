package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/givehub/givehub-api/internal/domain"
)

const donationsSheet = "Donations"

// ExportDonations renders a campaign's donations as an xlsx workbook for
// the owning organization. The same ownership guard as GetDonations applies.
func (s *CampaignService) ExportDonations(ctx context.Context, campaignID uint, actor domain.User) (*bytes.Buffer, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	donations, err := s.GetDonations(ctx, campaignID, actor)
	if err != nil {
		return nil, err
	}

	workbook, err := buildDonationsWorkbook(campaign, donations)
	if err != nil {
		return nil, fmt.Errorf("buildDonationsWorkbook -> %w", err)
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("workbook.WriteToBuffer -> %w", err)
	}

	return buf, nil
}

func buildDonationsWorkbook(campaign domain.Campaign, donations []domain.Donation) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(donationsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []interface{}{"Receipt", "Donor ID", "Amount (cents)", "Message", "Date"}
	if err := f.SetSheetRow(donationsSheet, "A1", &headers); err != nil {
		return nil, err
	}

	for i, donation := range donations {
		row := []interface{}{
			donation.ReceiptNumber,
			donation.DonorID,
			donation.AmountCents,
			donation.Message,
			donation.CreatedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(donationsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	summaryCell, err := excelize.CoordinatesToCellName(1, len(donations)+3)
	if err != nil {
		return nil, err
	}
	summary := []interface{}{
		fmt.Sprintf("%s: %d donations, %d cents raised of %d goal",
			campaign.Title, len(donations), campaign.RaisedCents, campaign.GoalCents),
	}
	if err := f.SetSheetRow(donationsSheet, summaryCell, &summary); err != nil {
		return nil, err
	}

	return f, nil
}
