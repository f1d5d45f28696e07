package v1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/givehub/givehub-api/internal/api/handler/v1/request"
	"github.com/givehub/givehub-api/internal/api/handler/v1/response"
	"github.com/givehub/givehub-api/internal/domain"
	"github.com/givehub/givehub-api/internal/service"
)

type CampaignService interface {
	GetCampaigns(ctx context.Context) ([]domain.Campaign, error)
	GetCampaign(ctx context.Context, id uint) (domain.Campaign, error)
	CreateCampaign(ctx context.Context, campaign domain.Campaign, organizationUserID uint) (domain.Campaign, error)
	RecordDonation(ctx context.Context, campaignID uint, donor domain.User, amountCents int64, message string) (domain.Donation, error)
	GetDonations(ctx context.Context, campaignID uint, actor domain.User) ([]domain.Donation, error)
	ExportDonations(ctx context.Context, campaignID uint, actor domain.User) (*bytes.Buffer, error)
}

type CampaignHandler struct {
	svc  CampaignService
	uSvc UserService
}

func NewCampaignHandler(svc CampaignService, uSvc UserService) *CampaignHandler {
	return &CampaignHandler{
		svc:  svc,
		uSvc: uSvc,
	}
}

// HandleGetCampaigns godoc
// @Summary      List campaigns
// @Tags         campaigns
// @Produce      json
// @Success      200  {array}   domain.Campaign
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaigns [get]
// @Security BearerAuth
func (h *CampaignHandler) HandleGetCampaigns(ctx *gin.Context) {
	campaigns, err := h.svc.GetCampaigns(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleGetCampaigns -> h.svc.GetCampaigns -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, campaigns)
}

// HandleGetCampaign godoc
// @Summary      Get a campaign by ID
// @Tags         campaigns
// @Produce      json
// @Param        campaignID  path      int true "campaign ID"
// @Success      200  {object}  domain.Campaign
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaigns/{campaignID} [get]
// @Security BearerAuth
func (h *CampaignHandler) HandleGetCampaign(ctx *gin.Context) {
	campaignID, err := strconv.ParseUint(ctx.Param("campaignID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid campaign ID: %w", err)))
		return
	}

	campaign, err := h.svc.GetCampaign(ctx.Request.Context(), uint(campaignID))
	if err != nil {
		if errors.Is(err, service.ErrCampaignNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("campaign", "ID", campaignID))
			return
		}

		err = fmt.Errorf("v1.HandleGetCampaign -> h.svc.GetCampaign -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, campaign)
}

// HandleCreateCampaign godoc
// @Summary      Create a campaign
// @Description  Creates a fundraising campaign. Only organization accounts may create campaigns.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateCampaignRequest  true  "Campaign details"
// @Success      201    {object}  domain.Campaign
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /campaigns [post]
// @Security BearerAuth
func (h *CampaignHandler) HandleCreateCampaign(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if user.Role != domain.RoleOrganization {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not an organization", user.ID)))
		return
	}

	var input request.CreateCampaignRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	parsedDeadline, err := time.Parse("02/01/2006", input.Deadline)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid deadline format: %v", err)))
		return
	}

	campaign := domain.Campaign{
		Title:       input.Title,
		Description: input.Description,
		GoalCents:   input.GoalCents,
		Deadline:    parsedDeadline,
	}

	created, err := h.svc.CreateCampaign(ctx.Request.Context(), campaign, user.ID)
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateCampaign -> h.svc.CreateCampaign -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleCreateDonation godoc
// @Summary      Record a donation
// @Description  Records a donation pledge against the campaign. Only donor accounts may donate. Nothing is charged.
// @Tags         campaigns,donations
// @Accept       json
// @Produce      json
// @Param        campaignID  path      int true "campaign ID"
// @Param        input  body      request.DonationRequest  true  "Donation details"
// @Success      201    {object}  domain.Donation
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /campaigns/{campaignID}/donations [post]
// @Security BearerAuth
func (h *CampaignHandler) HandleCreateDonation(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if user.Role != domain.RoleDonor {
		response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("user %v is not a donor", user.ID)))
		return
	}

	campaignID, err := strconv.ParseUint(ctx.Param("campaignID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid campaign ID: %w", err)))
		return
	}

	var input request.DonationRequest
	if err := ctx.ShouldBindJSON(&input); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := input.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	donation, err := h.svc.RecordDonation(ctx.Request.Context(), uint(campaignID), user, input.AmountCents, input.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCampaignNotFound):
			response.RenderErr(ctx, response.ErrNotFound("campaign", "ID", campaignID))
		case errors.Is(err, service.ErrInvalidDonation):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandleCreateDonation -> h.svc.RecordDonation -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusCreated, donation)
}

// HandleGetDonations godoc
// @Summary      List a campaign's donations
// @Description  Lists donations recorded for the campaign. Restricted to the owning organization.
// @Tags         campaigns,donations
// @Produce      json
// @Param        campaignID  path      int true "campaign ID"
// @Success      200  {array}   domain.Donation
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaigns/{campaignID}/donations [get]
// @Security BearerAuth
func (h *CampaignHandler) HandleGetDonations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	campaignID, err := strconv.ParseUint(ctx.Param("campaignID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid campaign ID: %w", err)))
		return
	}

	donations, err := h.svc.GetDonations(ctx.Request.Context(), uint(campaignID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCampaignNotFound):
			response.RenderErr(ctx, response.ErrNotFound("campaign", "ID", campaignID))
		case errors.Is(err, service.ErrNotCampaignOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleGetDonations -> h.svc.GetDonations -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, donations)
}

// HandleExportDonations godoc
// @Summary      Export a campaign's donations
// @Description  Downloads the campaign's donations as an xlsx workbook. Restricted to the owning organization.
// @Tags         campaigns,donations
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        campaignID  path      int true "campaign ID"
// @Success      200  {file}    file
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaigns/{campaignID}/donations/export [get]
// @Security BearerAuth
func (h *CampaignHandler) HandleExportDonations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx, h.uSvc)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	campaignID, err := strconv.ParseUint(ctx.Param("campaignID"), 10, 32)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid campaign ID: %w", err)))
		return
	}

	buf, err := h.svc.ExportDonations(ctx.Request.Context(), uint(campaignID), user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCampaignNotFound):
			response.RenderErr(ctx, response.ErrNotFound("campaign", "ID", campaignID))
		case errors.Is(err, service.ErrNotCampaignOwner):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		default:
			err = fmt.Errorf("v1.HandleExportDonations -> h.svc.ExportDonations -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	filename := fmt.Sprintf("campaign-%d-donations.xlsx", campaignID)
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
