package v1

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/givehub/givehub-api/internal/api/handler/v1/response"
	"github.com/givehub/givehub-api/internal/domain"
)

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
	GetOrganizationByUserID(ctx context.Context, userID uint) (domain.Organization, error)
	GetVendorByUserID(ctx context.Context, userID uint) (domain.Vendor, error)
	GetDonorByUserID(ctx context.Context, userID uint) (domain.Donor, error)
}

func getUserFromContext(ctx *gin.Context, uSvc UserService) (domain.User, *response.Err) {
	value, exists := ctx.Get("user_id")
	if !exists {
		return domain.User{}, response.ErrUnauthorized(errors.New("not authenticated"))
	}

	userID, ok := value.(uint)
	if !ok {
		return domain.User{}, response.ErrUnauthorized(errors.New("invalid authentication context"))
	}

	user, err := uSvc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		return domain.User{}, response.ErrUnauthorized(err)
	}

	return user, nil
}
