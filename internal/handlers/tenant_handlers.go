package handlers

import (
	"net/http"

	"reviso/internal/common"
	"reviso/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers exposes manual tenant provisioning to agency admins.
type TenantHandlers struct {
	provisioning services.TenantProvisioningService
}

func NewTenantHandlers(provisioning services.TenantProvisioningService) *TenantHandlers {
	return &TenantHandlers{provisioning: provisioning}
}

// ProvisionResponse names the database created for the agency.
type ProvisionResponse struct {
	AgencyID     string `json:"agency_id"`
	DatabaseName string `json:"database_name"`
}

// ProvisionTenant creates the agency's database. Admins may only provision
// their own agency.
//
//	@Summary	Provision tenant database
//	@Tags		tenants
//	@Produce	json
//	@Security	BearerAuth
//	@Param		agencyId	path		string	true	"Agency ID"
//	@Success	201			{object}	ProvisionResponse
//	@Failure	400			{object}	common.ErrorResponse
//	@Failure	403			{object}	common.ErrorResponse
//	@Failure	409			{object}	common.ErrorResponse
//	@Router		/v1/admin/tenants/{agencyId}/provision [post]
func (h *TenantHandlers) ProvisionTenant(c echo.Context) error {
	ctx := c.Request().Context()

	agencyID, err := common.ValidateUUID(c.Param("agencyId"), "agencyId")
	if err != nil {
		return common.SendValidationError(c, "agencyId", err.Error())
	}

	callerAgency, ok := common.GetAgencyIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	if callerAgency != agencyID {
		return common.NewError(common.KindForbidden, "FOREIGN_AGENCY", "Cannot provision another agency")
	}

	name, err := h.provisioning.ProvisionTenant(ctx, agencyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ProvisionResponse{
		AgencyID:     agencyID.String(),
		DatabaseName: name,
	})
}
