package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"billtrack/internal/billing"
	"billtrack/internal/store"
	u "billtrack/internal/utils"
)

// Vendor endpoints keep the result/error-pair contract of the original
// client: the response is always {"data": ..., "error": ...} with a
// short human-readable message, never a thrown HTTP error.

// HandleListVendors returns vendors, optionally filtered by name.
func (svc *BillService) HandleListVendors(c *fiber.Ctx) error {
	vendors, err := store.ListVendors(c.Context(), svc.Config.Auth.Postgres, c.Query("q"))
	if err != nil {
		u.Warn("Vendor list failed", "error", err)
		return c.JSON(fiber.Map{
			"data":  []billing.Vendor{},
			"error": store.VendorErrorMessage(err, "Failed to load vendors."),
		})
	}
	return c.JSON(fiber.Map{"data": vendors, "error": nil})
}

type createVendorRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// HandleCreateVendor creates a vendor. The name is required.
func (svc *BillService) HandleCreateVendor(c *fiber.Ctx) error {
	var req createVendorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid vendor payload")
	}

	v, err := store.CreateVendor(c.Context(), svc.Config.Auth.Postgres, req.Name, req.Address)
	if errors.Is(err, store.ErrVendorNameRequired) {
		return c.JSON(fiber.Map{"data": nil, "error": store.ErrVendorNameRequired.Error()})
	}
	if err != nil {
		u.Warn("Vendor create failed", "error", err)
		return c.JSON(fiber.Map{
			"data":  nil,
			"error": store.VendorErrorMessage(err, "Failed to create vendor."),
		})
	}

	u.Info("Vendor created", "id", v.ID, "name", v.Name)
	return c.JSON(fiber.Map{"data": v, "error": nil})
}
