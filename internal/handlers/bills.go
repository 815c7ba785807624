package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"billtrack/internal/billing"
	"billtrack/internal/chrome"
	"billtrack/internal/printer"
	"billtrack/internal/receipt"
	"billtrack/internal/store"
	u "billtrack/internal/utils"
)

// BillService bundles the dependencies of the bill endpoints. One shared
// instance keeps a single Chrome pool and fit controller across requests.
type BillService struct {
	Config  *u.Config
	Printer *printer.Service
}

// NewBillService creates the shared handler service.
func NewBillService(cfg u.Config, rdb *redis.Client) *BillService {
	p := printer.NewService(cfg, rdb)
	return &BillService{Config: p.Config, Printer: p}
}

// HandleList returns bills matching the status/q/from/to filters.
func (svc *BillService) HandleList(c *fiber.Ctx) error {
	filter := billing.Filter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		From:   c.Query("from"),
		To:     c.Query("to"),
	}
	if filter.Status != "" && filter.Status != "all" && !billing.ValidStatus(filter.Status) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid status filter")
	}

	bills, err := store.ListBills(c.Context(), svc.Config.Auth.Postgres, svc.Config.Limits.ListLimit)
	if err != nil {
		u.Error("Bill list failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load bills")
	}

	return c.JSON(fiber.Map{"data": filter.Apply(bills)})
}

func parseBill(c *fiber.Ctx) (billing.Bill, error) {
	var b billing.Bill
	if err := c.BodyParser(&b); err != nil {
		return billing.Bill{}, fiber.NewError(fiber.StatusBadRequest, "Invalid bill payload")
	}
	if b.Status != "" && !billing.ValidStatus(b.Status) {
		return billing.Bill{}, fiber.NewError(fiber.StatusBadRequest, "Invalid status: not supported")
	}
	return b, nil
}

// HandleCreate stores a new bill.
func (svc *BillService) HandleCreate(c *fiber.Ctx) error {
	b, err := parseBill(c)
	if err != nil {
		return err
	}

	created, err := store.CreateBill(c.Context(), svc.Config.Auth.Postgres, b)
	if err != nil {
		u.Error("Bill create failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to create bill")
	}

	u.Info("Bill created", "id", created.ID, "reference_no", created.ReferenceNo)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": created})
}

// HandleGet returns one bill.
func (svc *BillService) HandleGet(c *fiber.Ctx) error {
	b, err := store.GetBill(c.Context(), svc.Config.Auth.Postgres, c.Params("id"))
	if errors.Is(err, store.ErrBillNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Bill not found")
	}
	if err != nil {
		u.Error("Bill load failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load bill")
	}
	return c.JSON(fiber.Map{"data": b})
}

// HandleUpdate replaces a stored bill.
func (svc *BillService) HandleUpdate(c *fiber.Ctx) error {
	b, err := parseBill(c)
	if err != nil {
		return err
	}
	b.ID = c.Params("id")

	updated, err := store.UpdateBill(c.Context(), svc.Config.Auth.Postgres, b)
	if errors.Is(err, store.ErrBillNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Bill not found")
	}
	if err != nil {
		u.Error("Bill update failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to update bill")
	}
	return c.JSON(fiber.Map{"data": updated})
}

func (svc *BillService) loadReceiptHTML(ctx context.Context, id string) (string, error) {
	b, err := store.GetBill(ctx, svc.Config.Auth.Postgres, id)
	if errors.Is(err, store.ErrBillNotFound) {
		return "", fiber.NewError(fiber.StatusNotFound, "Bill not found")
	}
	if err != nil {
		u.Error("Bill load failed", "error", err)
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to load bill")
	}

	html, err := receipt.BuildHTML(receipt.FromBill(b))
	if err != nil {
		u.Error("Receipt render failed", "bill_id", id, "error", err)
		return "", fiber.NewError(fiber.StatusInternalServerError, "Receipt rendering failed")
	}
	return html, nil
}

// HandleReceiptHTML returns the printable receipt document for a bill.
func (svc *BillService) HandleReceiptHTML(c *fiber.Ctx) error {
	html, err := svc.loadReceiptHTML(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set("Content-Type", fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

// HandleReceiptPDF prints the receipt for a bill and returns the PDF.
func (svc *BillService) HandleReceiptPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	html, err := svc.loadReceiptHTML(c.Context(), id)
	if err != nil {
		return err
	}
	return svc.sendPDF(c, html, c.Query("paper"), id+".pdf")
}

// HandlePrint accepts a raw receipt document and returns the printed PDF
// without touching storage.
func (svc *BillService) HandlePrint(c *fiber.Ctx) error {
	if len(c.Body()) > svc.Config.Limits.MaxHTMLBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Receipt document too large")
	}

	var doc receipt.Document
	if err := c.BodyParser(&doc); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid receipt payload")
	}

	html, err := receipt.BuildHTML(doc)
	if err != nil {
		u.Error("Receipt render failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Receipt rendering failed")
	}

	filename := doc.ReferenceNo
	if filename == "" {
		filename = "receipt"
	}
	return svc.sendPDF(c, html, c.Query("paper"), filename+".pdf")
}

func (svc *BillService) sendPDF(c *fiber.Ctx, html, paper, filename string) error {
	pdf, err := svc.Printer.PrintReceipt(c.Context(), html, paper)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			u.Error("Receipt print timeout", "timeout_secs", svc.Config.Print.TimeoutSecs, "error", err.Error())
			return fiber.NewError(fiber.StatusRequestTimeout, "Receipt printing took too long")
		}
		if chrome.IsSessionInterrupted(err) {
			u.Error("Chrome session interrupted", "error", err.Error())
			return fiber.NewError(fiber.StatusServiceUnavailable, "Chrome session interrupted")
		}
		u.Error("Receipt print failed", "error", err.Error())
		return fiber.NewError(fiber.StatusInternalServerError, "Receipt printing failed: "+err.Error())
	}

	if len(pdf) > svc.Config.Limits.MaxPDFBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "PDF exceeds allowed size")
	}

	requestID := c.Get("X-Request-ID")
	u.Info("Receipt printed", "filename", filename, "request_id", requestID)

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", contentDisposition(filename))
	return c.Send(pdf)
}

// contentDisposition quotes the filename so reference numbers with
// spaces or separators stay a single well-formed header parameter.
func contentDisposition(filename string) string {
	return "attachment; filename=" + strconv.Quote(filename)
}

// HandleChromeStats exposes basic observability for the Chrome pool.
func (svc *BillService) HandleChromeStats(c *fiber.Ctx) error {
	pool, err := svc.Printer.Pool()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Chrome pool init failed: "+err.Error())
	}

	// Pool disabled.
	if pool == nil {
		return c.JSON(fiber.Map{
			"enabled":        false,
			"capacity":       0,
			"idle":           0,
			"in_use":         0,
			"pool_size_conf": svc.Config.Print.ChromePoolSize,
			"profile_dir":    "",
			"timeout_secs":   svc.Config.Print.TimeoutSecs,
			"restarts":       0,
		})
	}

	s := pool.Stats(svc.Config.Print.TimeoutSecs)
	return c.JSON(fiber.Map{
		"enabled":        s.Enabled,
		"capacity":       s.Capacity,
		"idle":           s.Idle,
		"in_use":         s.InUse,
		"pool_size_conf": s.PoolSizeConf,
		"profile_dir":    s.ProfileDir,
		"timeout_secs":   svc.Config.Print.TimeoutSecs,
		"restarts":       s.Restarts,
		"last_restart":   s.LastRestart,
	})
}
