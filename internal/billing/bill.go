package billing

import (
	"github.com/shopspring/decimal"
)

// Bill statuses as stored. Labels for display live in LabelStatus.
const (
	StatusDraft            = "draft"
	StatusAwaitingApproval = "awaiting_approval"
	StatusApproved         = "approved"
	StatusPaid             = "paid"
	StatusVoid             = "void"
)

// Bill priorities as stored.
const (
	PriorityUrgent   = "urgent"
	PriorityHigh     = "high"
	PriorityStandard = "standard"
	PriorityLow      = "low"
)

// Breakdown is one line item of a bill with its own amount and optional
// payment-method detail.
type Breakdown struct {
	Category        string          `json:"category,omitempty"`
	Description     string          `json:"description,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	BankName        string          `json:"bank_name,omitempty"`
	BankAccountName string          `json:"bank_account_name,omitempty"`
	BankAccountNo   string          `json:"bank_account_no,omitempty"`
}

// Bill is a payment request record.
type Bill struct {
	ID               string          `json:"id"`
	ReferenceNo      string          `json:"reference_no"`
	RequestDate      string          `json:"request_date"`
	VendorName       string          `json:"vendor_name"`
	Purpose          string          `json:"purpose,omitempty"`
	PaymentMethod    string          `json:"payment_method,omitempty"`
	Priority         string          `json:"priority,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Status           string          `json:"status"`
	RequesterName    string          `json:"requester_name"`
	BankName         string          `json:"bank_name,omitempty"`
	AccountHolder    string          `json:"account_holder,omitempty"`
	AccountNumber    string          `json:"account_number,omitempty"`
	Breakdowns       []Breakdown     `json:"breakdowns,omitempty"`
	ReasonForPayment string          `json:"reason_for_payment,omitempty"`
	Remarks          string          `json:"remarks,omitempty"`
	Attachments      []string        `json:"attachments,omitempty"`
	CheckedBy        string          `json:"checked_by,omitempty"`
	ApprovedBy       string          `json:"approved_by,omitempty"`
	SubmittedDate    string          `json:"submitted_date,omitempty"`
	ApprovedDate     string          `json:"approved_date,omitempty"`
}

// Vendor is a payee that bills can be raised against.
type Vendor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

var statusLabels = map[string]string{
	StatusDraft:            "Draft",
	StatusAwaitingApproval: "Awaiting Approval",
	StatusApproved:         "Approved",
	StatusPaid:             "Paid",
	StatusVoid:             "Void",
}

// Statuses lists the known status codes in tab order.
func Statuses() []string {
	return []string{StatusDraft, StatusAwaitingApproval, StatusApproved, StatusPaid, StatusVoid}
}

// ValidStatus reports whether code is a known bill status.
func ValidStatus(code string) bool {
	_, ok := statusLabels[code]
	return ok
}

// LabelStatus maps a status code to its display label. Unrecognized or
// absent codes render as "-".
func LabelStatus(code string) string {
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return "-"
}

var priorityLabels = map[string]string{
	PriorityUrgent:   "Urgent",
	PriorityHigh:     "High",
	PriorityStandard: "Standard",
	PriorityLow:      "Low",
}

// LabelPriority maps a priority code to its display label. Unrecognized
// or absent codes render as "-".
func LabelPriority(code string) string {
	if label, ok := priorityLabels[code]; ok {
		return label
	}
	return "-"
}

var paymentMethodLabels = map[string]string{
	"bank_transfer": "Bank Transfer",
	"cash":          "Cash",
	"check":         "Check",
	"gcash":         "GCash",
}

// LabelPaymentMethod maps a payment method code to its display label.
// Absent codes render as "-"; unknown codes pass through unchanged.
func LabelPaymentMethod(code string) string {
	if code == "" {
		return "-"
	}
	if label, ok := paymentMethodLabels[code]; ok {
		return label
	}
	return code
}
