// Package receipt renders a payment request as a self-contained printable
// HTML document sized for an 80mm thermal receipt roll.
package receipt

import (
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"billtrack/internal/billing"
)

// DefaultCompanyName is used when the document does not name one.
const DefaultCompanyName = "AccuCount"

// LineItem is one cost breakdown row on the receipt.
type LineItem struct {
	Description     string          `json:"description,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	BankName        string          `json:"bank_name,omitempty"`
	BankAccountName string          `json:"bank_account_name,omitempty"`
	BankAccountNo   string          `json:"bank_account_no,omitempty"`
}

// Document is the immutable input to BuildHTML.
type Document struct {
	ReferenceNo   string          `json:"reference_no"`
	RequestDate   string          `json:"request_date"`
	Status        string          `json:"status,omitempty"`
	VendorName    string          `json:"vendor_name"`
	RequesterName string          `json:"requester_name"`
	Breakdowns    []LineItem      `json:"breakdowns"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Remarks       string          `json:"remarks,omitempty"`
	CompanyName   string          `json:"company_name,omitempty"`
}

// FromBill builds a receipt document from a stored bill.
func FromBill(b billing.Bill) Document {
	items := make([]LineItem, 0, len(b.Breakdowns))
	for _, bd := range b.Breakdowns {
		method := bd.PaymentMethod
		if method == "" {
			method = b.PaymentMethod
		}
		bankName, accName, accNo := bd.BankName, bd.BankAccountName, bd.BankAccountNo
		if method == "bank_transfer" && bankName == "" && accName == "" && accNo == "" {
			bankName, accName, accNo = b.BankName, b.AccountHolder, b.AccountNumber
		}
		items = append(items, LineItem{
			Description:     bd.Description,
			Amount:          bd.Amount,
			PaymentMethod:   method,
			BankName:        bankName,
			BankAccountName: accName,
			BankAccountNo:   accNo,
		})
	}
	return Document{
		ReferenceNo:   b.ReferenceNo,
		RequestDate:   b.RequestDate,
		Status:        b.Status,
		VendorName:    b.VendorName,
		RequesterName: b.RequesterName,
		Breakdowns:    items,
		TotalAmount:   b.TotalAmount,
		Remarks:       b.Remarks,
	}
}

// now is swapped in tests to pin the printed-at footer.
var now = time.Now

type itemView struct {
	Description     string
	Method          string
	Amount          string
	ShowBank        bool
	BankName        string
	BankAccountName string
	BankAccountNo   string
}

type docView struct {
	CompanyName   string
	ReferenceNo   string
	Date          string
	Status        string
	VendorName    string
	RequesterName string
	Items         []itemView
	Total         string
	Remarks       string
	PrintedAt     string
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// BuildHTML renders the document as a complete HTML page with inlined
// styles and no external resources. Missing optional fields render as
// "-" placeholders; the function has no side effects beyond reading the
// clock for the footer.
func BuildHTML(doc Document) (string, error) {
	view := docView{
		CompanyName:   doc.CompanyName,
		ReferenceNo:   dash(doc.ReferenceNo),
		Date:          billing.FormatDate(doc.RequestDate),
		Status:        billing.LabelStatus(doc.Status),
		VendorName:    dash(doc.VendorName),
		RequesterName: dash(doc.RequesterName),
		Total:         billing.FormatMoneyPHP(doc.TotalAmount),
		Remarks:       doc.Remarks,
		PrintedAt:     now().Format("Jan 02, 2006 03:04 PM"),
	}
	if view.CompanyName == "" {
		view.CompanyName = DefaultCompanyName
	}

	for _, item := range doc.Breakdowns {
		iv := itemView{
			Description: dash(item.Description),
			Method:      billing.LabelPaymentMethod(item.PaymentMethod),
			Amount:      billing.FormatMoneyPHP(item.Amount),
		}
		if item.PaymentMethod == "bank_transfer" {
			iv.ShowBank = true
			iv.BankName = dash(item.BankName)
			iv.BankAccountName = dash(item.BankAccountName)
			iv.BankAccountNo = dash(item.BankAccountNo)
		}
		view.Items = append(view.Items, iv)
	}

	var sb strings.Builder
	if err := receiptTmpl.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptTemplate))

const receiptTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Payment Request Receipt</title>
  <style>
    :root { color-scheme: light; }

    @page {
      size: 80mm auto;
      margin: 6mm;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      width: 68mm;
      font-family: ui-sans-serif, system-ui, Arial, sans-serif;
      font-size: 11px;
      line-height: 1.35;
      color: #000;
      background: #fff;
    }

    .receipt { width: 100%; }
    .center { text-align: center; }

    .company {
      font-size: 14px;
      font-weight: 700;
      letter-spacing: 0.2px;
      margin-bottom: 2px;
    }

    .title {
      font-size: 12px;
      font-weight: 700;
      margin-bottom: 8px;
    }

    .divider {
      border-top: 1px dashed #000;
      margin: 8px 0;
    }

    .kv {
      display: grid;
      grid-template-columns: 1fr;
      row-gap: 2px;
    }

    .line {
      display: flex;
      justify-content: space-between;
      gap: 8px;
      align-items: flex-start;
    }

    .line .label {
      font-weight: 600;
      min-width: 80px;
      flex-shrink: 0;
    }

    .line .value {
      text-align: right;
      word-break: break-word;
      overflow-wrap: anywhere;
    }

    .section-title {
      font-weight: 700;
      margin-bottom: 6px;
      letter-spacing: 0.2px;
    }

    .item {
      break-inside: avoid;
      page-break-inside: avoid;
      margin-bottom: 8px;
    }

    .item-row {
      display: flex;
      justify-content: space-between;
      gap: 8px;
      align-items: flex-start;
    }

    .item-meta { min-width: 0; flex: 1; }

    .description {
      font-weight: 600;
      word-break: break-word;
      overflow-wrap: anywhere;
    }

    .method {
      font-size: 10px;
      margin-top: 1px;
      color: #111;
    }

    .amount {
      min-width: 80px;
      text-align: right;
      font-weight: 600;
      white-space: nowrap;
    }

    .bank-info {
      margin-top: 4px;
      padding-left: 6px;
      border-left: 1px dashed #000;
      font-size: 10px;
      display: grid;
      row-gap: 1px;
      word-break: break-word;
      overflow-wrap: anywhere;
    }

    .totals { margin-top: 2px; }

    .total-row {
      display: flex;
      justify-content: space-between;
      gap: 8px;
      font-weight: 700;
      font-size: 12px;
    }

    .remarks {
      white-space: pre-wrap;
      word-break: break-word;
      overflow-wrap: anywhere;
    }

    .footer {
      margin-top: 10px;
      font-size: 10px;
      text-align: center;
    }

    @media print {
      html, body {
        -webkit-print-color-adjust: exact;
        print-color-adjust: exact;
      }
    }

    @media print and (min-width: 210mm) {
      body { margin: 0 auto; }
    }
  </style>
</head>
<body>
  <div class="receipt" data-print-fit>
    <div class="center company">{{.CompanyName}}</div>
    <div class="center title">PAYMENT REQUEST</div>

    <div class="kv">
      <div class="line"><span class="label">PRF No</span><span class="value">{{.ReferenceNo}}</span></div>
      <div class="line"><span class="label">Date</span><span class="value">{{.Date}}</span></div>
      <div class="line"><span class="label">Status</span><span class="value">{{.Status}}</span></div>
      <div class="line"><span class="label">Vendor/Payee</span><span class="value">{{.VendorName}}</span></div>
      <div class="line"><span class="label">Requestor</span><span class="value">{{.RequesterName}}</span></div>
    </div>

    <div class="divider"></div>
    <div class="section-title">Breakdown</div>
    {{range .Items}}<div class="item">
      <div class="item-row">
        <div class="item-meta">
          <div class="description">{{.Description}}</div>
          <div class="method">{{.Method}}</div>
        </div>
        <div class="amount">{{.Amount}}</div>
      </div>
      {{if .ShowBank}}<div class="bank-info">
        <div><span class="label">Bank:</span> {{.BankName}}</div>
        <div><span class="label">Account:</span> {{.BankAccountName}}</div>
        <div><span class="label">No:</span> {{.BankAccountNo}}</div>
      </div>{{end}}
    </div>
    {{else}}<div class="item"><div class="description">-</div></div>
    {{end}}
    <div class="divider"></div>
    <div class="totals">
      <div class="total-row"><span>TOTAL AMOUNT</span><span>{{.Total}}</span></div>
    </div>

    {{if .Remarks}}<div class="divider"></div>
    <div class="section-title">Remarks</div>
    <div class="remarks">{{.Remarks}}</div>
    {{end}}
    <div class="divider"></div>
    <div class="footer">
      <div>Printed: {{.PrintedAt}}</div>
      <div>Thank you!</div>
    </div>
  </div>
</body>
</html>`
