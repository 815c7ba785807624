package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"billtrack/internal/billing"
	"billtrack/internal/utils"
)

// ErrBillNotFound is returned when a bill id does not exist.
var ErrBillNotFound = errors.New("bill not found")

const billColumns = `id, reference_no, request_date, vendor_name, purpose, payment_method,
	priority, total_amount::text, status, requester_name, bank_name, account_holder,
	account_number, breakdowns, reason_for_payment, remarks, attachments,
	checked_by, approved_by, submitted_date, approved_date`

func scanBill(row interface{ Scan(...any) error }) (billing.Bill, error) {
	var b billing.Bill
	var total string
	var breakdowns, attachments []byte
	err := row.Scan(&b.ID, &b.ReferenceNo, &b.RequestDate, &b.VendorName, &b.Purpose,
		&b.PaymentMethod, &b.Priority, &total, &b.Status, &b.RequesterName,
		&b.BankName, &b.AccountHolder, &b.AccountNumber, &breakdowns,
		&b.ReasonForPayment, &b.Remarks, &attachments, &b.CheckedBy, &b.ApprovedBy,
		&b.SubmittedDate, &b.ApprovedDate)
	if err != nil {
		return billing.Bill{}, err
	}
	if d, err := decimal.NewFromString(total); err == nil {
		b.TotalAmount = d
	}
	if len(breakdowns) > 0 {
		_ = json.Unmarshal(breakdowns, &b.Breakdowns)
	}
	if len(attachments) > 0 {
		_ = json.Unmarshal(attachments, &b.Attachments)
	}
	return b, nil
}

// CreateBill inserts the bill and returns it with an assigned id.
func CreateBill(ctx context.Context, cfg utils.PostgresConfig, b billing.Bill) (billing.Bill, error) {
	db, err := getDB(cfg)
	if err != nil {
		return billing.Bill{}, err
	}

	if b.ID == "" {
		b.ID = xid.New().String()
	}
	if b.Status == "" {
		b.Status = billing.StatusDraft
	}
	if b.Priority == "" {
		b.Priority = billing.PriorityStandard
	}

	breakdowns, err := json.Marshal(b.Breakdowns)
	if err != nil {
		return billing.Bill{}, err
	}
	attachments, err := json.Marshal(b.Attachments)
	if err != nil {
		return billing.Bill{}, err
	}

	_, err = db.ExecContext(ctx, `INSERT INTO bills (
		id, reference_no, request_date, vendor_name, purpose, payment_method,
		priority, total_amount, status, requester_name, bank_name, account_holder,
		account_number, breakdowns, reason_for_payment, remarks, attachments,
		checked_by, approved_by, submitted_date, approved_date
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21);`,
		b.ID, b.ReferenceNo, b.RequestDate, b.VendorName, b.Purpose, b.PaymentMethod,
		b.Priority, b.TotalAmount.String(), b.Status, b.RequesterName, b.BankName,
		b.AccountHolder, b.AccountNumber, breakdowns, b.ReasonForPayment, b.Remarks,
		attachments, b.CheckedBy, b.ApprovedBy, b.SubmittedDate, b.ApprovedDate)
	if err != nil {
		return billing.Bill{}, err
	}
	return b, nil
}

// UpdateBill replaces the stored bill with the same id.
func UpdateBill(ctx context.Context, cfg utils.PostgresConfig, b billing.Bill) (billing.Bill, error) {
	db, err := getDB(cfg)
	if err != nil {
		return billing.Bill{}, err
	}

	breakdowns, err := json.Marshal(b.Breakdowns)
	if err != nil {
		return billing.Bill{}, err
	}
	attachments, err := json.Marshal(b.Attachments)
	if err != nil {
		return billing.Bill{}, err
	}

	res, err := db.ExecContext(ctx, `UPDATE bills SET
		reference_no=$2, request_date=$3, vendor_name=$4, purpose=$5, payment_method=$6,
		priority=$7, total_amount=$8, status=$9, requester_name=$10, bank_name=$11,
		account_holder=$12, account_number=$13, breakdowns=$14, reason_for_payment=$15,
		remarks=$16, attachments=$17, checked_by=$18, approved_by=$19,
		submitted_date=$20, approved_date=$21
	WHERE id=$1;`,
		b.ID, b.ReferenceNo, b.RequestDate, b.VendorName, b.Purpose, b.PaymentMethod,
		b.Priority, b.TotalAmount.String(), b.Status, b.RequesterName, b.BankName,
		b.AccountHolder, b.AccountNumber, breakdowns, b.ReasonForPayment, b.Remarks,
		attachments, b.CheckedBy, b.ApprovedBy, b.SubmittedDate, b.ApprovedDate)
	if err != nil {
		return billing.Bill{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return billing.Bill{}, ErrBillNotFound
	}
	return b, nil
}

// GetBill loads one bill by id.
func GetBill(ctx context.Context, cfg utils.PostgresConfig, id string) (billing.Bill, error) {
	db, err := getDB(cfg)
	if err != nil {
		return billing.Bill{}, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1;`, id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Bill{}, ErrBillNotFound
	}
	return b, err
}

// ListBills returns up to limit bills, newest request first. Filtering
// happens in the handler with billing.Filter, the way the original list
// page filters the fetched rows.
func ListBills(ctx context.Context, cfg utils.PostgresConfig, limit int) ([]billing.Bill, error) {
	db, err := getDB(cfg)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := db.QueryContext(ctx, `SELECT `+billColumns+`
		FROM bills ORDER BY request_date DESC, created_at DESC LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []billing.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}
