package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtrack/internal/billing"
	"billtrack/internal/utils"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.vals[i].(string)
		case *[]byte:
			*p = r.vals[i].([]byte)
		}
	}
	return nil
}

func TestScanBill(t *testing.T) {
	row := fakeRow{vals: []any{
		"bill-1",                      // id
		"PRF-012826-004",              // reference_no
		"01/28/2026",                  // request_date
		"Kevlinda Empoy",              // vendor_name
		"Catering",                    // purpose
		"bank_transfer",               // payment_method
		"urgent",                      // priority
		"200000.00",                   // total_amount::text
		"awaiting_approval",           // status
		"Kenny",                       // requester_name
		"BPI",                         // bank_name
		"Kevlinda Empoy",              // account_holder
		"9876543210",                  // account_number
		[]byte(`[{"description":"Catering","amount":200000}]`), // breakdowns
		"",         // reason_for_payment
		"rush",     // remarks
		[]byte(`[]`), // attachments
		"",         // checked_by
		"",         // approved_by
		"",         // submitted_date
		"",         // approved_date
	}}

	b, err := scanBill(row)
	require.NoError(t, err)

	assert.Equal(t, "bill-1", b.ID)
	assert.Equal(t, "PRF-012826-004", b.ReferenceNo)
	assert.Equal(t, billing.StatusAwaitingApproval, b.Status)
	assert.Equal(t, "200000", b.TotalAmount.String())
	require.Len(t, b.Breakdowns, 1)
	assert.Equal(t, "Catering", b.Breakdowns[0].Description)
	assert.Equal(t, "200000", b.Breakdowns[0].Amount.String())
	assert.Empty(t, b.Attachments)
}

func TestScanBill_BadTotalLeavesZero(t *testing.T) {
	vals := make([]any, 21)
	for i := range vals {
		vals[i] = ""
	}
	vals[7] = "not-a-number"
	vals[13] = []byte(nil)
	vals[16] = []byte(nil)

	b, err := scanBill(fakeRow{vals: vals})
	require.NoError(t, err)
	assert.True(t, b.TotalAmount.IsZero())
}

func TestBillQueries_InvalidConfig(t *testing.T) {
	ctx := context.Background()
	var cfg utils.PostgresConfig

	if _, err := CreateBill(ctx, cfg, billing.Bill{}); err == nil {
		t.Fatalf("expected error for empty postgres config")
	}
	if _, err := GetBill(ctx, cfg, "x"); err == nil {
		t.Fatalf("expected error for empty postgres config")
	}
	if _, err := UpdateBill(ctx, cfg, billing.Bill{ID: "x"}); err == nil {
		t.Fatalf("expected error for empty postgres config")
	}
	if _, err := ListBills(ctx, cfg, 10); err == nil {
		t.Fatalf("expected error for empty postgres config")
	}
}
