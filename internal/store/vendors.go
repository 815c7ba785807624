package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"

	"billtrack/internal/billing"
	"billtrack/internal/utils"
)

// ErrVendorNameRequired is returned by CreateVendor for blank names.
var ErrVendorNameRequired = errors.New("Vendor name is required.")

// sqlstate 42501, insufficient_privilege
const permissionDeniedCode = "42501"

const vendorPermissionMsg = "You do not have permission to manage vendors."

// VendorErrorMessage maps a vendor operation error to the short
// human-readable message shown to users. Permission failures get a fixed
// message; everything else passes the backend's message through, or the
// fallback when there is none.
func VendorErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == permissionDeniedCode {
			return vendorPermissionMsg
		}
		if pgErr.Message != "" {
			return pgErr.Message
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// ListVendors returns up to 50 vendors ordered by name, optionally
// filtered by a case-insensitive name substring.
func ListVendors(ctx context.Context, cfg utils.PostgresConfig, query string) ([]billing.Vendor, error) {
	db, err := getDB(cfg)
	if err != nil {
		return nil, err
	}

	q := `SELECT id, name, COALESCE(address, '') FROM vendors`
	args := []any{}
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		q += ` WHERE name ILIKE $1`
		args = append(args, "%"+trimmed+"%")
	}
	q += ` ORDER BY name LIMIT 50;`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendors := []billing.Vendor{}
	for rows.Next() {
		var v billing.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Address); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// CreateVendor inserts a vendor. The name is trimmed and required.
func CreateVendor(ctx context.Context, cfg utils.PostgresConfig, name, address string) (billing.Vendor, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return billing.Vendor{}, ErrVendorNameRequired
	}

	db, err := getDB(cfg)
	if err != nil {
		return billing.Vendor{}, err
	}

	v := billing.Vendor{ID: xid.New().String(), Name: trimmed, Address: address}
	_, err = db.ExecContext(ctx,
		`INSERT INTO vendors (id, name, address) VALUES ($1, $2, NULLIF($3, ''));`,
		v.ID, v.Name, v.Address)
	if err != nil {
		return billing.Vendor{}, err
	}
	return v, nil
}
