package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"billtrack/internal/utils"
)

func TestVendorErrorMessage(t *testing.T) {
	fallback := "Unable to save vendor."

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "permission denied code",
			err:  &pgconn.PgError{Code: "42501", Message: "permission denied for table vendors"},
			want: "You do not have permission to manage vendors.",
		},
		{
			name: "wrapped permission denied",
			err:  errors.Join(errors.New("insert"), &pgconn.PgError{Code: "42501"}),
			want: "You do not have permission to manage vendors.",
		},
		{
			name: "other pg error passes its message",
			err:  &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			want: "duplicate key value violates unique constraint",
		},
		{
			name: "plain error passes through",
			err:  errors.New("connection refused"),
			want: "connection refused",
		},
		{
			name: "nil error uses fallback",
			err:  nil,
			want: fallback,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, VendorErrorMessage(tc.err, fallback))
		})
	}
}

func TestCreateVendor_NameRequired(t *testing.T) {
	// the name check runs before any database work
	_, err := CreateVendor(context.Background(), utils.PostgresConfig{}, "", "somewhere")
	assert.ErrorIs(t, err, ErrVendorNameRequired)

	_, err = CreateVendor(context.Background(), utils.PostgresConfig{}, "   ", "")
	assert.ErrorIs(t, err, ErrVendorNameRequired)
}

func TestListVendors_InvalidConfig(t *testing.T) {
	_, err := ListVendors(context.Background(), utils.PostgresConfig{}, "")
	assert.Error(t, err)
}
