package store

import (
	"errors"
	"testing"

	"github.com/atvirokodosprendimai/switchcore/internal/core/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type codedErr int

func (c codedErr) Error() string { return "sqlite error" }
func (c codedErr) Code() int     { return int(c) }

func TestMapWriteErrorDetectsUniqueViolations(t *testing.T) {
	cases := []error{
		gorm.ErrDuplicatedKey,
		&pgconn.PgError{Code: "23505"},
		codedErr(2067),
		codedErr(1555),
		errors.New("UNIQUE constraint failed: mandates.merchant_id, mandates.mandate_id"),
	}
	for _, err := range cases {
		if got := mapWriteError("insert", err); !errors.Is(got, domain.ErrConflict) {
			t.Fatalf("%v: expected conflict, got %v", err, got)
		}
	}

	other := mapWriteError("insert", codedErr(5))
	if errors.Is(other, domain.ErrConflict) {
		t.Fatalf("busy error must not map to conflict: %v", other)
	}
	if mapWriteError("insert", nil) != nil {
		t.Fatal("nil must stay nil")
	}
}
