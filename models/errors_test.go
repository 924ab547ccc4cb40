package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lagoonpms/resort_backend/utils"
)

func TestErrKindOfClassifiesLedgerErrors(t *testing.T) {
	cases := map[error]ErrorKind{
		NewValidationError("bad input"):            ErrorKindValidation,
		NewNotFoundError("warehouse"):              ErrorKindNotFound,
		NewPreconditionError("already paid"):       ErrorKindPrecondition,
		NewInsufficientStockError("x", d("1"), d("2")): ErrorKindInsufficientStock,
	}
	for err, want := range cases {
		if got := ErrKindOf(err); got != want {
			t.Fatalf("ErrKindOf(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestErrKindOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("while selling: %w", NewInsufficientStockError("gin", d("0"), d("1")))
	if !IsInsufficientStock(wrapped) {
		t.Fatalf("wrapped insufficient stock not detected")
	}
	if got := ErrKindOf(wrapped); got != ErrorKindInsufficientStock {
		t.Fatalf("ErrKindOf wrapped = %s", got)
	}
}

func TestErrKindOfDefaults(t *testing.T) {
	if got := ErrKindOf(errors.New("boom")); got != ErrorKindPersistence {
		t.Fatalf("unclassified error should map to Persistence, got %s", got)
	}
	if got := ErrKindOf(utils.ErrorRecordNotFound); got != ErrorKindNotFound {
		t.Fatalf("record-not-found should map to NotFound, got %s", got)
	}
}

func TestInsufficientStockMessageNamesItem(t *testing.T) {
	err := NewInsufficientStockError("Chicken Breast", d("1.5"), d("2"))
	want := "insufficient stock for Chicken Breast: available 1.5, requested 2"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
