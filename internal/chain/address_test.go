package chain

import (
	"errors"
	"testing"
)

func TestValidateAddress_Valid(t *testing.T) {
	// 32 ones decode to 32 zero bytes, a canonical curve point.
	if err := ValidateAddress("11111111111111111111111111111111"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateAddress_Empty(t *testing.T) {
	err := ValidateAddress("")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestValidateAddress_BadCharacters(t *testing.T) {
	// 0, O, I and l are not in the base58 alphabet.
	err := ValidateAddress("0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestValidateAddress_WrongLength(t *testing.T) {
	err := ValidateAddress("abc")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}
