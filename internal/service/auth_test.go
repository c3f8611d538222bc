package service

import (
	"errors"
	"testing"

	"github.com/carepal-health/carepal/internal/domain"
)

func authStore() *memStore {
	s := newMemStore()
	s.add(domain.TableCustomer,
		domain.Record{"customer_id": "C1", "NIK": "3171234567890001", "name": "Siti", "password": "rahasia"},
		domain.Record{"customer_id": "C2", "NIK": "3171234567890002", "name": "Ani", "password": "sandi"},
	)
	return s
}

func TestAuthenticateSuccess(t *testing.T) {
	auth := NewAuthService(authStore(), testLogger)

	customer, err := auth.Authenticate("3171234567890001", "rahasia")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if customer.CustomerID != "C1" || customer.Name != "Siti" {
		t.Errorf("unexpected customer %+v", customer)
	}
}

func TestAuthenticateTrimsCredentials(t *testing.T) {
	auth := NewAuthService(authStore(), testLogger)

	if _, err := auth.Authenticate("  3171234567890001 ", " rahasia\n"); err != nil {
		t.Errorf("expected whitespace-padded credentials to authenticate, got %v", err)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	auth := NewAuthService(authStore(), testLogger)

	_, err := auth.Authenticate("3171234567890001", "salah")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownNIK(t *testing.T) {
	auth := NewAuthService(authStore(), testLogger)

	_, err := auth.Authenticate("9999999999999999", "rahasia")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerByID(t *testing.T) {
	auth := NewAuthService(authStore(), testLogger)

	customer, err := auth.CustomerByID("C2")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if customer.Name != "Ani" {
		t.Errorf("unexpected customer %+v", customer)
	}

	if _, err := auth.CustomerByID("C9"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
}
