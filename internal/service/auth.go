package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// AuthService verifies credentials against the customer table. Credentials
// are compared as stored; the record snapshots carry them in plain text.
type AuthService struct {
	store  domain.RecordStore
	logger *zap.Logger
}

func NewAuthService(store domain.RecordStore, logger *zap.Logger) *AuthService {
	return &AuthService{store: store, logger: logger}
}

// Authenticate looks the customer up by NIK and checks the password.
func (s *AuthService) Authenticate(nik, password string) (*domain.Customer, error) {
	nik = strings.TrimSpace(nik)
	password = strings.TrimSpace(password)

	for _, row := range s.store.Table(domain.TableCustomer) {
		if row.Get(domain.ColNIK) != nik {
			continue
		}
		if row.Get(domain.ColPassword) != password {
			s.logger.Warn("authentication failed", zap.String("nik", nik))
			return nil, domain.ErrInvalidCredentials
		}
		customer := domain.CustomerFromRecord(row)
		s.logger.Info("customer authenticated",
			zap.String("customer_id", customer.CustomerID),
			zap.String("name", customer.Name))
		return customer, nil
	}

	s.logger.Warn("authentication failed", zap.String("nik", nik))
	return nil, domain.ErrCustomerNotFound
}

// CustomerByID resolves a customer row by id.
func (s *AuthService) CustomerByID(customerID string) (*domain.Customer, error) {
	for _, row := range s.store.Table(domain.TableCustomer) {
		if row.Get(domain.ColCustomerID) == customerID {
			return domain.CustomerFromRecord(row), nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}
