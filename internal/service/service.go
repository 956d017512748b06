// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/maxviazov/tayseer-service/internal/model"
	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// NewInvalidInput builds an aggregated validation error if any field errors are present.
// Handlers use it for request shapes they reject before a service call.
func NewInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var v interface{ Fields() []FieldError }
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// FromQueryErrors converts schema rejections into client-facing field errors.
func FromQueryErrors(errs []query.FieldError) []FieldError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, FieldError{Field: e.Field, Message: e.Err.Error()})
	}
	return out
}

// isDomainErr reports errors that are expected outcomes rather than failures worth an error log.
func isDomainErr(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrAlreadyExists) ||
		errors.Is(err, repository.ErrConflict) ||
		errors.Is(err, context.Canceled)
}

// Stores groups the per-collection stores the services run on.
type Stores struct {
	Customers repository.Store[model.Customer]
	Products  repository.Store[model.Product]
	Documents repository.Store[model.Document]
	Cases     repository.Store[model.LegalCase]
	Contracts repository.Store[model.Contract]
	Audits    repository.Store[model.ComplianceAudit]
}

// Services is the full set of use cases exposed over HTTP.
type Services struct {
	Customers  Resource[model.Customer, CustomerCreate, CustomerUpdate]
	Products   Resource[model.Product, ProductCreate, ProductUpdate]
	Inventory  InventoryService
	Documents  Resource[model.Document, DocumentCreate, DocumentUpdate]
	Cases      Resource[model.LegalCase, CaseCreate, CaseUpdate]
	Contracts  Resource[model.Contract, ContractCreate, ContractUpdate]
	Audits     Resource[model.ComplianceAudit, AuditCreate, AuditUpdate]
	Compliance ComplianceService
}

// New wires every service over st.
func New(st Stores, logger zerolog.Logger) *Services {
	return &Services{
		Customers: NewResource[model.Customer, CustomerCreate, CustomerUpdate]("customer", st.Customers, repository.Customers.Schema, logger),
		Products:  NewResource[model.Product, ProductCreate, ProductUpdate]("product", st.Products, repository.Products.Schema, logger),
		Inventory: NewInventoryService(st.Products, logger),
		Documents: NewResource[model.Document, DocumentCreate, DocumentUpdate]("document", st.Documents, repository.Documents.Schema, logger),
		Cases: NewResource[model.LegalCase, CaseCreate, CaseUpdate]("case", st.Cases, repository.Cases.Schema, logger,
			WithReferences(customerExists(st.Customers))),
		Contracts: NewResource[model.Contract, ContractCreate, ContractUpdate]("contract", st.Contracts, repository.Contracts.Schema, logger,
			WithInvariant(contractPeriod)),
		Audits:     NewResource[model.ComplianceAudit, AuditCreate, AuditUpdate]("audit", st.Audits, repository.Audits.Schema, logger),
		Compliance: NewComplianceService(st.Audits, st.Cases, st.Contracts, repository.UTCNow, logger),
	}
}
