// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes; the only behavior is what the list engine needs
// to address and touch a record.
package model

import "time"

// Customer represents a client of the business, either a person or a company.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Type      string    `json:"type"`   // individual, company
	Status    string    `json:"status"` // active, inactive
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a catalog item with its current stock level.
type Product struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int64     `json:"quantity"`
	Status    string    `json:"status"` // active, discontinued
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is a legal document tracked by the legal module.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`   // contract, policy, regulation, memo
	Status    string    `json:"status"` // draft, active, archived
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LegalCase is a matter handled for a customer.
type LegalCase struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`   // litigation, arbitration, advisory
	Status      string    `json:"status"` // open, in_progress, closed
	CustomerID  int64     `json:"customer_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contract is an agreement with an external party.
type Contract struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Party     string    `json:"party"`
	Type      string    `json:"type"`   // service, supply, employment, lease
	Status    string    `json:"status"` // draft, active, expired, terminated
	Value     float64   `json:"value"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComplianceAudit is a scheduled or completed internal audit of a department.
type ComplianceAudit struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Department string    `json:"department"`
	Status     string    `json:"status"` // scheduled, in_progress, completed
	Score      int64     `json:"score"`  // 0..100, meaningful once completed
	AuditDate  time.Time `json:"audit_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ComplianceReport summarizes audits together with open legal exposure.
// It's a read-only model derived from the stores and is not persisted.
type ComplianceReport struct {
	TotalAudits       int               `json:"total_audits"`
	AuditsByStatus    map[string]int    `json:"audits_by_status"`
	AverageScore      float64           `json:"average_score"`
	RecentAudits      []ComplianceAudit `json:"recent_audits"`
	OpenCases         int               `json:"open_cases"`
	ActiveContracts   int               `json:"active_contracts"`
	ActiveContractSum float64           `json:"active_contract_value"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

func (c Customer) Key() int64 { return c.ID }
func (c Customer) Touch(at time.Time) Customer {
	c.UpdatedAt = at
	return c
}

func (p Product) Key() int64 { return p.ID }
func (p Product) Touch(at time.Time) Product {
	p.UpdatedAt = at
	return p
}

func (d Document) Key() int64 { return d.ID }
func (d Document) Touch(at time.Time) Document {
	d.UpdatedAt = at
	return d
}

func (c LegalCase) Key() int64 { return c.ID }
func (c LegalCase) Touch(at time.Time) LegalCase {
	c.UpdatedAt = at
	return c
}

func (c Contract) Key() int64 { return c.ID }
func (c Contract) Touch(at time.Time) Contract {
	c.UpdatedAt = at
	return c
}

func (a ComplianceAudit) Key() int64 { return a.ID }
func (a ComplianceAudit) Touch(at time.Time) ComplianceAudit {
	a.UpdatedAt = at
	return a
}

// Stamp assigns identity and creation time on insert.
func (c Customer) Stamp(id int64, at time.Time) Customer {
	c.ID, c.CreatedAt, c.UpdatedAt = id, at, at
	return c
}

func (p Product) Stamp(id int64, at time.Time) Product {
	p.ID, p.CreatedAt, p.UpdatedAt = id, at, at
	return p
}

func (d Document) Stamp(id int64, at time.Time) Document {
	d.ID, d.CreatedAt, d.UpdatedAt = id, at, at
	return d
}

func (c LegalCase) Stamp(id int64, at time.Time) LegalCase {
	c.ID, c.CreatedAt, c.UpdatedAt = id, at, at
	return c
}

func (c Contract) Stamp(id int64, at time.Time) Contract {
	c.ID, c.CreatedAt, c.UpdatedAt = id, at, at
	return c
}

func (a ComplianceAudit) Stamp(id int64, at time.Time) ComplianceAudit {
	a.ID, a.CreatedAt, a.UpdatedAt = id, at, at
	return a
}
