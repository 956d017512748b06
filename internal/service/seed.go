package service

import (
	"context"
	"fmt"
	"time"
)

// Seed loads a small demo data set through the regular use cases, so it obeys every validation rule.
func Seed(ctx context.Context, s *Services) error {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	customers := []CustomerCreate{
		{Name: "Al Noor Trading", Email: "office@alnoor.example", Phone: "+971 4 555 0101", Type: "company"},
		{Name: "Sara Haddad", Email: "sara.haddad@example.com", Type: "individual"},
		{Name: "Gulf Logistics", Email: "legal@gulflog.example", Type: "company", Status: "inactive"},
	}
	var firstCustomer int64
	for i, in := range customers {
		c, err := s.Customers.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed customer %q: %w", in.Email, err)
		}
		if i == 0 {
			firstCustomer = c.ID
		}
	}

	products := []ProductCreate{
		{SKU: "PAP-A4-500", Name: "A4 paper, 500 sheets", Category: "office", Price: 4.5, Quantity: 120},
		{SKU: "TON-HP-85A", Name: "Toner HP 85A", Category: "office", Price: 62, Quantity: 3},
		{SKU: "CHR-ERG-01", Name: "Ergonomic chair", Category: "furniture", Price: 310, Quantity: 7},
		{SKU: "SHR-CRS-12", Name: "Cross-cut shredder", Category: "equipment", Price: 145, Quantity: 0, Status: "discontinued"},
	}
	for _, in := range products {
		if _, err := s.Products.Create(ctx, in); err != nil {
			return fmt.Errorf("seed product %q: %w", in.SKU, err)
		}
	}

	documents := []DocumentCreate{
		{Title: "Data retention policy", Type: "policy", Status: "active"},
		{Title: "Supplier NDA template", Type: "contract"},
		{Title: "AML regulation summary", Type: "regulation", Status: "archived"},
	}
	for _, in := range documents {
		if _, err := s.Documents.Create(ctx, in); err != nil {
			return fmt.Errorf("seed document %q: %w", in.Title, err)
		}
	}

	cases := []CaseCreate{
		{Title: "Unpaid invoice dispute", Type: "litigation", CustomerID: firstCustomer},
		{Title: "Lease renewal advice", Type: "advisory", Status: "in_progress"},
		{Title: "Shipping damage claim", Type: "arbitration", Status: "closed", CustomerID: firstCustomer},
	}
	for _, in := range cases {
		if _, err := s.Cases.Create(ctx, in); err != nil {
			return fmt.Errorf("seed case %q: %w", in.Title, err)
		}
	}

	contracts := []ContractCreate{
		{Title: "Office lease", Party: "Marina Towers LLC", Type: "lease", Status: "active", Value: 240000,
			StartDate: day(2025, time.January, 1), EndDate: day(2027, time.December, 31)},
		{Title: "Cleaning services", Party: "Sparkle Co", Type: "service", Status: "active", Value: 18000,
			StartDate: day(2026, time.March, 1), EndDate: day(2027, time.February, 28)},
		{Title: "Stationery supply", Party: "PaperWorks", Type: "supply", Status: "expired", Value: 6000,
			StartDate: day(2024, time.January, 1), EndDate: day(2024, time.December, 31)},
	}
	for _, in := range contracts {
		if _, err := s.Contracts.Create(ctx, in); err != nil {
			return fmt.Errorf("seed contract %q: %w", in.Title, err)
		}
	}

	audits := []AuditCreate{
		{Title: "GDPR readiness", Department: "IT", Status: "completed", Score: 86, AuditDate: day(2026, time.June, 12)},
		{Title: "Expense controls", Department: "Finance", Status: "completed", Score: 74, AuditDate: day(2026, time.August, 3)},
		{Title: "Workplace safety", Department: "Operations", Status: "scheduled", AuditDate: day(2026, time.November, 20)},
	}
	for _, in := range audits {
		if _, err := s.Audits.Create(ctx, in); err != nil {
			return fmt.Errorf("seed audit %q: %w", in.Title, err)
		}
	}
	return nil
}
