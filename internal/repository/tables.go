package repository

import (
	"strings"
	"time"

	"github.com/maxviazov/tayseer-service/internal/model"
	"github.com/maxviazov/tayseer-service/internal/query"
)

// Scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table binds an entity to its storage layout and its list schema.
// Every store, in-memory or SQL, is driven by the same descriptor.
type Table[T any] struct {
	Name string
	// Columns lists persisted columns except id, in the order Values returns them.
	Columns []string
	Values  func(T) []any
	// Scan reads id followed by Columns.
	Scan   func(Scanner) (T, error)
	Schema query.Schema[T]
	// Conflicts reports whether two records collide on a unique attribute. Nil means no unique keys.
	Conflicts func(a, b T) bool
}

// SelectColumns is id followed by Columns.
func (t Table[T]) SelectColumns() []string {
	return append([]string{"id"}, t.Columns...)
}

func sameFold(a, b string) bool { return a != "" && strings.EqualFold(a, b) }

func auditFields[T any](id func(T) int64, created, updated func(T) time.Time) map[string]query.Field[T] {
	return map[string]query.Field[T]{
		"id":         query.Int("id", id),
		"created_at": query.Time("created_at", created),
		"updated_at": query.Time("updated_at", updated),
	}
}

func withFields[T any](base map[string]query.Field[T], extra map[string]query.Field[T]) query.Schema[T] {
	for k, v := range extra {
		base[k] = v
	}
	return query.NewSchema(base)
}

// Customers describes the customers table.
var Customers = Table[model.Customer]{
	Name:    "customers",
	Columns: []string{"name", "email", "phone", "type", "status", "created_at", "updated_at"},
	Values: func(c model.Customer) []any {
		return []any{c.Name, c.Email, c.Phone, c.Type, c.Status, c.CreatedAt, c.UpdatedAt}
	},
	Scan: func(s Scanner) (model.Customer, error) {
		var c model.Customer
		err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Type, &c.Status, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	},
	Schema: withFields(
		auditFields(func(c model.Customer) int64 { return c.ID },
			func(c model.Customer) time.Time { return c.CreatedAt },
			func(c model.Customer) time.Time { return c.UpdatedAt }),
		map[string]query.Field[model.Customer]{
			"name":   query.SortOnly(query.String("name", func(c model.Customer) string { return c.Name })),
			"email":  query.FilterOnly(query.String("email", func(c model.Customer) string { return c.Email })),
			"type":   query.String("type", func(c model.Customer) string { return c.Type }),
			"status": query.String("status", func(c model.Customer) string { return c.Status }),
		}),
	Conflicts: func(a, b model.Customer) bool { return sameFold(a.Email, b.Email) },
}

// Products describes the products table.
var Products = Table[model.Product]{
	Name:    "products",
	Columns: []string{"sku", "name", "category", "price", "quantity", "status", "created_at", "updated_at"},
	Values: func(p model.Product) []any {
		return []any{p.SKU, p.Name, p.Category, p.Price, p.Quantity, p.Status, p.CreatedAt, p.UpdatedAt}
	},
	Scan: func(s Scanner) (model.Product, error) {
		var p model.Product
		err := s.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Price, &p.Quantity, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	},
	Schema: withFields(
		auditFields(func(p model.Product) int64 { return p.ID },
			func(p model.Product) time.Time { return p.CreatedAt },
			func(p model.Product) time.Time { return p.UpdatedAt }),
		map[string]query.Field[model.Product]{
			"sku":      query.FilterOnly(query.String("sku", func(p model.Product) string { return p.SKU })),
			"name":     query.SortOnly(query.String("name", func(p model.Product) string { return p.Name })),
			"category": query.String("category", func(p model.Product) string { return p.Category }),
			"status":   query.String("status", func(p model.Product) string { return p.Status }),
			"price":    query.SortOnly(query.Float("price", func(p model.Product) float64 { return p.Price })),
			"quantity": query.Int("quantity", func(p model.Product) int64 { return p.Quantity }),
		}),
	Conflicts: func(a, b model.Product) bool { return sameFold(a.SKU, b.SKU) },
}

// Documents describes the legal documents table.
var Documents = Table[model.Document]{
	Name:    "documents",
	Columns: []string{"title", "type", "status", "content", "created_at", "updated_at"},
	Values: func(d model.Document) []any {
		return []any{d.Title, d.Type, d.Status, d.Content, d.CreatedAt, d.UpdatedAt}
	},
	Scan: func(s Scanner) (model.Document, error) {
		var d model.Document
		err := s.Scan(&d.ID, &d.Title, &d.Type, &d.Status, &d.Content, &d.CreatedAt, &d.UpdatedAt)
		return d, err
	},
	Schema: withFields(
		auditFields(func(d model.Document) int64 { return d.ID },
			func(d model.Document) time.Time { return d.CreatedAt },
			func(d model.Document) time.Time { return d.UpdatedAt }),
		map[string]query.Field[model.Document]{
			"title":  query.SortOnly(query.String("title", func(d model.Document) string { return d.Title })),
			"type":   query.String("type", func(d model.Document) string { return d.Type }),
			"status": query.String("status", func(d model.Document) string { return d.Status }),
		}),
}

// Cases describes the legal cases table.
var Cases = Table[model.LegalCase]{
	Name:    "legal_cases",
	Columns: []string{"title", "type", "status", "customer_id", "description", "created_at", "updated_at"},
	Values: func(c model.LegalCase) []any {
		return []any{c.Title, c.Type, c.Status, c.CustomerID, c.Description, c.CreatedAt, c.UpdatedAt}
	},
	Scan: func(s Scanner) (model.LegalCase, error) {
		var c model.LegalCase
		err := s.Scan(&c.ID, &c.Title, &c.Type, &c.Status, &c.CustomerID, &c.Description, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	},
	Schema: withFields(
		auditFields(func(c model.LegalCase) int64 { return c.ID },
			func(c model.LegalCase) time.Time { return c.CreatedAt },
			func(c model.LegalCase) time.Time { return c.UpdatedAt }),
		map[string]query.Field[model.LegalCase]{
			"title":       query.SortOnly(query.String("title", func(c model.LegalCase) string { return c.Title })),
			"type":        query.String("type", func(c model.LegalCase) string { return c.Type }),
			"status":      query.String("status", func(c model.LegalCase) string { return c.Status }),
			"customer_id": query.FilterOnly(query.Int("customer_id", func(c model.LegalCase) int64 { return c.CustomerID })),
		}),
}

// Contracts describes the contracts table.
var Contracts = Table[model.Contract]{
	Name:    "contracts",
	Columns: []string{"title", "party", "type", "status", "value", "start_date", "end_date", "created_at", "updated_at"},
	Values: func(c model.Contract) []any {
		return []any{c.Title, c.Party, c.Type, c.Status, c.Value, c.StartDate, c.EndDate, c.CreatedAt, c.UpdatedAt}
	},
	Scan: func(s Scanner) (model.Contract, error) {
		var c model.Contract
		err := s.Scan(&c.ID, &c.Title, &c.Party, &c.Type, &c.Status, &c.Value, &c.StartDate, &c.EndDate, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	},
	Schema: withFields(
		auditFields(func(c model.Contract) int64 { return c.ID },
			func(c model.Contract) time.Time { return c.CreatedAt },
			func(c model.Contract) time.Time { return c.UpdatedAt }),
		map[string]query.Field[model.Contract]{
			"title":      query.SortOnly(query.String("title", func(c model.Contract) string { return c.Title })),
			"party":      query.FilterOnly(query.String("party", func(c model.Contract) string { return c.Party })),
			"type":       query.String("type", func(c model.Contract) string { return c.Type }),
			"status":     query.String("status", func(c model.Contract) string { return c.Status }),
			"value":      query.SortOnly(query.Float("value", func(c model.Contract) float64 { return c.Value })),
			"start_date": query.Time("start_date", func(c model.Contract) time.Time { return c.StartDate }),
			"end_date":   query.Time("end_date", func(c model.Contract) time.Time { return c.EndDate }),
		}),
}

// Audits describes the compliance audits table.
var Audits = Table[model.ComplianceAudit]{
	Name:    "compliance_audits",
	Columns: []string{"title", "department", "status", "score", "audit_date", "created_at", "updated_at"},
	Values: func(a model.ComplianceAudit) []any {
		return []any{a.Title, a.Department, a.Status, a.Score, a.AuditDate, a.CreatedAt, a.UpdatedAt}
	},
	Scan: func(s Scanner) (model.ComplianceAudit, error) {
		var a model.ComplianceAudit
		err := s.Scan(&a.ID, &a.Title, &a.Department, &a.Status, &a.Score, &a.AuditDate, &a.CreatedAt, &a.UpdatedAt)
		return a, err
	},
	Schema: withFields(
		auditFields(func(a model.ComplianceAudit) int64 { return a.ID },
			func(a model.ComplianceAudit) time.Time { return a.CreatedAt },
			func(a model.ComplianceAudit) time.Time { return a.UpdatedAt }),
		map[string]query.Field[model.ComplianceAudit]{
			"title":      query.SortOnly(query.String("title", func(a model.ComplianceAudit) string { return a.Title })),
			"department": query.String("department", func(a model.ComplianceAudit) string { return a.Department }),
			"status":     query.String("status", func(a model.ComplianceAudit) string { return a.Status }),
			"score":      query.SortOnly(query.Int("score", func(a model.ComplianceAudit) int64 { return a.Score })),
			"audit_date": query.Time("audit_date", func(a model.ComplianceAudit) time.Time { return a.AuditDate }),
		}),
}
