package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maxviazov/tayseer-service/internal/model"
	"github.com/maxviazov/tayseer-service/internal/repository"
)

// Request bodies. Create inputs fill a zero entity; update inputs use pointers so that only the
// fields a client sent are overlaid on the stored record.

type CustomerCreate struct {
	Name   string `json:"name" validate:"required,notblank,min=2,max=100"`
	Email  string `json:"email" validate:"required,email,max=254"`
	Phone  string `json:"phone" validate:"omitempty,max=32"`
	Type   string `json:"type" validate:"required,oneof=individual company"`
	Status string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (in CustomerCreate) Apply(c model.Customer) model.Customer {
	c.Name = strings.TrimSpace(in.Name)
	c.Email = strings.TrimSpace(in.Email)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Type = in.Type
	c.Status = orDefault(in.Status, "active")
	return c
}

type CustomerUpdate struct {
	Name   *string `json:"name" validate:"omitempty,notblank,min=2,max=100"`
	Email  *string `json:"email" validate:"omitempty,email,max=254"`
	Phone  *string `json:"phone" validate:"omitempty,max=32"`
	Type   *string `json:"type" validate:"omitempty,oneof=individual company"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (in CustomerUpdate) Apply(c model.Customer) model.Customer {
	setTrimmed(&c.Name, in.Name)
	setTrimmed(&c.Email, in.Email)
	setTrimmed(&c.Phone, in.Phone)
	set(&c.Type, in.Type)
	set(&c.Status, in.Status)
	return c
}

type ProductCreate struct {
	SKU      string  `json:"sku" validate:"required,notblank,max=64"`
	Name     string  `json:"name" validate:"required,notblank,max=200"`
	Category string  `json:"category" validate:"required,notblank,max=100"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int64   `json:"quantity" validate:"gte=0"`
	Status   string  `json:"status" validate:"omitempty,oneof=active discontinued"`
}

func (in ProductCreate) Apply(p model.Product) model.Product {
	p.SKU = strings.TrimSpace(in.SKU)
	p.Name = strings.TrimSpace(in.Name)
	p.Category = strings.TrimSpace(in.Category)
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.Status = orDefault(in.Status, "active")
	return p
}

// ProductUpdate leaves quantity out: stock moves only through AdjustStock.
type ProductUpdate struct {
	SKU      *string  `json:"sku" validate:"omitempty,notblank,max=64"`
	Name     *string  `json:"name" validate:"omitempty,notblank,max=200"`
	Category *string  `json:"category" validate:"omitempty,notblank,max=100"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Status   *string  `json:"status" validate:"omitempty,oneof=active discontinued"`
}

func (in ProductUpdate) Apply(p model.Product) model.Product {
	setTrimmed(&p.SKU, in.SKU)
	setTrimmed(&p.Name, in.Name)
	setTrimmed(&p.Category, in.Category)
	set(&p.Price, in.Price)
	set(&p.Status, in.Status)
	return p
}

type DocumentCreate struct {
	Title   string `json:"title" validate:"required,notblank,max=200"`
	Type    string `json:"type" validate:"required,oneof=contract policy regulation memo"`
	Status  string `json:"status" validate:"omitempty,oneof=draft active archived"`
	Content string `json:"content" validate:"max=100000"`
}

func (in DocumentCreate) Apply(d model.Document) model.Document {
	d.Title = strings.TrimSpace(in.Title)
	d.Type = in.Type
	d.Status = orDefault(in.Status, "draft")
	d.Content = in.Content
	return d
}

type DocumentUpdate struct {
	Title   *string `json:"title" validate:"omitempty,notblank,max=200"`
	Type    *string `json:"type" validate:"omitempty,oneof=contract policy regulation memo"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft active archived"`
	Content *string `json:"content" validate:"omitempty,max=100000"`
}

func (in DocumentUpdate) Apply(d model.Document) model.Document {
	setTrimmed(&d.Title, in.Title)
	set(&d.Type, in.Type)
	set(&d.Status, in.Status)
	set(&d.Content, in.Content)
	return d
}

type CaseCreate struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Type        string `json:"type" validate:"required,oneof=litigation arbitration advisory"`
	Status      string `json:"status" validate:"omitempty,oneof=open in_progress closed"`
	CustomerID  int64  `json:"customer_id" validate:"gte=0"`
	Description string `json:"description" validate:"max=5000"`
}

func (in CaseCreate) Apply(c model.LegalCase) model.LegalCase {
	c.Title = strings.TrimSpace(in.Title)
	c.Type = in.Type
	c.Status = orDefault(in.Status, "open")
	c.CustomerID = in.CustomerID
	c.Description = in.Description
	return c
}

type CaseUpdate struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Type        *string `json:"type" validate:"omitempty,oneof=litigation arbitration advisory"`
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress closed"`
	CustomerID  *int64  `json:"customer_id" validate:"omitempty,gt=0"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
}

func (in CaseUpdate) Apply(c model.LegalCase) model.LegalCase {
	setTrimmed(&c.Title, in.Title)
	set(&c.Type, in.Type)
	set(&c.Status, in.Status)
	set(&c.CustomerID, in.CustomerID)
	set(&c.Description, in.Description)
	return c
}

type ContractCreate struct {
	Title     string    `json:"title" validate:"required,notblank,max=200"`
	Party     string    `json:"party" validate:"required,notblank,max=200"`
	Type      string    `json:"type" validate:"required,oneof=service supply employment lease"`
	Status    string    `json:"status" validate:"omitempty,oneof=draft active expired terminated"`
	Value     float64   `json:"value" validate:"gte=0"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

func (in ContractCreate) Apply(c model.Contract) model.Contract {
	c.Title = strings.TrimSpace(in.Title)
	c.Party = strings.TrimSpace(in.Party)
	c.Type = in.Type
	c.Status = orDefault(in.Status, "draft")
	c.Value = in.Value
	c.StartDate = in.StartDate.UTC()
	c.EndDate = in.EndDate.UTC()
	return c
}

type ContractUpdate struct {
	Title     *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Party     *string    `json:"party" validate:"omitempty,notblank,max=200"`
	Type      *string    `json:"type" validate:"omitempty,oneof=service supply employment lease"`
	Status    *string    `json:"status" validate:"omitempty,oneof=draft active expired terminated"`
	Value     *float64   `json:"value" validate:"omitempty,gte=0"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (in ContractUpdate) Apply(c model.Contract) model.Contract {
	setTrimmed(&c.Title, in.Title)
	setTrimmed(&c.Party, in.Party)
	set(&c.Type, in.Type)
	set(&c.Status, in.Status)
	set(&c.Value, in.Value)
	if in.StartDate != nil {
		c.StartDate = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		c.EndDate = in.EndDate.UTC()
	}
	return c
}

type AuditCreate struct {
	Title      string    `json:"title" validate:"required,notblank,max=200"`
	Department string    `json:"department" validate:"required,notblank,max=100"`
	Status     string    `json:"status" validate:"omitempty,oneof=scheduled in_progress completed"`
	Score      int64     `json:"score" validate:"gte=0,lte=100"`
	AuditDate  time.Time `json:"audit_date" validate:"required"`
}

func (in AuditCreate) Apply(a model.ComplianceAudit) model.ComplianceAudit {
	a.Title = strings.TrimSpace(in.Title)
	a.Department = strings.TrimSpace(in.Department)
	a.Status = orDefault(in.Status, "scheduled")
	a.Score = in.Score
	a.AuditDate = in.AuditDate.UTC()
	return a
}

type AuditUpdate struct {
	Title      *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Department *string    `json:"department" validate:"omitempty,notblank,max=100"`
	Status     *string    `json:"status" validate:"omitempty,oneof=scheduled in_progress completed"`
	Score      *int64     `json:"score" validate:"omitempty,gte=0,lte=100"`
	AuditDate  *time.Time `json:"audit_date"`
}

func (in AuditUpdate) Apply(a model.ComplianceAudit) model.ComplianceAudit {
	setTrimmed(&a.Title, in.Title)
	setTrimmed(&a.Department, in.Department)
	set(&a.Status, in.Status)
	set(&a.Score, in.Score)
	if in.AuditDate != nil {
		a.AuditDate = in.AuditDate.UTC()
	}
	return a
}

func set[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// customerExists rejects cases pointing at a customer that is not on file. Zero means unassigned.
func customerExists(customers repository.Store[model.Customer]) func(context.Context, model.LegalCase) ([]FieldError, error) {
	return func(ctx context.Context, c model.LegalCase) ([]FieldError, error) {
		if c.CustomerID == 0 {
			return nil, nil
		}
		if _, err := customers.GetByID(ctx, c.CustomerID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return []FieldError{{Field: "customer_id", Message: "customer does not exist"}}, nil
			}
			return nil, err
		}
		return nil, nil
	}
}

func contractPeriod(c model.Contract) []FieldError {
	if c.EndDate.Before(c.StartDate) {
		return []FieldError{{Field: "end_date", Message: "must not be before start_date"}}
	}
	return nil
}
