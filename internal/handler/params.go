package handler

import (
	"errors"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/maxviazov/tayseer-service/internal/query"
	"github.com/maxviazov/tayseer-service/internal/service"
)

var (
	validate      = newValidator()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("schema"), ",", 2)[0]
	})
	return v
}

// listParams are the reserved list query parameters. Every other key is a filter.
type listParams struct {
	Page      int    `schema:"page" validate:"gte=1"`
	Limit     int    `schema:"limit" validate:"gte=1,lte=100"`
	SortBy    string `schema:"sortBy" validate:"max=64"`
	SortOrder string `schema:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}

var reserved = map[string]bool{"page": true, "limit": true, "sortBy": true, "sortOrder": true}

// parseListQuery turns a query string into an engine query. Malformed or out-of-range values are
// rejected here so the engine only ever sees a well-formed request.
func parseListQuery[T any](values url.Values, s query.Schema[T]) (query.Query, error) {
	p := listParams{Page: 1, Limit: query.DefaultLimit}
	reservedOnly := url.Values{}
	for k, v := range values {
		if reserved[k] {
			reservedOnly[k] = v
		}
	}

	if err := decodeParams(&p, reservedOnly); err != nil {
		return query.Query{}, err
	}

	raw := make(map[string]string)
	for k, v := range values {
		if reserved[k] || len(v) == 0 {
			continue
		}
		raw[k] = v[0]
	}
	filters, qerrs := s.ParseFilters(raw)
	if len(qerrs) > 0 {
		return query.Query{}, service.NewInvalidInput(service.FromQueryErrors(qerrs))
	}

	order, _ := query.ParseOrder(p.SortOrder)
	q := query.Query{
		Page:      p.Page,
		Limit:     p.Limit,
		Filters:   filters,
		SortBy:    p.SortBy,
		SortOrder: order,
	}
	if qerrs := s.Validate(q); len(qerrs) > 0 {
		return query.Query{}, service.NewInvalidInput(service.FromQueryErrors(qerrs))
	}
	return q, nil
}

// decodeParams fills dst from the query string and runs its validate tags.
func decodeParams(dst any, values url.Values) error {
	var ferrs []service.FieldError
	if err := schemaDecoder.Decode(dst, values); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			return service.NewInvalidInput([]service.FieldError{{Field: "query", Message: "malformed query string"}})
		}
		for field := range multi {
			ferrs = append(ferrs, service.FieldError{Field: field, Message: "must be an integer"})
		}
		return service.NewInvalidInput(sortFieldErrors(ferrs))
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			ferrs = append(ferrs, service.FieldError{Field: fe.Field(), Message: paramMessage(fe)})
		}
		return service.NewInvalidInput(sortFieldErrors(ferrs))
	}
	return nil
}

func paramMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be asc or desc"
	case "max":
		return "length must be <= " + fe.Param()
	default:
		return "is invalid"
	}
}

func sortFieldErrors(fe []service.FieldError) []service.FieldError {
	sort.Slice(fe, func(i, j int) bool { return fe[i].Field < fe[j].Field })
	return fe
}

// parseID reads a positive path id; anything else is invalid input rather than a 404.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, service.NewInvalidInput([]service.FieldError{{Field: "id", Message: "must be a positive integer"}})
	}
	return id, nil
}
