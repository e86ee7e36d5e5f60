package schedule

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateVisitRequest holds the form fields of a new visit.
// Callers validate it before handing it to the store.
type CreateVisitRequest struct {
	Date    time.Time `json:"date" validate:"required"`
	Name    string    `json:"name" validate:"required,max=120"`
	Address string    `json:"address" validate:"required,max=255"`
	Phone   string    `json:"phone" validate:"required,max=32"`
}

// Normalize trims surrounding whitespace from the text fields
func (r CreateVisitRequest) Normalize() CreateVisitRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.Phone = strings.TrimSpace(r.Phone)
	return r
}

// Validate normalizes the request and checks every required field
func (r CreateVisitRequest) Validate() error {
	return toValidationError(validate.Struct(r.Normalize()))
}

// VisitPatch carries the changed fields of a visit edit; nil fields are left alone
type VisitPatch struct {
	Date    *time.Time `json:"date,omitempty"`
	Name    *string    `json:"name,omitempty" validate:"omitnil,min=1,max=120"`
	Address *string    `json:"address,omitempty" validate:"omitnil,min=1,max=255"`
	Phone   *string    `json:"phone,omitempty" validate:"omitnil,min=1,max=32"`
}

// IsEmpty reports whether the patch changes nothing
func (p VisitPatch) IsEmpty() bool {
	return p.Date == nil && p.Name == nil && p.Address == nil && p.Phone == nil
}

// Validate checks that any provided field is non-empty
func (p VisitPatch) Validate() error {
	if p.IsEmpty() {
		return &ValidationError{Fields: []FieldError{{Field: "patch", Tag: "required"}}}
	}
	return toValidationError(validate.Struct(p))
}

// Apply returns a copy of v with the patch merged in
func (p VisitPatch) Apply(v Visit) Visit {
	if p.Date != nil {
		v.Date = *p.Date
	}
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Address != nil {
		v.Address = *p.Address
	}
	if p.Phone != nil {
		v.Phone = *p.Phone
	}
	return v
}

// FieldError names one failed field and the rule it broke
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// ValidationError reports every invalid field of a form
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Tag)
	}
	return "invalid visit: " + strings.Join(parts, ", ")
}

// Has reports whether field failed validation
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}
