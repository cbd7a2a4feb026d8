// Package validation holds the field rules of an employee record.
// Every rule is evaluated and failures are reported per field, so a form can
// show all of them at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/locvowork/employee_directory/internal/domain"
)

// MsgEmailInUse is reported on the email field when another record already
// uses the address.
const MsgEmailInUse = "email in use"

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

var fieldLabels = map[string]string{
	"firstName":  "First Name",
	"lastName":   "Last Name",
	"email":      "Email Address",
	"department": "Department",
	"role":       "Role",
}

// Label returns the human readable name of a record field.
func Label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// Validator checks EmployeeFields against the directory rules.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "emailshape", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "department", func(fl validator.FieldLevel) bool {
		return domain.ValidDepartment(fl.Field().String())
	})
	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Fields runs the per-field rules. It is pure: uniqueness is not checked.
// The returned map is keyed by JSON field name and is empty when f is valid.
func (v *Validator) Fields(f domain.EmployeeFields) map[string]string {
	out := map[string]string{}
	err := v.validate.Struct(f)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := Label(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
	case "personname":
		return fmt.Sprintf("%s can only contain letters, spaces, hyphens, and apostrophes", label)
	case "emailshape":
		return "Please enter a valid email address"
	case "department":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(domain.Departments(), ", "))
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// EmailUnique reports whether no record other than excludeID uses email,
// compared case-insensitively. Pass excludeID 0 on create.
func EmailUnique(collection []domain.Employee, email string, excludeID int64) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, e := range collection {
		if e.ID == excludeID && excludeID != 0 {
			continue
		}
		if strings.ToLower(e.Email) == needle {
			return false
		}
	}
	return true
}

// Validate runs every rule, uniqueness included, against collection.
// It returns nil or a *domain.ValidationError listing each failing field.
func (v *Validator) Validate(collection []domain.Employee, f domain.EmployeeFields, excludeID int64) error {
	errs := v.Fields(f)
	if _, bad := errs["email"]; !bad && !EmailUnique(collection, f.Email, excludeID) {
		errs["email"] = MsgEmailInUse
	}
	if len(errs) == 0 {
		return nil
	}
	return &domain.ValidationError{Fields: errs}
}
