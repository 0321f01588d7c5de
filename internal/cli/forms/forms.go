// Package forms validates user input before anything is sent to the backend.
package forms

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Operators a recharge can target
var Operators = []string{"Airtel", "Jio", "Vi", "BSNL"}

// MaxPhotoBytes is the largest avatar accepted for upload
const MaxPhotoBytes = 5 * 1024 * 1024

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("operator", func(fl validator.FieldLevel) bool {
		for _, op := range Operators {
			if strings.EqualFold(op, fl.Field().String()) {
				return true
			}
		}
		return false
	})
	return v
}

// LoginForm is the login view's input
type LoginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// SignupForm is the signup view's input
type SignupForm struct {
	Name            string `validate:"required,min=2"`
	Email           string `validate:"required,email"`
	Phone           string `validate:"required,phone10"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// RechargeForm is the recharge view's input
type RechargeForm struct {
	Phone    string `validate:"required,phone10"`
	Operator string `validate:"required,operator"`
}

// PlanForm is the admin plan editor's input
type PlanForm struct {
	Provider string  `validate:"required"`
	PlanName string  `validate:"required"`
	Price    float64 `validate:"gt=0"`
	Validity string  `validate:"required"`
	Data     string  `validate:"required"`
	AddOns   string
}

// ProfileForm is the profile editor's input
type ProfileForm struct {
	Name  string `validate:"required,min=2"`
	Email string `validate:"required,email"`
	Phone string `validate:"required,phone10"`
}

// FeedbackForm is a testimonial
type FeedbackForm struct {
	Feedback string `validate:"required"`
	Rating   int    `validate:"min=1,max=5"`
}

// FieldErrors maps a form field to the message shown next to it
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fe[f])
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a form struct. It returns nil or FieldErrors.
func Validate(form any) error {
	if f, ok := form.(*FeedbackForm); ok {
		f.Feedback = strings.TrimSpace(f.Feedback)
	}

	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

// ValidatePhotoSize rejects avatars larger than MaxPhotoBytes
func ValidatePhotoSize(size int64) error {
	if size > MaxPhotoBytes {
		return FieldErrors{"Photo": "File size must be less than 5MB"}
	}
	return nil
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		if fe.Field() == "ConfirmPassword" {
			return "Please confirm your password"
		}
		if fe.Field() == "Operator" {
			return "Select an operator"
		}
		return label + " is required"
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Field() == "Rating" {
			return "Rating must be between 1 and 5"
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return "Rating must be between 1 and 5"
	case "phone10":
		return "Phone must be exactly 10 digits"
	case "operator":
		return "Operator must be one of: " + strings.Join(Operators, ", ")
	case "eqfield":
		return "Passwords must match"
	case "gt":
		return label + " must be greater than 0"
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

var labels = map[string]string{
	"Email":    "Email",
	"Password": "Password",
	"Name":     "Name",
	"Phone":    "Phone",
	"Provider": "Provider",
	"PlanName": "Plan name",
	"Price":    "Price",
	"Validity": "Validity",
	"Data":     "Data",
	"Feedback": "Feedback",
	"Rating":   "Rating",
}
