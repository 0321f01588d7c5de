package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	require.True(t, errors.As(err, &fe), "expected FieldErrors, got %v", err)
	return fe
}

func TestValidate_Login(t *testing.T) {
	assert.NoError(t, Validate(&LoginForm{Email: "a@b.com", Password: "secret1"}))

	fe := fieldErrors(t, Validate(&LoginForm{Email: "not-an-email", Password: "123"}))
	assert.Equal(t, "Invalid email address", fe["Email"])
	assert.Equal(t, "Password must be at least 6 characters", fe["Password"])
}

func TestValidate_Signup(t *testing.T) {
	valid := SignupForm{
		Name:            "Asha",
		Email:           "asha@example.com",
		Phone:           "9876543210",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
	assert.NoError(t, Validate(&valid))

	tests := []struct {
		name   string
		mutate func(*SignupForm)
		field  string
		msg    string
	}{
		{"short name", func(f *SignupForm) { f.Name = "A" }, "Name", "Name must be at least 2 characters"},
		{"short phone", func(f *SignupForm) { f.Phone = "98765" }, "Phone", "Phone must be exactly 10 digits"},
		{"letters in phone", func(f *SignupForm) { f.Phone = "98765abcde" }, "Phone", "Phone must be exactly 10 digits"},
		{"mismatch", func(f *SignupForm) { f.ConfirmPassword = "secret2" }, "ConfirmPassword", "Passwords must match"},
		{"missing confirm", func(f *SignupForm) { f.ConfirmPassword = "" }, "ConfirmPassword", "Please confirm your password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			fe := fieldErrors(t, Validate(&form))
			assert.Equal(t, tt.msg, fe[tt.field])
			assert.Len(t, fe, 1)
		})
	}
}

func TestValidate_Recharge(t *testing.T) {
	assert.NoError(t, Validate(&RechargeForm{Phone: "9876543210", Operator: "Jio"}))
	assert.NoError(t, Validate(&RechargeForm{Phone: "9876543210", Operator: "bsnl"}))

	fe := fieldErrors(t, Validate(&RechargeForm{Phone: "9876543210", Operator: "Vodafone"}))
	assert.Contains(t, fe["Operator"], "Airtel, Jio, Vi, BSNL")

	fe = fieldErrors(t, Validate(&RechargeForm{}))
	assert.Equal(t, "Phone is required", fe["Phone"])
	assert.Equal(t, "Select an operator", fe["Operator"])
}

func TestValidate_Plan(t *testing.T) {
	assert.NoError(t, Validate(&PlanForm{Provider: "Jio", PlanName: "Popular", Price: 239, Validity: "28 days", Data: "1.5GB/day"}))

	fe := fieldErrors(t, Validate(&PlanForm{Provider: "Jio", PlanName: "Popular", Price: 0, Validity: "28 days", Data: "1GB"}))
	assert.Equal(t, "Price must be greater than 0", fe["Price"])
}

func TestValidate_Feedback(t *testing.T) {
	form := FeedbackForm{Feedback: "  great  ", Rating: 5}
	require.NoError(t, Validate(&form))
	assert.Equal(t, "great", form.Feedback)

	fe := fieldErrors(t, Validate(&FeedbackForm{Feedback: "   ", Rating: 6}))
	assert.Equal(t, "Feedback is required", fe["Feedback"])
	assert.Equal(t, "Rating must be between 1 and 5", fe["Rating"])

	fe = fieldErrors(t, Validate(&FeedbackForm{Feedback: "ok", Rating: 0}))
	assert.Equal(t, "Rating must be between 1 and 5", fe["Rating"])
}

func TestValidatePhotoSize(t *testing.T) {
	assert.NoError(t, ValidatePhotoSize(MaxPhotoBytes))
	err := ValidatePhotoSize(MaxPhotoBytes + 1)
	assert.Equal(t, "File size must be less than 5MB", fieldErrors(t, err)["Photo"])
}

func TestFieldErrors_ErrorIsStable(t *testing.T) {
	fe := FieldErrors{"Phone": "b", "Email": "a"}
	assert.Equal(t, "a; b", fe.Error())
}
