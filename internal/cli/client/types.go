package client

import (
	"bytes"
	"encoding/json"
	"time"
)

// User is the backend's user record. Role is "USER" or "ADMIN".
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ProfileUpdate is a partial user update; empty fields are left out
type ProfileUpdate struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// Plan is a recharge plan in the catalog
type Plan struct {
	ID       string  `json:"_id"`
	Provider string  `json:"provider"`
	PlanName string  `json:"planName"`
	Price    float64 `json:"price"`
	Data     string  `json:"data"`
	Validity string  `json:"validity"`
	AddOns   string  `json:"addOns,omitempty"`
}

// PlanInput is the body for creating or replacing a plan
type PlanInput struct {
	Provider string  `json:"provider"`
	PlanName string  `json:"planName"`
	Price    float64 `json:"price"`
	Data     string  `json:"data"`
	Validity string  `json:"validity"`
	AddOns   string  `json:"addOns,omitempty"`
}

// Transaction is one recharge in the transaction log
type Transaction struct {
	ID            string    `json:"_id"`
	User          UserRef   `json:"userId"`
	MobileNumber  string    `json:"mobileNumber"`
	Provider      string    `json:"provider"`
	Plan          PlanRef   `json:"planId"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TransactionInput is the body for appending a transaction
type TransactionInput struct {
	UserID        string  `json:"userId"`
	MobileNumber  string  `json:"mobileNumber"`
	Provider      string  `json:"provider"`
	PlanID        string  `json:"planId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}

// Feedback is a testimonial
type Feedback struct {
	ID           string    `json:"_id,omitempty"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	ProfilePhoto string    `json:"profilePhoto"`
	Feedback     string    `json:"feedback"`
	Rating       int       `json:"rating"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FeedbackInput is the body for submitting a testimonial
type FeedbackInput struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto"`
	Feedback     string `json:"feedback"`
	Rating       int    `json:"rating"`
}

// PlanRef is a transaction's plan, either a bare id or the populated plan
type PlanRef struct {
	ID   string
	Plan *Plan
}

func (r *PlanRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	r.ID = p.ID
	r.Plan = &p
	return nil
}

func (r PlanRef) MarshalJSON() ([]byte, error) {
	if r.Plan != nil {
		return json.Marshal(r.Plan)
	}
	return json.Marshal(r.ID)
}

// Name returns the plan name when populated
func (r PlanRef) Name() string {
	if r.Plan == nil {
		return ""
	}
	return r.Plan.PlanName
}

// UserRef is a transaction's owner, either a bare id or the populated user
type UserRef struct {
	ID   string
	User *User
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &r.ID)
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	r.ID = u.ID
	r.User = &u
	return nil
}

func (r UserRef) MarshalJSON() ([]byte, error) {
	if r.User != nil {
		return json.Marshal(r.User)
	}
	return json.Marshal(r.ID)
}
