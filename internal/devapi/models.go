package devapi

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Roles stored on users
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"_id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents an account
type User struct {
	BaseModel
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         string `json:"role" gorm:"not null;default:USER"`
	ProfilePhoto string `json:"profilePhoto"`
}

// Plan represents a recharge plan in the catalog
type Plan struct {
	BaseModel
	Provider string  `json:"provider" gorm:"index;not null"`
	PlanName string  `json:"planName" gorm:"not null"`
	Price    float64 `json:"price" gorm:"not null"`
	Data     string  `json:"data"`
	Validity string  `json:"validity"`
	AddOns   string  `json:"addOns"`
}

// Transaction represents one recharge. Plan and User are preloaded for responses.
type Transaction struct {
	BaseModel
	UserID        string  `json:"-" gorm:"index;not null"`
	User          *User   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	MobileNumber  string  `json:"mobileNumber" gorm:"not null"`
	Provider      string  `json:"provider"`
	PlanID        string  `json:"-" gorm:"index"`
	Plan          *Plan   `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
}

// Feedback represents a testimonial; only approved ones are public
type Feedback struct {
	BaseModel
	UserID       string `json:"userId" gorm:"index"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto"`
	Feedback     string `json:"feedback" gorm:"type:text;not null"`
	Rating       int    `json:"rating"`
	Approved     bool   `json:"approved" gorm:"not null;default:false"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Plan{},
		&Transaction{},
		&Feedback{},
		&Settings{},
	)
}

// Settings is a singleton row holding generated server secrets
type Settings struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}
