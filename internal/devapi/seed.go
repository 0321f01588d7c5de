package devapi

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed default_seed.yaml
var defaultSeed []byte

// Seed is the initial catalog loaded into an empty database
type Seed struct {
	Plans     []SeedPlan     `yaml:"plans"`
	Feedbacks []SeedFeedback `yaml:"feedbacks"`
}

// SeedPlan is a plan entry in the seed file
type SeedPlan struct {
	Provider string  `yaml:"provider"`
	PlanName string  `yaml:"planName"`
	Price    float64 `yaml:"price"`
	Data     string  `yaml:"data"`
	Validity string  `yaml:"validity"`
	AddOns   string  `yaml:"addOns"`
}

// SeedFeedback is an approved testimonial in the seed file
type SeedFeedback struct {
	Name     string `yaml:"name"`
	Feedback string `yaml:"feedback"`
	Rating   int    `yaml:"rating"`
}

// LoadSeed reads a seed file, or the built-in one when path is empty
func LoadSeed(path string) (*Seed, error) {
	data := defaultSeed
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = b
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, p := range seed.Plans {
		if p.Provider == "" || p.PlanName == "" || p.Price <= 0 {
			return nil, fmt.Errorf("seed plan %d: provider, planName and a positive price are required", i)
		}
	}
	for i, f := range seed.Feedbacks {
		if f.Rating < 1 || f.Rating > 5 {
			return nil, fmt.Errorf("seed feedback %d: rating must be between 1 and 5", i)
		}
	}
	return &seed, nil
}

// seed fills an empty catalog and creates the configured admin account
func (s *Server) seed() error {
	if err := s.seedAdmin(); err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&Plan{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed, err := LoadSeed(s.config.SeedFile)
	if err != nil {
		return err
	}

	for _, p := range seed.Plans {
		plan := &Plan{
			Provider: p.Provider,
			PlanName: p.PlanName,
			Price:    p.Price,
			Data:     p.Data,
			Validity: p.Validity,
			AddOns:   p.AddOns,
		}
		if err := s.db.Create(plan).Error; err != nil {
			return fmt.Errorf("failed to seed plan: %w", err)
		}
	}
	for _, f := range seed.Feedbacks {
		feedback := &Feedback{
			Name:     f.Name,
			Feedback: f.Feedback,
			Rating:   f.Rating,
			Approved: true,
		}
		if err := s.db.Create(feedback).Error; err != nil {
			return fmt.Errorf("failed to seed feedback: %w", err)
		}
	}

	s.logger.Info().Int("plans", len(seed.Plans)).Int("feedbacks", len(seed.Feedbacks)).Msg("Seeded catalog")
	return nil
}

func (s *Server) seedAdmin() error {
	if s.config.AdminEmail == "" {
		return nil
	}
	if s.config.AdminPass == "" {
		return fmt.Errorf("DEVAPI_ADMIN_PASSWORD is required when DEVAPI_ADMIN_EMAIL is set")
	}

	email := strings.ToLower(s.config.AdminEmail)
	var existing User
	err := s.db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role == RoleAdmin {
			return nil
		}
		// The configured admin address was registered as an ordinary account
		if err := s.db.Model(&existing).Update("role", RoleAdmin).Error; err != nil {
			return fmt.Errorf("failed to promote admin user: %w", err)
		}
		s.logger.Warn().Str("email", email).Str("user_id", existing.ID).Msg("Promoted existing account to admin")
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	passwordHash, err := HashPassword(s.config.AdminPass)
	if err != nil {
		return err
	}
	admin := &User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("Created admin user")
	return nil
}
