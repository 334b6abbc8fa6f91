package config

import (
	"log"

	"shams-vision/internal/adapters/persistence/models"
	"shams-vision/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedSampleStores(); err != nil {
		log.Printf("⚠️ Store seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		WorkID:   "ADMIN001",
		Username: "admin",
		Email:    "admin@shamsvision.sa",
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		Status:   models.UserStatusActive,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedSampleStores seeds a small set of stores for development
func (s *Seeder) seedSampleStores() error {
	var count int64
	s.db.Model(&models.Store{}).Count(&count)
	if count > 0 {
		return nil
	}

	stores := []models.Store{
		{Name: "Al Naseem Hypermarket", Code: "ST-001", District: "Al Naseem", Priority: models.PriorityHigh, Status: models.StoreStatusActive},
		{Name: "Al Rawdah Mini Market", Code: "ST-002", District: "Al Rawdah", Priority: models.PriorityMedium, Status: models.StoreStatusActive},
		{Name: "Corner Grocery Al Safa", Code: "ST-003", District: "Al Safa", Priority: models.PriorityLow, Status: models.StoreStatusActive},
	}

	if err := s.db.Create(&stores).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d sample stores", len(stores))
	return nil
}
