package main

import (
	"log"
	"os"

	"tutorpay/internal/config"
	"tutorpay/internal/models"
	"tutorpay/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	repositories.InitDB()
	defer func() {
		if repositories.DB != nil {
			sqlDB, err := repositories.DB.DB()
			if err != nil {
				log.Printf("⚠️ Failed to get SQL DB instance: %v", err)
			} else {
				if err := sqlDB.Close(); err != nil {
					log.Printf("⚠️ Failed to close PostgreSQL connection: %v", err)
				}
			}
		}

		if repositories.CacheService != nil {
			if err := repositories.CacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}
	}()

	var existingAdmin models.User
	result := repositories.DB.Where("email = ?", adminEmail).First(&existingAdmin)
	if result.Error == nil {
		log.Println("Admin user already exists")
	} else {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Failed to hash password:", err)
		}

		adminUser := models.User{
			Email:        adminEmail,
			Password:     string(hashedPassword),
			Name:         "Platform Admin",
			Role:         models.RoleAdmin,
			TokenVersion: 1,
		}
		if err := repositories.DB.Create(&adminUser).Error; err != nil {
			log.Fatal("Failed to create admin user:", err)
		}
		log.Println("✅ Admin account created successfully!")
	}

	// Ensure the system wallet exists so dashboard reads and refund
	// shortfall debits have a row to work against.
	systemOwnerID := config.SystemWalletOwnerID()
	var systemWallet models.Wallet
	result = repositories.DB.Where("user_id = ?", systemOwnerID).First(&systemWallet)
	if result.Error == nil {
		log.Println("System wallet already exists")
		return
	}

	systemWallet = models.Wallet{UserID: systemOwnerID}
	if err := repositories.DB.Create(&systemWallet).Error; err != nil {
		log.Fatal("Failed to create system wallet:", err)
	}
	log.Println("✅ System wallet created successfully!")
}
