package main

import (
	"log"
	"os"

	"support-chat-be/internal/entity"
	"support-chat-be/internal/model"
	"support-chat-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds a demo directory: one director, two advisors, and three clients
// spread across the advisors' rosters. Idempotent on email.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding demo users...")

	advisorAnna := uuid.New()
	advisorBram := uuid.New()

	users := []model.User{
		{Id: uuid.New(), Email: "director@example.com", FullName: "Dana Director", Role: string(entity.UserRoleDirector)},
		{Id: advisorAnna, Email: "anna.advisor@example.com", FullName: "Anna Advisor", Role: string(entity.UserRoleAdvisor)},
		{Id: advisorBram, Email: "bram.advisor@example.com", FullName: "Bram Advisor", Role: string(entity.UserRoleAdvisor)},
		{Id: uuid.New(), Email: "carol.client@example.com", FullName: "Carol Client", Role: string(entity.UserRoleClient), AdvisorId: &advisorAnna},
		{Id: uuid.New(), Email: "chris.client@example.com", FullName: "Chris Client", Role: string(entity.UserRoleClient), AdvisorId: &advisorAnna},
		{Id: uuid.New(), Email: "casey.client@example.com", FullName: "Casey Client", Role: string(entity.UserRoleClient), AdvisorId: &advisorBram},
	}

	for _, u := range users {
		var existing model.User
		if err := db.Where("email = ?", u.Email).First(&existing).Error; err == nil {
			log.Printf("User '%s' already exists, skipping...", u.Email)
			continue
		}

		if err := db.Create(&u).Error; err != nil {
			log.Printf("Error creating user '%s': %v", u.Email, err)
		} else {
			log.Printf("Created user: %s (%s)", u.FullName, u.Role)
		}
	}

	log.Println("✅ User seeding completed!")
}
