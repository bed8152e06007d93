// Seeds a handful of demo consultants and posts for local development.
package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"consultant-hub/internal/config"
	"consultant-hub/internal/database"
	"consultant-hub/internal/models"
)

var consultants = []struct {
	Handle, Name, Specialization, Bio string
	Posts                             []string
}{
	{
		Handle: "dr_amina", Name: "Dr. Amina Yusuf", Specialization: "Cardiology",
		Bio: "Cardiologist with 12 years of clinical practice.",
		Posts: []string{
			"Hello patients! Ask me anything about heart health this week.",
			"Reminder: 30 minutes of walking a day makes a measurable difference.",
		},
	},
	{
		Handle: "dr_chen", Name: "Dr. Li Chen", Specialization: "Dermatology",
		Bio: "Skin health, explained simply.",
		Posts: []string{
			"Sunscreen is not seasonal. Wear it year-round.",
		},
	},
	{
		Handle: "dr_okafor", Name: "Dr. Ngozi Okafor", Specialization: "Nutrition",
		Bio:   "Dietitian focused on sustainable eating habits.",
		Posts: []string{},
	},
}

func main() {
	cfg := config.LoadConfig()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	for i, c := range consultants {
		consultant := models.Consultant{
			ID:             uuid.New().String(),
			Handle:         c.Handle,
			Email:          fmt.Sprintf("%s@example.com", c.Handle),
			Name:           c.Name,
			Specialization: c.Specialization,
			Bio:            c.Bio,
			CredentialHash: string(hash),
		}
		var existing models.Consultant
		if err := db.Where("handle = ?", c.Handle).First(&existing).Error; err == nil {
			log.Printf("skip %s: already seeded", c.Handle)
			continue
		}
		if err := db.Create(&consultant).Error; err != nil {
			log.Fatalf("Failed to seed consultant %s: %v", c.Handle, err)
		}
		for _, body := range c.Posts {
			post := models.Post{
				ID:           uuid.New().String(),
				ConsultantID: consultant.ID,
				Body:         body,
				Visible:      true,
			}
			if err := db.Create(&post).Error; err != nil {
				log.Fatalf("Failed to seed post for %s: %v", c.Handle, err)
			}
		}
		log.Printf("seeded %s (%d/%d)", c.Handle, i+1, len(consultants))
	}
	log.Println("Seeding completed. Demo password for all accounts: password")
}
