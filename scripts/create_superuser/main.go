package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/franciscosanchezn/gin-recipe-api/internal/database"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	email := flag.String("email", "", "Email used to log in")
	username := flag.String("username", "admin", "Unique username")
	password := flag.String("password", "", "Password (min 8 characters)")
	firstName := flag.String("first-name", "Admin", "First name")
	lastName := flag.String("last-name", "User", "Last name")
	flag.Parse()

	if *email == "" || len(*password) < 8 {
		flag.Usage()
		log.Fatal("-email and a -password of at least 8 characters are required")
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.InitDatabase(conf.Database())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Promote an existing account instead of failing on the unique email
	var user models.User
	err = db.Where("email = ?", strings.ToLower(*email)).First(&user).Error
	switch {
	case err == nil:
		if err := user.SetPassword(*password); err != nil {
			log.Fatal("Failed to hash password:", err)
		}
		user.IsStaff, user.IsSuperuser, user.IsActive = true, true, true
		if err := db.Save(&user).Error; err != nil {
			log.Fatal("Failed to update user:", err)
		}
		fmt.Printf("Existing user promoted to superuser: %s (ID: %d)\n", user.Email, user.ID)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:       strings.ToLower(*email),
			Username:    *username,
			FirstName:   *firstName,
			LastName:    *lastName,
			IsStaff:     true,
			IsSuperuser: true,
			IsActive:    true,
		}
		if err := user.SetPassword(*password); err != nil {
			log.Fatal("Failed to hash password:", err)
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatal("Failed to create user:", err)
		}
		fmt.Printf("✓ Superuser created: %s (ID: %d)\n", user.Email, user.ID)
	default:
		log.Fatal("Failed to look up user:", err)
	}

	fmt.Println("\nLog in with:")
	fmt.Printf("curl -X POST http://%s:%d/api/auth/token/login/ \\\n", conf.Host, conf.Port)
	fmt.Printf("  -H 'Content-Type: application/json' \\\n")
	fmt.Printf("  -d '{\"email\": \"%s\", \"password\": \"<password>\"}'\n", user.Email)
}
