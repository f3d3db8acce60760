package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/kunalgupta7870/Sparkology-sub003/app/config"
	"github.com/kunalgupta7870/Sparkology-sub003/app/database"
	"github.com/kunalgupta7870/Sparkology-sub003/app/models"
	"github.com/kunalgupta7870/Sparkology-sub003/app/routes/auth"
)

func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password")
	firstName := flag.String("first-name", "Admin", "first name")
	lastName := flag.String("last-name", "User", "last name")
	schoolID := flag.String("school-id", "", "school UUID (generated when empty)")
	role := flag.String("role", "admin", "role to assign")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	if *schoolID == "" {
		*schoolID = uuid.NewString()
		log.Printf("Generated school ID: %s", *schoolID)
	}

	config.Load()
	db := config.GetDB()
	defer db.Close()

	hashed, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	user := &models.User{
		SchoolID:  *schoolID,
		Email:     *email,
		Password:  hashed,
		FirstName: *firstName,
		LastName:  *lastName,
	}

	if err := database.CreateUser(db, user, *role); err != nil {
		log.Fatal("Failed to create user:", err)
	}

	fmt.Printf("User created: %s %s (%s) role=%s school=%s\n",
		user.FirstName, user.LastName, user.Email, *role, user.SchoolID)
}
