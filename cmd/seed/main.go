package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"tourbook/internal/database"
	"tourbook/internal/domain"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "tourbook.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Booking{},
		&domain.Payment{},
		&domain.WebhookEvent{},
		&domain.Notification{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM webhook_events")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM users")

	// ================== USERS ==================
	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@tourbook.vn",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Admin",
	}
	db.Create(&admin)
	log.Println("Admin created: admin@tourbook.vn / admin123")

	opHash, _ := bcrypt.GenerateFromPassword([]byte("operator123"), bcrypt.DefaultCost)
	operator := domain.User{
		Email:        "ops@tourbook.vn",
		PasswordHash: string(opHash),
		Role:         domain.RoleOperator,
		Name:         "Operator",
	}
	db.Create(&operator)

	clients := []domain.User{}
	clientEmails := []string{"linh@gmail.com", "minh@gmail.com", "huong@gmail.com"}
	for i, email := range clientEmails {
		hash, _ := bcrypt.GenerateFromPassword([]byte("client123"), bcrypt.DefaultCost)
		client := domain.User{
			Email:        email,
			PasswordHash: string(hash),
			Role:         domain.RoleClient,
			Name:         fmt.Sprintf("Client %d", i+1),
			Phone:        fmt.Sprintf("+84 90 123 45%02d", i+10),
		}
		db.Create(&client)
		clients = append(clients, client)
	}

	// ================== BOOKINGS ==================
	log.Println("Creating bookings...")

	tours := []struct {
		name  string
		price int64
	}{
		{"Ha Long Bay Day Cruise", 1_450_000},
		{"Hoi An Lantern Evening", 680_000},
		{"Sapa Trekking 2D1N", 2_300_000},
		{"Mekong Delta Boat Tour", 890_000},
	}

	for i, c := range clients {
		tour := tours[i%len(tours)]
		guests := 1 + rand.Intn(3)
		b := domain.Booking{
			BookingNumber: fmt.Sprintf("TB%s%06X", time.Now().Format("060102"), rand.Intn(1<<24)),
			UserID:        c.ID,
			ServiceID:     int64(i%len(tours)) + 1,
			ServiceName:   tour.name,
			StartTime:     time.Now().AddDate(0, 0, 7+i),
			Guests:        guests,
			TotalPrice:    tour.price * int64(guests),
			Status:        domain.BookingPending,
			PaymentStatus: domain.BookingPaymentPending,
		}
		db.Create(&b)
		log.Printf("Booking %s: %s x%d = %d VND", b.BookingNumber, tour.name, guests, b.TotalPrice)
	}

	log.Println("Seed complete")
}
