package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Trainers run allocation/remittance desks, heads additionally approve
// reversals, distributors only read their own state.
const (
	RoleTrainer     = "trainer"
	RoleHead        = "head"
	RoleDistributor = "distributor"
)

// User is a platform account. Distributors are users with RoleDistributor;
// tickets reference them through DistributorID.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }
