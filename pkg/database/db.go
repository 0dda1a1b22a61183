package database

import (
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// APIKey represents the api_keys table. Keys give wall boards read-only
// access to POB figures.
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// NewAPIKey builds a key record with a masked preview for listings
func NewAPIKey(key, name string, rateLimit int) APIKey {
	if rateLimit <= 0 {
		rateLimit = 10000
	}
	preview := "****"
	if len(key) > 8 {
		preview = key[:3] + "..." + key[len(key)-4:]
	}
	return APIKey{Key: key, Name: name, KeyPreview: preview, RateLimit: rateLimit}
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	POBQueries   int    `gorm:"default:0" json:"pob_queries"`
}

// Operator represents the operators table
type Operator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	HomeLocation string    `json:"home_location"`
	CreatedAt    time.Time `json:"created_at"`
}

// TripRecord represents the trips table
type TripRecord struct {
	ID                 string             `gorm:"primaryKey;size:64"`
	PassengerID        string             `gorm:"index;not null"`
	FromOrigin         string             `gorm:"index;not null"`
	ToDestination      string             `gorm:"index;not null"`
	TripDate           string             `gorm:"index;size:10;not null"`
	Confirmed          bool               `gorm:"default:false"`
	NumberOfPassengers *int
	SortIndices        models.SortIndices `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (TripRecord) TableName() string { return "trips" }

// SiteRecord represents the sites table
type SiteRecord struct {
	ID             string `gorm:"primaryKey;size:64"`
	SiteName       string `gorm:"unique;not null"`
	CurrentPOB     int    `gorm:"default:0"`
	MaximumPOB     int    `gorm:"default:0"`
	POBUpdatedDate string `gorm:"size:10"`
	UpdatedAt      time.Time
}

func (SiteRecord) TableName() string { return "sites" }

// PassengerRecord represents the passengers table
type PassengerRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	FirstName string `gorm:"not null"`
	LastName  string `gorm:"not null"`
	JobRole   string
	CreatedAt time.Time
}

func (PassengerRecord) TableName() string { return "passengers" }

// InitDB opens Postgres when dsn is set and a SQLite file at dataPath
// otherwise, then migrates the schema
func InitDB(dsn, dataPath string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if dsn != "" {
		cfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	} else {
		if dataPath == "" {
			dataPath = "manifest.db"
		}
		db, err = gorm.Open(sqlite.Open(dataPath), cfg)
		if err == nil {
			// SQLite allows one writer; a single connection also keeps
			// ":memory:" databases shared.
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&APIKey{}, &APIUsage{}, &Operator{},
		&TripRecord{}, &SiteRecord{}, &PassengerRecord{},
	)
}
