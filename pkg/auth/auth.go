package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	jwtSecret    = []byte(os.Getenv("JWT_SECRET"))
	masterSecret = []byte(os.Getenv("API_MASTER_SECRET"))
	jwtAlgorithm = jwt.SigningMethodHS256
)

// BcryptCost is the work factor for operator password hashes
var BcryptCost = 14

// TokenTTL is how long an operator session lasts
const TokenTTL = 24 * time.Hour

// Configure replaces the signing secrets read from the environment at start
func Configure(jwtKey, apiMasterSecret string) {
	jwtSecret = []byte(jwtKey)
	masterSecret = []byte(apiMasterSecret)
}

// Claims represents the JWT claims
type Claims struct {
	Username     string `json:"username"`
	IsAdmin      bool   `json:"is_admin"`
	HomeLocation string `json:"home_location,omitempty"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for an operator
func CreateToken(op database.Operator) (string, error) {
	claims := &Claims{
		Username:     op.Username,
		IsAdmin:      op.IsAdmin,
		HomeLocation: op.HomeLocation,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(jwtSecret)
}

// VerifyToken verifies a JWT token
func VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Authenticate looks up an operator and checks the password
func Authenticate(db *gorm.DB, username, password string) (*database.Operator, error) {
	var op database.Operator
	if err := db.Where("username = ?", username).First(&op).Error; err != nil {
		return nil, errors.New("invalid credentials")
	}
	if !CheckPasswordHash(password, op.PasswordHash) {
		return nil, errors.New("invalid credentials")
	}
	return &op, nil
}

// EnsureAdminExists creates the initial admin operator when the table is empty
func EnsureAdminExists(db *gorm.DB, username, password string) (bool, error) {
	var count int64
	if err := db.Model(&database.Operator{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	op := database.Operator{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := db.Create(&op).Error; err != nil {
		return false, err
	}
	return true, nil
}

// GenerateHMACKey creates a signed board key using HMAC-SHA256
func GenerateHMACKey(boardID string) string {
	return boardID + "." + sign(boardID)
}

// VerifyHMACKey validates an HMAC-signed board key and returns the board id
func VerifyHMACKey(key string) (string, error) {
	i := strings.LastIndex(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", errors.New("invalid key format")
	}

	boardID := key[:i]
	provided := key[i+1:]

	if !hmac.Equal([]byte(provided), []byte(sign(boardID))) {
		return "", errors.New("invalid signature")
	}

	return boardID, nil
}

func sign(id string) string {
	h := hmac.New(sha256.New, masterSecret)
	h.Write([]byte(id))
	return hex.EncodeToString(h.Sum(nil))
}
