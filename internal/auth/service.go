package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCreds = errors.New("invalid credentials")
	ErrNotEnabled   = errors.New("admin auth is not configured")

	jwtSecretOnce    sync.Once
	jwtSecretRuntime []byte
	jwtSecretErr     error
)

func jwtSecretFromEnv() ([]byte, error) {
	jwtSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
		if secret != "" {
			jwtSecretRuntime = []byte(secret)
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			jwtSecretErr = fmt.Errorf("failed to generate JWT fallback secret: %w", err)
			return
		}

		jwtSecretRuntime = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("JWT_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if jwtSecretErr != nil {
		return nil, jwtSecretErr
	}
	if len(jwtSecretRuntime) == 0 {
		return nil, errors.New("JWT secret unavailable")
	}

	return jwtSecretRuntime, nil
}

// Service guards the mutating endpoints behind a single admin credential.
// There is deliberately no user table: the dashboard has one operator, and
// the credential lives in the environment (ADMIN_PASSWORD_HASH preferred,
// ADMIN_PASSWORD accepted for local setups).
type Service struct {
	password     string
	passwordHash string
}

func NewService(password, passwordHash string) *Service {
	return &Service{password: password, passwordHash: passwordHash}
}

// Enabled reports whether a credential is configured at all. When it is not,
// the API leaves the mutating routes open (single-operator local mode).
func (s *Service) Enabled() bool {
	return s.password != "" || s.passwordHash != ""
}

func (s *Service) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrNotEnabled
	}

	if s.passwordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
			return "", ErrInvalidCreds
		}
	} else if subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) != 1 {
		return "", ErrInvalidCreds
	}

	return generateToken()
}

func generateToken() (string, error) {
	secretKey, err := jwtSecretFromEnv()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}
