package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds teacher credentials.
type LoginRequest struct {
	RegistrationCode string `json:"registration_code" validate:"required"`
	Password         string `json:"password" validate:"required"`
}

// LoginResponse returns the issued access token and the signed-in teacher.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresIn   int64          `json:"expires_in"`
	IssuedAt    time.Time      `json:"issued_at"`
	Teacher     TeacherProfile `json:"teacher"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	TeacherID        int    `json:"teacher_id"`
	RegistrationCode string `json:"registration_code"`
	Name             string `json:"name"`
	jwt.RegisteredClaims
}
