package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const tokenIssuer = "tictactoe"

// ResumeClaims 续连令牌，标识某玩家在某房间中的座位
type ResumeClaims struct {
	PlayerID uint   `json:"player_id"`
	Username string `json:"username"`
	RoomCode string `json:"room_code"`
	GameID   uint   `json:"game_id"`
	jwt.RegisteredClaims
}

// JWTManager 续连令牌管理器
type JWTManager struct {
	secretKey []byte
	expiry    time.Duration
}

// NewJWTManager 创建JWT管理器
func NewJWTManager(secretKey string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// GenerateResumeToken 生成续连令牌
func (j *JWTManager) GenerateResumeToken(playerID uint, username, roomCode string, gameID uint) (string, error) {
	now := time.Now()

	claims := &ResumeClaims{
		PlayerID: playerID,
		Username: username,
		RoomCode: roomCode,
		GameID:   gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// ValidateResumeToken 验证续连令牌
func (j *JWTManager) ValidateResumeToken(tokenString string) (*ResumeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResumeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*ResumeClaims)
	if !ok || !token.Valid || claims.Username == "" || claims.RoomCode == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Expiry 令牌有效期
func (j *JWTManager) Expiry() time.Duration {
	return j.expiry
}
