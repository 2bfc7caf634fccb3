package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"crosspost/domain/dto"
	"crosspost/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// UserIDKey is the context key holding the authenticated user
const UserIDKey = "user_id"

// UserClaims identifies the caller; the subject is the user id
type UserClaims struct {
	UserName string `json:"user_name,omitempty"`
	jwt.StandardClaims
}

// Auth verifies an HS256 bearer token and stores the caller's id under UserIDKey
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		authorization := ctx.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(authorization, "Bearer ")
		if !ok || raw == "" || secretKey == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		claims, token, err := getClaim(raw, secretKey)
		if err != nil || token == nil || !token.Valid {
			res.ResponseMessage = rejection(err)
			logger.GetLogger().WithField("error", err).Debug("rejected bearer token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		userID := claims.Subject
		if userID == "" {
			// older tokens carried the user in the issuer
			userID = claims.Issuer
		}
		if userID == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		ctx.Set(UserIDKey, userID)
		ctx.Next()
	}
}

func rejection(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			return "Timing is everything"
		default:
			return fmt.Sprintf("Couldn't handle this token: %v", err)
		}
	}
	return "Unauthorized"
}

func getClaim(raw, secretKey string) (*UserClaims, *jwt.Token, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	return claims, token, err
}
