package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-exam-api/internal/utils"
)

// Roles recognised in access tokens.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

const (
	localUserID   = "user_id"
	localUserRole = "user_role"
)

// accessClaims is the token payload. The subject is the numeric user id.
type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTProtected verifies HMAC-signed bearer tokens and stores the caller's id and role on the
// request. Tokens whose subject is not a user id are rejected.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		var claims accessClaims
		token, err := parser.ParseWithClaims(tokenString, &claims, keyFunc)
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := strconv.ParseUint(strings.TrimSpace(claims.Subject), 10, 64)
		if err != nil || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "token has no user")
		}

		SetPrincipal(c, uint(userID), claims.Role)
		return c.Next()
	}
}

// SetPrincipal records the authenticated user on the request.
func SetPrincipal(c *fiber.Ctx, userID uint, role string) {
	c.Locals(localUserID, userID)
	c.Locals(localUserRole, strings.ToLower(strings.TrimSpace(role)))
}

// UserID returns the authenticated user's id, or 0 when the request is anonymous.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}

// UserRole returns the authenticated user's lower-cased role.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(localUserRole).(string)
	return role
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	header = strings.TrimSpace(header)
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
