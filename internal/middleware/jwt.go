package middleware

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/codeassess-api/internal/utils"
)

// AccessClaims is the token payload issued to candidates and recruiters.
// The subject carries the numeric user id; a missing role means candidate.
type AccessClaims struct {
	Role roleClaim `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// roleClaim accepts either "role": "recruiter" or "role": ["recruiter", ...].
type roleClaim string

func (r *roleClaim) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = roleClaim(normalizeRoleValue(single))
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("role claim must be a string or a list of strings")
	}
	for _, item := range many {
		if role := normalizeRoleValue(item); role != "" {
			*r = roleClaim(role)
			return nil
		}
	}
	return nil
}

// JWTProtected validates HS256 bearer tokens and stores user_id and user_role in the request locals.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
		}

		claims := &AccessClaims{}
		if _, err := parser.ParseWithClaims(tokenString, claims, keyFunc); err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid token", nil)
		}

		userID, err := strconv.ParseUint(strings.TrimSpace(claims.Subject), 10, 64)
		if err != nil || userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid token subject", nil)
		}

		c.Locals("user_id", uint(userID))
		if claims.Role != "" {
			c.Locals("user_role", string(claims.Role))
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header missing")
	}

	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid authorization header")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("invalid token")
	}
	return token, nil
}
