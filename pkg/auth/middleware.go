package auth

import (
	"net/http"
	"strings"

	"apiprobe/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// SubjectKey is the gin context key holding the authenticated subject
const SubjectKey = "auth.subject"

// Validator checks a raw bearer token
type Validator interface {
	Validate(token string) (*Claims, error)
}

// RequireBearer rejects requests without a valid "Authorization: Bearer"
// credential. On success the token subject is stored under SubjectKey.
func RequireBearer(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "provide Authorization: Bearer <token>")
			return
		}

		claims, err := v.Validate(token)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(SubjectKey, claims.Subject)
	}
}

// bearerToken extracts the credential of a Bearer authorization header. The
// scheme name is matched case-insensitively.
func bearerToken(value string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(value), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Subject returns the authenticated subject, or "" outside RequireBearer
func Subject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

func abortUnauthorized(c *gin.Context, description string) {
	c.Header("WWW-Authenticate", `Bearer realm="apiprobe"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             string(apperr.CodeUnauthorized),
		"error_description": description,
	})
}
