package middleware

import (
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/schema"
	"freelyforms-backend/internal/services"
	"freelyforms-backend/internal/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// authFailure is a rejected credential together with the reply to send.
type authFailure struct {
	status  int
	message string
}

func (f *authFailure) abort(c *gin.Context) {
	c.JSON(f.status, utils.NewErrorResponse(f.status, f.message))
	c.Abort()
}

// authenticate checks a bearer token and loads its user.
func authenticate(tokenString string, invalidStatus int, findUser func(string) (models.User, error)) (models.User, jwt.MapClaims, *authFailure) {
	isDenylisted, err := services.IsDenylisted(tokenString)
	if err != nil {
		return models.User{}, nil, &authFailure{http.StatusInternalServerError, "Failed to check token status"}
	}
	if isDenylisted {
		return models.User{}, nil, &authFailure{http.StatusUnauthorized, "Token has been revoked"}
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		return models.User{}, nil, &authFailure{invalidStatus, "Invalid or expired token"}
	}

	userID, ok := utils.ClaimUserID(claims)
	if !ok {
		return models.User{}, nil, &authFailure{http.StatusUnauthorized, "Invalid user ID in token"}
	}

	user, err := findUser(userID)
	if err != nil {
		return models.User{}, nil, &authFailure{http.StatusUnauthorized, "User not found"}
	}
	return user, claims, nil
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
			c.Abort()
			return
		}

		user, _, failure := authenticate(tokenString, http.StatusUnauthorized, services.FindUserByID)
		if failure != nil {
			failure.abort(c)
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuthMiddleware lets anonymous requests through. A request that
// does present a token must present a valid one.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		tokenString, err := utils.ExtractToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, err.Error()))
			c.Abort()
			return
		}

		user, _, failure := authenticate(tokenString, http.StatusUnauthorized, services.FindUserByID)
		if failure != nil {
			failure.abort(c)
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// CurrentCaller returns the identity set by the auth middlewares, or the
// anonymous caller.
func CurrentCaller(c *gin.Context) schema.Caller {
	value, exists := c.Get("user")
	if !exists {
		return schema.Caller{}
	}
	user, ok := value.(models.User)
	if !ok {
		return schema.Caller{}
	}
	return schema.Caller{ID: user.ID, Roles: user.Roles()}
}
