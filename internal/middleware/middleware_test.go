package middleware

import (
	"encoding/json"
	"fmt"
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/services"
	"freelyforms-backend/internal/utils"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test_secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fixture struct {
	user       models.User
	admin      models.User
	userToken  string
	adminToken string
}

func setup(t *testing.T) fixture {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	database.DB = db

	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	f := fixture{
		user:  models.User{Username: "user@example.com", Password: "x", Role: models.RoleUser},
		admin: models.User{Username: "admin@example.com", Password: "x", Role: models.RoleAdmin},
	}
	require.NoError(t, db.Create(&f.user).Error)
	require.NoError(t, db.Create(&f.admin).Error)

	f.userToken, err = utils.GenerateToken(f.user.ID, f.user.Roles())
	require.NoError(t, err)
	f.adminToken, err = utils.GenerateToken(f.admin.ID, f.admin.Roles())
	require.NoError(t, err)
	return f
}

func signed(claims jwt.MapClaims) string {
	s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test_secret"))
	return s
}

type authCase struct {
	name           string
	authHeader     string
	expectedStatus int
	expectedBody   string
}

func run(t *testing.T, mw gin.HandlerFunc, tests []authCase) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(mw)
			r.GET("/test", func(c *gin.Context) {
				caller := CurrentCaller(c)
				if caller.IsAnonymous() {
					c.String(http.StatusOK, "anonymous")
					return
				}
				c.String(http.StatusOK, caller.ID)
			})

			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				var resp utils.Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Contains(t, resp.Message, tt.expectedBody)
			} else {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	f := setup(t)
	revoked := signed(jwt.MapClaims{
		"user_id": f.user.ID,
		"jti":     "revoked",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, services.AddToDenylist(revoked, time.Minute))

	run(t, AuthMiddleware(), []authCase{
		{"Missing Authorization Header", "", http.StatusUnauthorized, "authorization header is required"},
		{"Invalid Token Format", "InvalidToken", http.StatusUnauthorized, "bearer token not found"},
		{"Invalid Token Signature", "Bearer invalid.token.signature", http.StatusUnauthorized, "Invalid or expired token"},
		{"Revoked Token", "Bearer " + revoked, http.StatusUnauthorized, "Token has been revoked"},
		{"Numeric User ID", "Bearer " + signed(jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized, "Invalid user ID in token"},
		{"Unknown User", "Bearer " + signed(jwt.MapClaims{"user_id": "ghost", "exp": time.Now().Add(time.Hour).Unix()}), http.StatusUnauthorized, "User not found"},
		{"Valid User", "Bearer " + f.userToken, http.StatusOK, f.user.ID},
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	f := setup(t)

	run(t, OptionalAuthMiddleware(), []authCase{
		{"Anonymous", "", http.StatusOK, "anonymous"},
		{"Invalid Token", "Bearer invalid.token.signature", http.StatusUnauthorized, "Invalid or expired token"},
		{"Valid User", "Bearer " + f.userToken, http.StatusOK, f.user.ID},
	})
}

func TestAdminAuthMiddleware(t *testing.T) {
	f := setup(t)

	// Token claims admin but the account is a plain user
	forged := signed(jwt.MapClaims{
		"user_id": f.user.ID,
		"roles":   []string{models.RoleUser, models.RoleAdmin},
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	run(t, AdminAuthMiddleware(), []authCase{
		{"Missing Authorization Header", "", http.StatusUnauthorized, "authorization header is required"},
		{"Invalid Token Format", "InvalidToken", http.StatusUnauthorized, "bearer token not found"},
		{"Invalid Token Signature", "Bearer invalid.token.signature", http.StatusForbidden, "Invalid or expired token"},
		{"Non-Admin User", "Bearer " + f.userToken, http.StatusForbidden, "Forbidden: Admins only"},
		{"Stale Admin Claim", "Bearer " + forged, http.StatusForbidden, "Forbidden: Admins only"},
		{"Admin User", "Bearer " + f.adminToken, http.StatusOK, f.admin.ID},
	})
}

func TestAdminAuthMiddlewareSeesDemotion(t *testing.T) {
	f := setup(t)

	// Warm the user cache with the admin row, then demote the account
	cached, err := services.FindUserByID(f.admin.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, cached.Role)
	require.NoError(t, database.DB.Model(&models.User{}).Where("id = ?", f.admin.ID).Update("role", models.RoleUser).Error)

	run(t, AdminAuthMiddleware(), []authCase{
		{"Demoted Admin", "Bearer " + f.adminToken, http.StatusForbidden, "Forbidden: Admins only"},
	})

	refreshed, err := services.FindUserByID(f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, refreshed.Role, "admin check refreshes the cached user")
}

func TestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger())
	r.GET("/ping", func(c *gin.Context) {
		id, _ := c.Get("RequestID")
		c.String(http.StatusOK, id.(string))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, w.Header().Get(requestIDHeader), w.Body.String())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(requestIDHeader))
}
