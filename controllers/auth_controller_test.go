package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ripple-social/ripple/config"
	"github.com/ripple-social/ripple/middleware"
	"github.com/ripple-social/ripple/models"
	"github.com/ripple-social/ripple/utils"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	config.Reset()
	config.Load()

	if utils.Sugar == nil {
		utils.Logger = zap.NewNop()
		utils.Sugar = utils.Logger.Sugar()
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := NewAuthController(db)
	r.POST("/signup", auth.Signup)
	r.POST("/signin", auth.Signin)
	r.GET("/me", middleware.AuthRequired(), auth.Me)
	r.POST("/reset-password", auth.ResetPassword)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func TestSignupSigninRoundTrip(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := doJSON(t, r, http.MethodPost, "/signup", gin.H{
		"name":     "alice",
		"email":    "alice@example.com",
		"password": "sup3rsecret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var signup struct {
		Token string             `json:"token"`
		User  models.UserSummary `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &signup))
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "alice", signup.User.Name)

	// duplicate name is rejected
	dup := doJSON(t, r, http.MethodPost, "/signup", gin.H{
		"name":     "alice",
		"email":    "other@example.com",
		"password": "sup3rsecret",
	}, "")
	assert.Equal(t, http.StatusConflict, dup.Code)

	// sign in by email
	signin := doJSON(t, r, http.MethodPost, "/signin", gin.H{
		"identifier": "alice@example.com",
		"password":   "sup3rsecret",
	}, "")
	require.Equal(t, http.StatusOK, signin.Code, signin.Body.String())
	require.NoError(t, json.Unmarshal(signin.Body.Bytes(), &env))
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	// the issued token authenticates /me
	me := doJSON(t, r, http.MethodGet, "/me", nil, login.Token)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	assert.Contains(t, me.Body.String(), "alice@example.com")
}

func TestSigninRejectsBadPassword(t *testing.T) {
	r, _ := setupAuthRouter(t)

	w := doJSON(t, r, http.MethodPost, "/signup", gin.H{
		"name":     "bob",
		"email":    "bob@example.com",
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	bad := doJSON(t, r, http.MethodPost, "/signin", gin.H{
		"identifier": "bob",
		"password":   "wrong-horse",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	r, db := setupAuthRouter(t)

	expired := time.Now().Add(-time.Minute)
	user := models.User{
		Name:          "carol",
		Email:         "carol@example.com",
		PasswordHash:  "x",
		ResetToken:    "expired-token",
		ResetTokenExp: &expired,
	}
	require.NoError(t, db.Create(&user).Error)

	w := doJSON(t, r, http.MethodPost, "/reset-password", gin.H{
		"token":    "expired-token",
		"password": "brand-new-pass",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/reset-password", gin.H{
		"token":    "unknown-token",
		"password": "brand-new-pass",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetPasswordWithValidToken(t *testing.T) {
	r, db := setupAuthRouter(t)

	valid := time.Now().Add(30 * time.Minute)
	hash, err := utils.HashPassword("old-pass")
	require.NoError(t, err)
	user := models.User{
		Name:          "dave",
		Email:         "dave@example.com",
		PasswordHash:  hash,
		ResetToken:    "good-token",
		ResetTokenExp: &valid,
	}
	require.NoError(t, db.Create(&user).Error)

	w := doJSON(t, r, http.MethodPost, "/reset-password", gin.H{
		"token":    "good-token",
		"password": "new-pass-123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	signin := doJSON(t, r, http.MethodPost, "/signin", gin.H{
		"identifier": "dave",
		"password":   "new-pass-123",
	}, "")
	assert.Equal(t, http.StatusOK, signin.Code, signin.Body.String())
}

func TestMeRequiresToken(t *testing.T) {
	r, _ := setupAuthRouter(t)
	w := doJSON(t, r, http.MethodGet, "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
