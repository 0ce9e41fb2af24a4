package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"thyrosight/config"
	"thyrosight/database"
	"thyrosight/middleware"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var userColumns = []string{"id", "first_name", "last_name", "email", "password", "created_at", "updated_at", "deleted_at"}

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

func setupAuthConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	t.Cleanup(func() { config.GlobalConfig = nil })
	return cfg
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupAuthConfig(t)

	// 邮箱未被使用
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns))

	// GORM Create 使用事务
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/register", NewAuthHandler(cfg).Register)

	w := postJSON(router, "/register", `{"first_name":"Jane","last_name":"Doe","email":"Jane@Example.com","password":"password123","confirm_password":"password123"}`)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "注册成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jane@example.com", data["email"])
	assert.NotContains(t, w.Body.String(), "password123")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupAuthConfig(t)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/register", NewAuthHandler(cfg).Register)

	cases := []string{
		`{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","password":"short","confirm_password":"short"}`,
		`{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","password":"password123","confirm_password":"password124"}`,
		`{"first_name":"Jane","last_name":"Doe","email":"not-an-email","password":"password123","confirm_password":"password123"}`,
		`{"last_name":"Doe","email":"jane@example.com","password":"password123","confirm_password":"password123"}`,
	}
	for _, body := range cases {
		w := postJSON(router, "/register", body)
		assert.Equal(t, 400, w.Code, body)
		assert.Contains(t, w.Body.String(), `"success":false`)
	}
}

func TestAuthHandler_Register_EmailExists(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupAuthConfig(t)

	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "Jane", "Doe", "jane@example.com", "hash", time.Now(), time.Now(), nil))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/register", NewAuthHandler(cfg).Register)

	w := postJSON(router, "/register", `{"first_name":"Jane","last_name":"Doe","email":"jane@example.com","password":"password123","confirm_password":"password123"}`)

	assert.Equal(t, 400, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "该邮箱已被注册", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupAuthConfig(t)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(5, "Jane", "Doe", "jane@example.com", string(hashed), time.Now(), time.Now(), nil))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", NewAuthHandler(cfg).Login)

	w := postJSON(router, "/login", `{"email":"jane@example.com","password":"password123"}`)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(200), resp["code"])
	data := resp["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	claims, err := middleware.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()
	cfg := setupAuthConfig(t)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	// 用户不存在
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns))
	// 密码错误
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(5, "Jane", "Doe", "jane@example.com", string(hashed), time.Now(), time.Now(), nil))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", NewAuthHandler(cfg).Login)

	w := postJSON(router, "/login", `{"email":"nobody@example.com","password":"password123"}`)
	assert.Equal(t, 401, w.Code)

	w = postJSON(router, "/login", `{"email":"jane@example.com","password":"wrong-password"}`)
	assert.Equal(t, 401, w.Code)
	assert.Contains(t, w.Body.String(), "邮箱或密码错误")

	require.NoError(t, mock.ExpectationsWereMet())
}
