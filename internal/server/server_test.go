package server

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Work{},
		&models.Comment{},
		&models.Collection{},
		&models.Setting{},
	))
	return db
}

// newTestServer builds a Server over an in-memory database without Redis or
// Prometheus wiring.
func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)

	cfg := &config.Config{
		JWTSecret: "test-secret",
		Env:       "test",
	}

	userRepo := repository.NewUserRepository(db)
	workRepo := repository.NewWorkRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	s := &Server{
		config:      cfg,
		db:          db,
		userRepo:    userRepo,
		workRepo:    workRepo,
		commentRepo: commentRepo,
		settingRepo: settingRepo,
	}
	s.moderationService = service.NewModerationService(workRepo, commentRepo, collectionRepo, settingRepo, userRepo)
	s.visibilityService = service.NewVisibilityService(workRepo, commentRepo)
	s.collectionService = service.NewCollectionService(workRepo, collectionRepo)

	return s, db
}

// newTestApp wires the full route table onto a bare Fiber app.
func newTestApp(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	s, db := newTestServer(t)
	return s, newTestAppFor(s), db
}

func newTestAppFor(s *Server) *fiber.App {
	app := fiber.New()
	s.SetupRoutes(app)
	return app
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string, admin bool) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Username: username, Password: string(hashed), IsAdmin: admin}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// bearerToken issues a signed token for the user, ready for an Authorization header.
func bearerToken(t *testing.T, s *Server, user models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return "Bearer " + token
}
