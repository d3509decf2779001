package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gestops/internal/handlers"
	"gestops/internal/logger"
	"gestops/internal/middleware"
	"gestops/internal/models"
	"gestops/internal/services"
	"gestops/internal/storage"
	"gestops/internal/validator"
)

const maxTestUploadSize = 8 << 20

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Mailer *captureMailer
}

// captureMailer records outbound mail instead of sending it, so tests can
// read the generated initial passwords and reset tokens.
type captureMailer struct {
	mu               sync.Mutex
	welcomePasswords map[string]string
	resetTokens      map[string]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{
		welcomePasswords: make(map[string]string),
		resetTokens:      make(map[string]string),
	}
}

func (m *captureMailer) SendWelcome(to, name, initialPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomePasswords[to] = initialPassword
	return nil
}

func (m *captureMailer) SendPasswordReset(to, name, resetToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetTokens[to] = resetToken
	return nil
}

func (m *captureMailer) welcomePassword(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.welcomePasswords[to]
}

func (m *captureMailer) resetToken(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetTokens[to]
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Person{},
		&models.User{},
		&models.Concept{},
		&models.Category{},
		&models.Subcategory{},
		&models.Operation{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database, with attachment storage under a per-test temp directory.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	store, err := storage.NewLocal(t.TempDir(), maxTestUploadSize)
	if err != nil {
		t.Fatalf("failed to create upload storage: %v", err)
	}
	mailer := newCaptureMailer()

	// Services
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db, mailer)
	personService := services.NewPersonService(db)
	conceptService := services.NewConceptService(db)
	categoryService := services.NewCategoryService(db)
	subcategoryService := services.NewSubcategoryService(db)
	operationService := services.NewOperationService(db, store)
	exportService := services.NewExportService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	personHandler := handlers.NewPersonHandler(personService)
	taxonomyHandler := handlers.NewTaxonomyHandler(conceptService, categoryService, subcategoryService)
	operationHandler := handlers.NewOperationHandler(operationService, exportService, auditService)
	attachmentHandler := handlers.NewAttachmentHandler(operationService, auditService, maxTestUploadSize)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/password", authHandler.ChangePassword)
	protected.POST("/auth/register",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor), authHandler.Register)

	users := protected.Group("/users")
	users.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor))
	users.GET("", userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)
	users.PATCH("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	persons := protected.Group("/persons")
	persons.GET("", personHandler.ListPersons)
	persons.GET("/:id", personHandler.GetPerson)
	persons.POST("", personHandler.CreatePerson)
	persons.PATCH("/:id", personHandler.UpdatePerson)
	persons.DELETE("/:id", personHandler.DeletePerson)

	concepts := protected.Group("/concepts")
	concepts.GET("", taxonomyHandler.ListConcepts)
	concepts.GET("/:id", taxonomyHandler.GetConcept)
	concepts.POST("", taxonomyHandler.CreateConcept)
	concepts.PATCH("/:id", taxonomyHandler.UpdateConcept)
	concepts.DELETE("/:id", taxonomyHandler.DeleteConcept)

	categories := protected.Group("/categories")
	categories.GET("", taxonomyHandler.ListCategories)
	categories.GET("/:id", taxonomyHandler.GetCategory)
	categories.POST("", taxonomyHandler.CreateCategory)
	categories.PATCH("/:id", taxonomyHandler.UpdateCategory)
	categories.DELETE("/:id", taxonomyHandler.DeleteCategory)

	subcategories := protected.Group("/subcategories")
	subcategories.GET("", taxonomyHandler.ListSubcategories)
	subcategories.GET("/:id", taxonomyHandler.GetSubcategory)
	subcategories.POST("", taxonomyHandler.CreateSubcategory)
	subcategories.PATCH("/:id", taxonomyHandler.UpdateSubcategory)
	subcategories.DELETE("/:id", taxonomyHandler.DeleteSubcategory)

	operations := protected.Group("/operations")
	operations.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor))
	operations.GET("", operationHandler.ListOperations)
	operations.GET("/totals", operationHandler.GetTotals)
	operations.GET("/export", operationHandler.ExportOperations)
	operations.POST("", middleware.RequireRoles(models.RoleAdmin), operationHandler.CreateOperation)
	operations.PATCH("/bulk", operationHandler.BulkUpdateOperations)
	operations.GET("/:id", operationHandler.GetOperation)
	operations.PATCH("/:id", operationHandler.UpdateOperation)
	operations.DELETE("/:id", operationHandler.DeleteOperation)

	operations.GET("/:id/attachments/:slot", attachmentHandler.DownloadAttachment)
	operations.PUT("/:id/attachments/:slot", attachmentHandler.UploadAttachment)
	operations.DELETE("/:id/attachments/:slot", attachmentHandler.DeleteAttachment)

	return &testApp{DB: db, Router: router, Mailer: mailer}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// assertErrorCode checks the error envelope code.
func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got: %s", rec.Body.String())
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %s, got %v", code, errObj["code"])
	}
}

// seedUser inserts a user with a bcrypt-hashed password directly into the
// database and returns its ID. Registration itself is exercised separately
// through the API.
func (app *testApp) seedUser(t *testing.T, email, password string, role models.Role) uint {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		FirstName: "Test",
		LastName:  string(role),
		Email:     email,
		Password:  string(hash),
		Role:      role,
	}
	if err := app.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user.ID
}

// login authenticates through the API and returns the access token.
func (app *testApp) login(t *testing.T, email, password string) string {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	token, _ := result["token"].(string)
	if token == "" {
		t.Fatal("expected non-empty token from login")
	}
	return token
}

// seedCatalog creates a person and a full taxonomy chain through the API and
// returns the person and subcategory IDs.
func (app *testApp) seedCatalog(t *testing.T, token string) (personID, subcategoryID uint) {
	t.Helper()

	rec := app.request("POST", "/api/v1/persons",
		`{"tax_id":"20123456789","legal_name":"Acme SA"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create person failed: %d %s", rec.Code, rec.Body.String())
	}
	person := parseJSON(t, rec)["person"].(map[string]interface{})

	rec = app.request("POST", "/api/v1/concepts", `{"name":"Office"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create concept failed: %d %s", rec.Code, rec.Body.String())
	}
	concept := parseJSON(t, rec)["concept"].(map[string]interface{})

	body := fmt.Sprintf(`{"name":"Supplies","concept_id":%v}`, concept["id"])
	rec = app.request("POST", "/api/v1/categories", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category failed: %d %s", rec.Code, rec.Body.String())
	}
	category := parseJSON(t, rec)["category"].(map[string]interface{})

	body = fmt.Sprintf(`{"name":"Stationery","category_id":%v}`, category["id"])
	rec = app.request("POST", "/api/v1/subcategories", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create subcategory failed: %d %s", rec.Code, rec.Body.String())
	}
	subcategory := parseJSON(t, rec)["subcategory"].(map[string]interface{})

	return uint(person["id"].(float64)), uint(subcategory["id"].(float64))
}

// createOperation posts one operation and returns its ID.
func (app *testApp) createOperation(t *testing.T, token string, personID, subcategoryID uint, opType, date, amount string) uint {
	t.Helper()

	code := `"12345-12345678"`
	kind := "invoice"
	if opType == "income" {
		code = `"1042"`
		kind = "receipt"
	}
	body := fmt.Sprintf(`{
		"date": %q,
		"type": %q,
		"character": "office",
		"nature": "corporate",
		"person_id": %d,
		"document_kind": %q,
		"document_code": %s,
		"payment_method": "transfer",
		"amount": %q,
		"subcategory_id": %d
	}`, date, opType, personID, kind, code, amount, subcategoryID)

	rec := app.request("POST", "/api/v1/operations", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create operation failed: %d %s", rec.Code, rec.Body.String())
	}
	operation := parseJSON(t, rec)["operation"].(map[string]interface{})
	return uint(operation["id"].(float64))
}
