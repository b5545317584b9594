package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/proconnect-io/professionals-service/internal/config"
	"github.com/proconnect-io/professionals-service/internal/model"
	"github.com/proconnect-io/professionals-service/internal/validate"
)

// db is a handle to the database.
var db *sqlx.DB

// insert is a prepared statement for creating a professional on the database.
var insert *sqlx.NamedStmt

// selectAll is a prepared statement for selecting all professionals, newest
// first.
var selectAll *sqlx.Stmt

// selectWhereSource is a prepared statement for selecting professionals with
// a given source, newest first.
var selectWhereSource *sqlx.Stmt

// selectWhereEmail is a prepared statement for selecting professionals with a
// given email.
var selectWhereEmail *sqlx.Stmt

// selectWherePhone is a prepared statement for selecting professionals with a
// given phone number.
var selectWherePhone *sqlx.Stmt

// mysqlDuplicateEntry is the server error code for a violated unique index.
const mysqlDuplicateEntry = 1062

// CreateDatabase initializes and returns a database connection with the
// specified connection parameters.
func CreateDatabase(cfg config.Settings) *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName)
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database connection")
	}
	return sqlDB
}

// SetupDatabaseWrapper initializes the sqlx database wrapper with the
// specified sql database. It then prepares all statements. The database
// argument can be a real database for production use or a mock database
// within unit tests.
func SetupDatabaseWrapper(sqlDB *sql.DB) {
	var err error
	db = sqlx.NewDb(sqlDB, "mysql")

	// Prepared statements offer a significant speed increase if executed many times.
	insert, err = db.PrepareNamed(`
		INSERT INTO professionals (id, full_name, email, phone, company_name, job_title, source, created_at)
		VALUES (:id, :full_name, :email, :phone, :company_name, :job_title, :source, :created_at)
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing insert statement")
	}
	selectAll, err = db.Preparex(`
		SELECT * FROM professionals ORDER BY created_at DESC
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing select statement")
	}
	selectWhereSource, err = db.Preparex(`
		SELECT * FROM professionals WHERE source = ? ORDER BY created_at DESC
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing select-by-source statement")
	}
	selectWhereEmail, err = db.Preparex(`
		SELECT * FROM professionals WHERE email = ?
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing select-by-email statement")
	}
	selectWherePhone, err = db.Preparex(`
		SELECT * FROM professionals WHERE phone = ?
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing select-by-phone statement")
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		log.Info().Msg("turning off HTTP request logging")
		router = gin.New()
		router.Use(gin.Recovery())
	} else {
		router = gin.Default()
	}
	router.GET("/professionals", listProfessionals)
	router.GET("/professionals/", listProfessionals)
	router.POST("/professionals", createProfessional)
	router.POST("/professionals/", createProfessional)
	router.POST("/professionals/bulk", bulkUpsertProfessionals)
	return router
}

// listProfessionals responds with a list of professionals as JSON, newest
// first.
//
// The URL parameter 'source' restricts the result to records acquired through
// that channel. Valid values are 'direct', 'partner', and 'internal'. If this
// URL parameter is omitted, all records are returned.
//
// REST API calls:
//
//	> curl "http://localhost:8080/professionals/"
//	> curl "http://localhost:8080/professionals/?source=partner"
func listProfessionals(c *gin.Context) {
	source := c.Query("source")
	if source != "" && !contains(model.Sources, source) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid source parameter"})
		return
	}
	professionals := []model.Professional{}
	var err error
	if source != "" {
		err = selectWhereSource.Select(&professionals, source)
	} else {
		err = selectAll.Select(&professionals)
	}
	if err != nil {
		log.Panic().Err(err).Msg("selecting professionals")
	}
	c.IndentedJSON(http.StatusOK, professionals)
}

// createProfessional validates the professional specified in the request's
// JSON and inserts it into the database. It responds with the full record
// including the newly assigned id and creation timestamp. A payload that
// fails validation is rejected with a structured error body and leaves the
// database untouched.
//
// Example REST API call:
//
//	> curl http://localhost:8080/professionals/ --request "POST" --include --header "Content-Type: application/json" --data '{"full_name": "Alice Smith", "email": "alice@example.com", "source": "direct"}'
func createProfessional(c *gin.Context) {
	var payload model.ProfessionalPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	if body := validate.Struct(payload); body != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
		return
	}
	professional := newProfessional(payload)
	if _, err := insert.Exec(professional); err != nil {
		if isDuplicateEntry(err) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"type":   "unique_conflict",
				"detail": "A record with this email or phone already exists.",
			})
			return
		}
		log.Panic().Err(err).Msg("inserting professional")
	}
	c.IndentedJSON(http.StatusCreated, professional)
}

// bulkUpsertProfessionals reconciles an ordered sequence of payloads against
// the database. Each item is matched to an existing record by its identity
// field (email preferred over phone) and either overwrites that record or is
// created as a new one. Items are processed independently: a rejected item is
// reported in the 'errors' list and never aborts the batch. The response is
// always multi-status and echoes every submitted item in input order.
//
// Example REST API call:
//
//	> curl http://localhost:8080/professionals/bulk --request "POST" --include --header "Content-Type: application/json" --data '[{"full_name": "Bob", "email": "bob@example.com", "source": "partner"}]'
func bulkUpsertProfessionals(c *gin.Context) {
	var items []json.RawMessage
	if err := c.ShouldBindJSON(&items); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	response := model.BulkResponse{
		Results: []model.BulkItem{},
		Errors:  []model.BulkItem{},
	}
	for _, item := range items {
		var payload model.ProfessionalPayload
		if err := json.Unmarshal(item, &payload); err != nil {
			response.Errors = append(response.Errors,
				model.BulkItem{Data: item, Status: http.StatusBadRequest})
			continue
		}
		if !payload.HasEmail() && !payload.HasPhone() {
			response.Errors = append(response.Errors,
				model.BulkItem{Data: item, Status: http.StatusBadRequest})
			continue
		}
		status, err := upsertProfessional(payload)
		if err != nil {
			log.Warn().Err(err).Msg("bulk item rejected by the store")
			response.Errors = append(response.Errors,
				model.BulkItem{Data: item, Status: storeErrorStatus(err)})
			continue
		}
		if status == http.StatusCreated {
			response.NumCreated++
		} else {
			response.NumUpdated++
		}
		response.Results = append(response.Results,
			model.BulkItem{Data: item, Status: status})
	}
	c.IndentedJSON(http.StatusMultiStatus, response)
}

// upsertProfessional looks up an existing record by the payload's identity
// field and overwrites all present payload fields onto it, or creates a new
// record if none matches. Email takes precedence over phone when both are
// set, so a matched record's phone can be replaced by the payload even though
// that changes its future identity. Returns 201 for a creation and 200 for an
// update.
func upsertProfessional(payload model.ProfessionalPayload) (int, error) {
	var existing []model.Professional
	var err error
	if payload.HasEmail() {
		err = selectWhereEmail.Select(&existing, *payload.Email)
	} else {
		err = selectWherePhone.Select(&existing, *payload.Phone)
	}
	if err != nil {
		return 0, err
	}
	if len(existing) == 0 {
		if _, err := insert.Exec(newProfessional(payload)); err != nil {
			return 0, err
		}
		return http.StatusCreated, nil
	}
	if err := overwriteProfessional(existing[0].Id, payload); err != nil {
		return 0, err
	}
	return http.StatusOK, nil
}

// overwriteProfessional updates the record with the given id, replacing the
// values of the fields present in the payload (and only those).
func overwriteProfessional(id string, payload model.ProfessionalPayload) error {
	var args []interface{}
	sql := "UPDATE professionals SET "
	if payload.FullName != nil {
		args = append(args, *payload.FullName)
		sql += "full_name=?, "
	}
	if payload.Email != nil {
		args = append(args, identityValue(payload.Email))
		sql += "email=?, "
	}
	if payload.Phone != nil {
		args = append(args, identityValue(payload.Phone))
		sql += "phone=?, "
	}
	if payload.CompanyName != nil {
		args = append(args, *payload.CompanyName)
		sql += "company_name=?, "
	}
	if payload.JobTitle != nil {
		args = append(args, *payload.JobTitle)
		sql += "job_title=?, "
	}
	if payload.Source != nil {
		args = append(args, *payload.Source)
		sql += "source=?, "
	}
	if len(args) == 0 {
		return nil
	}
	sql = sql[:len(sql)-2]
	sql += " WHERE id=?"
	args = append(args, id)
	_, err := db.Exec(sql, args...)
	return err
}

// newProfessional builds a fresh record from the payload with a generated id
// and the current creation timestamp. Absent optional fields default to empty
// strings; empty identity fields are stored as NULL so that the unique
// indexes stay meaningful across records.
func newProfessional(payload model.ProfessionalPayload) model.Professional {
	professional := model.Professional{
		Id:        uuid.NewString(),
		Email:     identityValue(payload.Email),
		Phone:     identityValue(payload.Phone),
		CreatedAt: time.Now().UTC(),
	}
	if payload.FullName != nil {
		professional.FullName = *payload.FullName
	}
	if payload.CompanyName != nil {
		professional.CompanyName = *payload.CompanyName
	}
	if payload.JobTitle != nil {
		professional.JobTitle = *payload.JobTitle
	}
	if payload.Source != nil {
		professional.Source = *payload.Source
	}
	return professional
}

// identityValue normalizes an identity field for storage: nil or empty means
// NULL.
func identityValue(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// isDuplicateEntry reports whether the error is a violated unique index.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

// storeErrorStatus maps a store-level rejection to the per-item status code.
func storeErrorStatus(err error) int {
	if isDuplicateEntry(err) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// contains returns true if a string is present in a slice.
func contains(slice []string, str string) bool {
	for _, v := range slice {
		if v == str {
			return true
		}
	}
	return false
}
