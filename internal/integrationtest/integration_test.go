package integrationtest

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proconnect-io/professionals-service/internal/config"
	"github.com/proconnect-io/professionals-service/internal/model"
	"github.com/proconnect-io/professionals-service/internal/service"
)

// TestProfessionalHappyPath tests a create, a filtered list, and a bulk upsert round trip against
// a real database. The test is skipped unless DBHOST is set. Identities are randomized so that
// repeated runs do not collide with leftover records.
func TestProfessionalHappyPath(t *testing.T) {
	if os.Getenv("DBHOST") == "" {
		t.Skip("set DBHOST (and DBUSER, DBPWD) to run integration tests against a real database")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	sqlDB := service.CreateDatabase(cfg)
	service.SetupDatabaseWrapper(sqlDB)
	router := service.SetupHttpRouter()

	email := fmt.Sprintf("alice-%s@example.com", uuid.NewString()[:8])
	phone := fmt.Sprintf("604 %03d %04d", 200+rand.Intn(800), rand.Intn(10000))

	// test the endpoint for creating a professional
	postRecorder := httptest.NewRecorder()
	postRequest, _ := http.NewRequest("POST", "/professionals/", strings.NewReader(fmt.Sprintf(`
		{
			"full_name": "Alice Smith",
			"email": %q,
			"company_name": "Acme Inc.",
			"job_title": "Engineer",
			"source": "direct"
		}
	`, email)))
	router.ServeHTTP(postRecorder, postRequest)
	assert.Equal(t, http.StatusCreated, postRecorder.Code)
	var postBody map[string]interface{}
	json.Unmarshal(postRecorder.Body.Bytes(), &postBody)
	assert.Equal(t, "Alice Smith", postBody["full_name"])
	assert.Equal(t, email, postBody["email"])
	assert.NotEmpty(t, postBody["id"])
	assert.NotEmpty(t, postBody["created_at"])

	// test the endpoint for listing professionals with a source filter
	getRecorder := httptest.NewRecorder()
	getRequest, _ := http.NewRequest("GET", "/professionals/?source=direct", nil)
	router.ServeHTTP(getRecorder, getRequest)
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var listed []model.Professional
	json.Unmarshal(getRecorder.Body.Bytes(), &listed)
	assert.True(t, containsEmail(listed, email), "created record missing from filtered list")

	// test the bulk endpoint: update the record by email and create a second one by phone
	bulkRecorder := httptest.NewRecorder()
	bulkRequest, _ := http.NewRequest("POST", "/professionals/bulk", strings.NewReader(fmt.Sprintf(`
		[
			{"full_name": "Alice Cooper", "email": %q, "source": "internal"},
			{"full_name": "Phone Only", "phone": %q, "source": "partner"}
		]
	`, email, phone)))
	router.ServeHTTP(bulkRecorder, bulkRequest)
	assert.Equal(t, http.StatusMultiStatus, bulkRecorder.Code)
	var bulkResponse model.BulkResponse
	json.Unmarshal(bulkRecorder.Body.Bytes(), &bulkResponse)
	require.Equal(t, 2, len(bulkResponse.Results))
	assert.Equal(t, http.StatusOK, bulkResponse.Results[0].Status)
	assert.Equal(t, http.StatusCreated, bulkResponse.Results[1].Status)
	assert.Equal(t, 1, bulkResponse.NumCreated)
	assert.Equal(t, 1, bulkResponse.NumUpdated)

	// the update must have overwritten the name in place, not created a duplicate
	verifyRecorder := httptest.NewRecorder()
	verifyRequest, _ := http.NewRequest("GET", "/professionals/", nil)
	router.ServeHTTP(verifyRecorder, verifyRequest)
	assert.Equal(t, http.StatusOK, verifyRecorder.Code)
	var all []model.Professional
	json.Unmarshal(verifyRecorder.Body.Bytes(), &all)
	matches := 0
	for _, p := range all {
		if p.Email != nil && *p.Email == email {
			matches++
			assert.Equal(t, "Alice Cooper", p.FullName)
			assert.Equal(t, model.SourceInternal, p.Source)
		}
	}
	assert.Equal(t, 1, matches)
}

// TestBulkRejectsItemWithoutIdentity verifies on a real database that an item lacking both email
// and phone is reported in the error list while the batch still succeeds.
func TestBulkRejectsItemWithoutIdentity(t *testing.T) {
	if os.Getenv("DBHOST") == "" {
		t.Skip("set DBHOST (and DBUSER, DBPWD) to run integration tests against a real database")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	sqlDB := service.CreateDatabase(cfg)
	service.SetupDatabaseWrapper(sqlDB)
	router := service.SetupHttpRouter()

	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest("POST", "/professionals/bulk", strings.NewReader(`
		[
			{"full_name": "No Identity", "source": "direct"}
		]
	`))
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusMultiStatus, recorder.Code)
	var response model.BulkResponse
	json.Unmarshal(recorder.Body.Bytes(), &response)
	assert.Equal(t, 0, len(response.Results))
	require.Equal(t, 1, len(response.Errors))
	assert.Equal(t, http.StatusBadRequest, response.Errors[0].Status)
}

func containsEmail(professionals []model.Professional, email string) bool {
	for _, p := range professionals {
		if p.Email != nil && *p.Email == email {
			return true
		}
	}
	return false
}
