package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/proconnect-io/professionals-service/internal/model"
)

const serverPort = 8080

// A small load generator for the professionals service. For every batch size
// it first submits a batch of fresh records to the bulk endpoint, then
// submits the same batch again so that every item takes the update path, and
// finally lists all records. Reported numbers are microseconds per item.
//
// Usage example on the command line:
// > go run main.go
func main() {
	fmt.Println()
	fmt.Println("  Elements    CREATE    UPDATE      LIST ")
	fmt.Println("------------------------------------------")
	sizes := []int{100, 500, 1000, 5000}
	for _, size := range sizes {
		batch := buildBatch(size)
		fmt.Printf("%10d", size)

		created := sendBulkRequest(batch)
		fmt.Printf("%10d", created/int64(size*1000))

		updated := sendBulkRequest(batch)
		fmt.Printf("%10d", updated/int64(size*1000))

		listed := sendListRequest()
		fmt.Printf("%10d", listed/int64(size*1000))
		fmt.Println()
	}
}

// buildBatch creates payloads with unique email identities so that the first
// submission creates and any repeated submission updates.
func buildBatch(size int) []model.ProfessionalPayload {
	batch := make([]model.ProfessionalPayload, 0, size)
	for i := 0; i < size; i++ {
		fullName := fmt.Sprintf("Load Tester %d", i)
		email := fmt.Sprintf("load-%s@example.com", uuid.NewString())
		source := model.SourceInternal
		batch = append(batch, model.ProfessionalPayload{
			FullName: &fullName,
			Email:    &email,
			Source:   &source,
		})
	}
	return batch
}

func sendBulkRequest(batch []model.ProfessionalPayload) int64 {
	body, err := json.Marshal(batch)
	if err != nil {
		fmt.Println("could not marshal batch", err)
		panic(err)
	}
	requestURL := fmt.Sprintf("http://localhost:%d/professionals/bulk", serverPort)
	resBody, duration := sendRequest(http.MethodPost, requestURL, bytes.NewReader(body))
	var response model.BulkResponse
	if err := json.Unmarshal(resBody, &response); err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
	if len(response.Errors) > 0 {
		fmt.Printf("%d items rejected\n", len(response.Errors))
	}
	return duration
}

func sendListRequest() int64 {
	requestURL := fmt.Sprintf("http://localhost:%d/professionals/", serverPort)
	_, duration := sendRequest(http.MethodGet, requestURL, nil)
	return duration
}

func sendRequest(method string, requestURL string, bodyReader io.Reader) ([]byte, int64) {
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	after := time.Now().UnixNano()
	return resBody, after - before
}
