package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

func main() {
	if u := os.Getenv("CROSS_URL"); u != "" {
		baseURL = u
	}
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Health check...")
	if _, ok := sendRequest("GET", "/healthz", nil); !ok {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	reference := map[string]interface{}{
		"name": "ground_truth",
		"rows": []map[string]string{
			{"Title": "Paper A", "Software": "TRUE", "Year": "2020"},
			{"Title": "Paper B", "Software": "FALSE", "Year": "2019"},
			{"Title": "Paper C", "Software": "TRUE", "Year": "2018"},
		},
	}
	extracted := map[string]interface{}{
		"name": "extracted",
		"rows": []map[string]string{
			{"Title": "Paper A", "Software": "yes", "Year": "2020"},
			{"Title": "Paper B", "Software": "TRUE", "Year": "2019.0"},
			{"Title": "Paper D", "Software": "FALSE", "Year": "2017"},
		},
	}
	spec := map[string]interface{}{
		"key_column": "Title",
		"columns": []map[string]interface{}{
			{
				"name":       "Software",
				"mode":       "categorical",
				"normalize":  map[string]bool{"trim": true, "case_fold": true},
				"categories": []string{"TRUE", "FALSE"},
				"aliases":    map[string]string{"yes": "TRUE", "no": "FALSE"},
			},
			{"name": "Year", "mode": "numeric", "tolerance": 0},
		},
	}

	fmt.Println("2. Comparing tables...")
	body, ok := sendRequest("POST", "/compare", map[string]interface{}{
		"reference": reference,
		"extracted": extracted,
		"spec":      spec,
	})
	if !ok {
		fmt.Println("FAILED: Compare")
		os.Exit(1)
	}
	var result struct {
		Summary struct {
			Compared int `json:"compared"`
		} `json:"summary"`
		Report struct {
			Disagreements []json.RawMessage `json:"disagreements"`
		} `json:"report"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.Summary.Compared != 4 || len(result.Report.Disagreements) != 1 {
		fmt.Printf("FAILED: Compare returned unexpected result (err=%v)\n", err)
		os.Exit(1)
	}
	fmt.Println("PASSED: Compare")

	fmt.Println("3. Duplicate key is rejected...")
	reference["rows"] = append(reference["rows"].([]map[string]string), map[string]string{"Title": "Paper A", "Software": "FALSE", "Year": "2020"})
	if _, ok := sendRequest("POST", "/compare", map[string]interface{}{
		"reference": reference,
		"extracted": extracted,
		"spec":      spec,
	}); ok {
		fmt.Println("FAILED: Duplicate key accepted")
		os.Exit(1)
	}
	fmt.Println("PASSED: Duplicate key rejected")
}

func sendRequest(method, endpoint string, payload interface{}) ([]byte, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return respBody, false
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return respBody, true
}
