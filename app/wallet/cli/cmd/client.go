package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var client = http.Client{Timeout: 10 * time.Second}

// apiError is the error document returned by the node.
type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func get(url string, response any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(resp, response)
}

func post(url string, request any, response any) error {
	data, err := json.Marshal(request)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decode(resp, response)
}

func decode(resp *http.Response, response any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)

		var ae apiError
		if err := json.Unmarshal(body, &ae); err != nil || ae.Error == "" {
			return fmt.Errorf("node returned %s", resp.Status)
		}
		if len(ae.Fields) > 0 {
			return fmt.Errorf("%s: %s %v", resp.Status, ae.Error, ae.Fields)
		}
		return fmt.Errorf("%s: %s", resp.Status, ae.Error)
	}

	if response == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(response)
}
