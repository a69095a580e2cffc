package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var client = http.Client{Timeout: 30 * time.Second}

// errorResponse is the body a node sends back for a failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// get sends a GET request to the url and decodes the response into resp.
func get(url string, resp any) error {
	return do(http.MethodGet, url, nil, resp)
}

// post sends the body as JSON to the url and decodes the response into resp.
func post(url string, body any, resp any) error {
	return do(http.MethodPost, url, body, resp)
}

func do(method string, url string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, strings.TrimSuffix(url, "/"), r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var er errorResponse
		json.NewDecoder(res.Body).Decode(&er)
		return fmt.Errorf("%s %s: status %d: %s", method, url, res.StatusCode, er.Error)
	}

	if resp == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(resp)
}
