package testhelpers

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// WaitForHealth waits for a service to report healthy.
func WaitForHealth(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := CheckHealth(baseURL); err == nil {
			return nil
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("health check timeout after %v", timeout)
}

// CheckHealth performs a single health check against /healthz.
func CheckHealth(baseURL string) error {
	healthURL := strings.TrimSuffix(baseURL, "/") + "/healthz"
	resp, err := http.Get(healthURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unhealthy: %d", resp.StatusCode)
	}
	return nil
}
