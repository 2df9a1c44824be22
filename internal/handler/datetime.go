package handler

import (
	"net/http"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func isValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

func isValidClock(s string) bool {
	_, err := time.Parse(clockLayout, s)
	return err == nil && len(s) == 5
}
