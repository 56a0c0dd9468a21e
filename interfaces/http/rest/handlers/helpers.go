package handlers

import (
	"time"

	"github.com/google/uuid"
)

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func newEventID() string {
	return "audit-" + uuid.New().String()
}
