package domain

import "time"

// Token describes an issued identity credential.
type Token struct {
	Value     string
	ExpiresAt time.Time
}
