package models_test

import (
	"testing"
	"time"

	"taskboard/models"
)

func TestSessionExpiry(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt string
		want      time.Time
		wantErr   bool
	}{
		{name: "RFC 3339 UTC", expiresAt: "2025-06-01T12:00:00Z", want: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		{name: "RFC 3339 with offset", expiresAt: "2025-06-01T14:00:00+02:00", want: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		{name: "Empty", expiresAt: "", wantErr: true},
		{name: "Malformed", expiresAt: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.Session{ExpiresAt: tt.expiresAt}.Expiry()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expiry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expiry() = %v, want %v", got, tt.want)
			}
		})
	}
}
