package storage

import (
	"testing"
	"time"
)

func TestBuildReportPath(t *testing.T) {
	exportedAt := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	got, err := BuildReportPath("4f7c2d1e", exportedAt)
	if err != nil {
		t.Fatalf("BuildReportPath() error = %v", err)
	}
	want := "sessions/4f7c2d1e/report-20240301T123045Z.parquet"
	if got != want {
		t.Fatalf("BuildReportPath() = %q, want %q", got, want)
	}
}

func TestBuildReportPathNormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	exportedAt := time.Date(2024, 3, 1, 14, 30, 45, 0, zone)

	got, err := BuildReportPath("abc", exportedAt)
	if err != nil {
		t.Fatalf("BuildReportPath() error = %v", err)
	}
	if got != "sessions/abc/report-20240301T123045Z.parquet" {
		t.Fatalf("BuildReportPath() = %q", got)
	}
}

func TestBuildReportPathRejectsBadSessionID(t *testing.T) {
	for _, sessionID := range []string{"", "../escape", "a/b", "-leading-dash"} {
		if _, err := BuildReportPath(sessionID, time.Now()); err == nil {
			t.Fatalf("BuildReportPath(%q) expected error", sessionID)
		}
	}
}
