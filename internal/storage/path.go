package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildReportPath returns the object key for a session report exported at
// the given time. Keys group by session so all exports of one conversation
// list together.
func BuildReportPath(sessionID string, exportedAt time.Time) (string, error) {
	if err := validatePathComponent(sessionID, "session id"); err != nil {
		return "", err
	}
	ts := exportedAt.UTC()
	return path.Join(
		"sessions",
		sessionID,
		fmt.Sprintf("report-%s.parquet", ts.Format("20060102T150405Z")),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
