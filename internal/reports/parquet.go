// Package reports exports a session's conversation history as a Parquet
// artifact in the object store, one row per turn.
package reports

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/askdb/askdb/internal/session"
)

type ParquetEncodeResult struct {
	Data        []byte
	RecordCount int64
}

// parquetTurn flattens a conversation turn for columnar storage. Structured
// fields (sample rows, chart spec, table list) are carried as JSON text so
// downstream SQL engines can still reach into them.
type parquetTurn struct {
	SessionID       string `parquet:"session_id"`
	Question        string `parquet:"question"`
	SQL             string `parquet:"sql"`
	TablesJSON      string `parquet:"tables_json"`
	ResultCount     int64  `parquet:"result_count"`
	ResultsJSON     string `parquet:"results_json"`
	Answer          string `parquet:"answer"`
	ChartJSON       string `parquet:"chart_json"`
	ExecutionTimeMs int64  `parquet:"execution_time_ms"`
	TimestampUnixMs int64  `parquet:"timestamp_unix_ms"`
}

func EncodeTurnsToParquet(sessionID string, turns []session.Turn) (ParquetEncodeResult, error) {
	if len(turns) == 0 {
		return ParquetEncodeResult{}, fmt.Errorf("turns are required")
	}

	rows := make([]parquetTurn, 0, len(turns))
	for _, turn := range turns {
		tablesJSON, err := json.Marshal(turn.TablesUsed)
		if err != nil {
			return ParquetEncodeResult{}, fmt.Errorf("marshal table list: %w", err)
		}
		resultsJSON, err := json.Marshal(turn.Results)
		if err != nil {
			return ParquetEncodeResult{}, fmt.Errorf("marshal result sample: %w", err)
		}
		chartJSON := ""
		if turn.ChartData != nil {
			encoded, err := json.Marshal(turn.ChartData)
			if err != nil {
				return ParquetEncodeResult{}, fmt.Errorf("marshal chart spec: %w", err)
			}
			chartJSON = string(encoded)
		}
		rows = append(rows, parquetTurn{
			SessionID:       sessionID,
			Question:        turn.Question,
			SQL:             turn.SQL,
			TablesJSON:      string(tablesJSON),
			ResultCount:     int64(turn.ResultCount),
			ResultsJSON:     string(resultsJSON),
			Answer:          turn.Answer,
			ChartJSON:       chartJSON,
			ExecutionTimeMs: turn.ExecutionTimeMs,
			TimestampUnixMs: turn.Timestamp.UnixMilli(),
		})
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetTurn](buf)
	if _, err := writer.Write(rows); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return ParquetEncodeResult{Data: buf.Bytes(), RecordCount: int64(len(rows))}, nil
}
