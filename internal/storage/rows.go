package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// encodeRows renders a result set as a JSON array of row objects keyed by
// column name. An empty result set (including statements that return no
// rows at all) encodes as "[]".
func encodeRows(rows *sql.Rows) (string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("read columns: %w", err)
	}

	out := make([]map[string]any, 0)

	for rows.Next() {
		values := make([]any, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}

		if err := rows.Scan(scan...); err != nil {
			return "", fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return "", err
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode result set: %w", err)
	}
	return string(encoded), nil
}

// normalizeValue maps driver values onto JSON-friendly types. The sqlite3
// driver hands TEXT back as []byte, which json.Marshal would base64.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
