package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// seatCount accepts either a JSON number or a numeric string ("30").
type seatCount struct {
	Value int
	Set   bool
}

func (s *seatCount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return fmt.Errorf("seats must be an integer, got %q", str)
		}
		s.Value, s.Set = n, true
		return nil
	}

	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("seats must be an integer: %w", err)
	}
	s.Value, s.Set = n, true
	return nil
}
