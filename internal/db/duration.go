package db

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SessionDuration is one of the offerable session lengths, in minutes.
type SessionDuration int

const (
	Duration5  SessionDuration = 5
	Duration10 SessionDuration = 10
	Duration15 SessionDuration = 15
	Duration30 SessionDuration = 30
)

var SessionDurations = []SessionDuration{Duration5, Duration10, Duration15, Duration30}

func (d SessionDuration) IsValid() bool {
	switch d {
	case Duration5, Duration10, Duration15, Duration30:
		return true
	}
	return false
}

func (d SessionDuration) Minutes() int {
	return int(d)
}

func (d SessionDuration) Duration() time.Duration {
	return time.Duration(d) * time.Minute
}

// MarshalText lets durations key JSON objects ("5", "10", ...).
func (d SessionDuration) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(int(d))), nil
}

func (d *SessionDuration) UnmarshalText(b []byte) error {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("invalid session duration %q", string(b))
	}
	*d = SessionDuration(n)
	return nil
}

// MarshalJSON keeps plain values as numbers; MarshalText alone would quote them.
func (d SessionDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(d))
}

// UnmarshalJSON accepts both 10 and "10"; encoding/json routes quoted map
// keys through here rather than UnmarshalText.
func (d *SessionDuration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("invalid session duration %s", string(b))
		}
		return d.UnmarshalText([]byte(s))
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid session duration %s", string(b))
	}
	*d = SessionDuration(n)
	return nil
}
