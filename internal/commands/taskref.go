package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrTaskIDRequired indicates no task id was provided.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses the task id argument.
// Accepted forms are "12" and "#12"; the id must be positive and alone.
func ParseTaskID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, ErrTaskIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}

	ref := strings.TrimPrefix(strings.TrimSpace(args[0]), "#")
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
