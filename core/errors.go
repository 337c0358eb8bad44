package orchestration

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation marks a stage that does not satisfy its role.
	ErrContractViolation = errors.New("stage contract violation")
	// ErrMissingCollaborator marks a builtin stage whose collaborator is unset.
	ErrMissingCollaborator = errors.New("runtime context collaborator not configured")
)

// ContractError names the role and the method a registered stage is missing.
type ContractError struct {
	Role   Role
	Method string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("plugin '%s' is missing method '%s'", e.Role, e.Method)
}

func (e *ContractError) Unwrap() error { return ErrContractViolation }

// StageError wraps a failure raised while running one pipeline stage.
type StageError struct {
	Stage   string
	CycleID string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// stageOf returns the stage an error belongs to, defaulting to fallback.
func stageOf(err error, fallback string) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return fallback
}

func cycleIDOf(err error) string {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.CycleID
	}
	return ""
}
