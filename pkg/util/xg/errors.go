package xg

import "fmt"

// ConfigurationError indicates an unusable configuration value, such as an
// unrecognized fill strategy. Fatal to the estimator run; nothing is written.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %q", e.Field, e.Value)
}

// InsufficientDataError indicates that an aggregate (mean or median) is
// undefined because the input history is empty or degenerate.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Reason)
}

// StorageUnavailableError indicates that the strength table file is absent or
// unreadable at prediction time. Surfaced to the caller without retry.
type StorageUnavailableError struct {
	Path string
	Err  error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("strength table unavailable at %s: %v", e.Path, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// TeamNotFoundError names the single team missing from a strength table
// lookup. Raised before any numeric computation proceeds.
type TeamNotFoundError struct {
	Team string
}

func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("team %q not found in strength table", e.Team)
}
