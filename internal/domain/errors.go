package domain

import (
	"errors"
	"strings"
)

// ErrInvalidCSV matches every structural upload failure. The caller is
// expected to show the message and let the user upload again.
var ErrInvalidCSV = errors.New("invalid forecast csv")

var (
	// ErrEmptyOrHeaderOnly means the upload has no data line after the header.
	ErrEmptyOrHeaderOnly error = &csvError{msg: "CSV file must contain header and at least one data row"}

	// ErrNoValidRows means every data line was skipped.
	ErrNoValidRows error = &csvError{msg: "No valid data rows found in CSV"}
)

// ErrUnknownSite is returned for a site ID outside the monitoring catalog.
var ErrUnknownSite = errors.New("unknown monitoring site")

// ErrSuperseded is returned for a submission whose session has since started
// a newer one. Its result is discarded.
var ErrSuperseded = errors.New("submission superseded by a newer request")

type csvError struct {
	msg string
}

func (e *csvError) Error() string { return e.msg }

func (e *csvError) Is(target error) bool { return target == ErrInvalidCSV }

// MissingColumnsError lists every required header column the upload lacks.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrInvalidCSV }
