// Rentalscope - Bike Rental Data Exploration Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentalscope

package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDataLoad matches every loader failure via errors.Is.
var ErrDataLoad = errors.New("data load error")

// ErrorKind classifies a DataLoadError.
type ErrorKind string

const (
	KindMissingFile    ErrorKind = "missing_file"
	KindUnreadable     ErrorKind = "unreadable"
	KindMissingColumns ErrorKind = "missing_columns"
	KindMalformed      ErrorKind = "malformed"
	KindInvariant      ErrorKind = "invariant_violation"
	KindEmpty          ErrorKind = "empty"
)

// DataLoadError reports why a dataset could not be loaded. A load failure is
// fatal for the render cycle that triggered it.
type DataLoadError struct {
	Path string
	Kind ErrorKind

	// Row is the 1-based data row (header excluded), 0 when not row specific.
	Row int

	// Column names the offending column, or the comma-joined list of missing
	// columns for KindMissingColumns.
	Column string

	Err error
}

func (e *DataLoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dataset %s: %s", e.Path, e.Kind)
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " (column %s)", e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDataLoad) true for any *DataLoadError.
func (e *DataLoadError) Is(target error) bool {
	return target == ErrDataLoad
}

// LoadErrorKind returns the kind as a plain string for metric labels.
func (e *DataLoadError) LoadErrorKind() string {
	return string(e.Kind)
}

func loadError(path string, kind ErrorKind, err error) *DataLoadError {
	return &DataLoadError{Path: path, Kind: kind, Err: err}
}

func rowError(path string, kind ErrorKind, row int, column string, err error) *DataLoadError {
	return &DataLoadError{Path: path, Kind: kind, Row: row, Column: column, Err: err}
}
