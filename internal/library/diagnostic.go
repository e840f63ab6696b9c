package library

import (
	"errors"

	"github.com/sirupsen/logrus"

	"tunesport/internal/document"
)

// Diagnostic is a recoverable problem found while building the library.
// The affected field, entry or entity is left out of the result.
type Diagnostic struct {
	Entity   string // "library", "track" or "playlist"
	ID       string
	Field    string
	Expected document.Kind
	Actual   document.Kind
	Message  string
	Level    logrus.Level
}

func (d Diagnostic) fields() logrus.Fields {
	f := logrus.Fields{"entity": d.Entity}
	if d.ID != "" {
		f["id"] = d.ID
	}
	if d.Field != "" {
		f["field"] = d.Field
	}
	if d.Expected != document.KindInvalid {
		f["expected"] = d.Expected.String()
		f["actual"] = d.Actual.String()
	}
	return f
}

func fieldDiagnostic(entity, id, field string, err error) Diagnostic {
	d := Diagnostic{Entity: entity, ID: id, Field: field, Message: err.Error(), Level: logrus.WarnLevel}
	var typeErr *FieldTypeError
	switch {
	case errors.As(err, &typeErr):
		d.Expected = typeErr.Expected
		d.Actual = typeErr.Actual
		d.Message = "unexpected value type"
	case errors.Is(err, ErrUnknownField):
		d.Message = "unknown field ignored"
		d.Level = logrus.DebugLevel
	}
	return d
}
