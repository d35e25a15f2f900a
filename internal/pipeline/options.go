package pipeline

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/fileconverter/internal/codec"
)

// ErrInvalidOptions is returned when Options fail validation.
var ErrInvalidOptions = errors.New("invalid options")

// Options controls one pipeline run. A fresh value is built for every
// request; nothing is remembered between runs.
type Options struct {
	RemoveDuplicates    bool         `json:"removeDuplicates"`
	FillMissingWithMean bool         `json:"fillMissingWithMean"`
	SelectedColumns     []string     `json:"selectedColumns"` // nil keeps every column
	ShowChart           bool         `json:"showChart"`
	OutputFormat        codec.Format `json:"outputFormat" validate:"required,oneof=csv xlsx"`
}

// DefaultOptions returns options that convert to CSV without cleaning.
func DefaultOptions() Options {
	return Options{OutputFormat: codec.CSV}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the option values.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(msgs, "; "))
}

// ParseOptions reads options from form or query values:
//
//	dedup=on  fill=on  chart=on  format=csv|xlsx  columns=<name>...
//
// A "columns" value, or select=1 with no columns, makes the selection
// explicit; otherwise every column is kept.
func ParseOptions(q url.Values) (Options, error) {
	opts := DefaultOptions()
	opts.RemoveDuplicates = isOn(q.Get("dedup"))
	opts.FillMissingWithMean = isOn(q.Get("fill"))
	opts.ShowChart = isOn(q.Get("chart"))

	if s := q.Get("format"); s != "" {
		f, err := codec.ParseFormat(s)
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		opts.OutputFormat = f
	}

	if cols, ok := q["columns"]; ok || isOn(q.Get("select")) {
		opts.SelectedColumns = append([]string{}, cols...)
	}

	return opts, opts.Validate()
}

// Values encodes opts back into query values understood by ParseOptions.
func (o Options) Values() url.Values {
	q := url.Values{}
	if o.RemoveDuplicates {
		q.Set("dedup", "on")
	}
	if o.FillMissingWithMean {
		q.Set("fill", "on")
	}
	if o.ShowChart {
		q.Set("chart", "on")
	}
	if o.OutputFormat != "" {
		q.Set("format", string(o.OutputFormat))
	}
	if o.SelectedColumns != nil {
		q.Set("select", "1")
		for _, c := range o.SelectedColumns {
			q.Add("columns", c)
		}
	}
	return q
}

func isOn(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}
