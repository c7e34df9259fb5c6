package provider

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Profile holds the metadata fields returned for a ticker. Fields the
// provider omits are left empty.
type Profile struct {
	LongName         string
	ShortName        string
	Exchange         string
	FullExchangeName string
}

// EarningsEvent is one historical earnings entry. Quarter carries the
// period-identifying date string exactly as the provider formatted it;
// parsing is left to the caller so one malformed row never fails a whole
// fetch. SurprisePercent is fractional (0.0537 means 5.37%).
type EarningsEvent struct {
	Quarter         string
	EpsEstimate     decimal.NullDecimal
	EpsActual       decimal.NullDecimal
	EpsDifference   decimal.NullDecimal
	SurprisePercent decimal.NullDecimal
}

// rawValue is the provider's {raw, fmt} wrapper around numeric fields.
type rawValue struct {
	Raw *decimal.Decimal `json:"raw"`
	Fmt string           `json:"fmt"`
}

func (v rawValue) Decimal() decimal.NullDecimal {
	if v.Raw == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v.Raw, Valid: true}
}

// TransientError marks a provider failure that is expected to be
// retriable, such as a network error or a 5xx response.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient provider failure: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retriable provider failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// FormatError marks a provider response whose shape could not be decoded.
// It is terminal; retrying will not change the payload.
type FormatError struct {
	Ticker string
	Reason string
}

func (e *FormatError) Error() string {
	return "unexpected provider response for " + e.Ticker + ": " + e.Reason
}
