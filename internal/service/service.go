// Package service holds what the domain services share: clock, logging,
// metrics, event publishing and translation of storage and validation
// failures into AppErrors.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/service/event"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
	"github.com/mediscan/mediscan-api/pkg/logger"
	"github.com/mediscan/mediscan-api/pkg/metrics"
	pkgvalidator "github.com/mediscan/mediscan-api/pkg/validator"
)

// Base is embedded by every domain service.
type Base struct {
	Log      *logger.Logger
	Metrics  *metrics.Metrics
	Events   *event.Publisher
	Validate *validator.Validate
	Now      func() time.Time
}

func NewBase(log *logger.Logger, m *metrics.Metrics, events *event.Publisher) Base {
	if log == nil {
		log = logger.Nop()
	}
	return Base{
		Log:      log,
		Metrics:  m,
		Events:   events,
		Validate: pkgvalidator.New(),
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Named returns a copy whose logger carries the component name.
func (b Base) Named(component string) Base {
	b.Log = b.Log.With(component)
	return b
}

// Finish records the outcome of op and logs storage failures.
func (b Base) Finish(op string, err error) error {
	b.Metrics.ObserveStore(op, err)
	if apperrors.HasCode(err, apperrors.ErrStorage) {
		b.Log.Error(err, "store operation failed", "operation", op)
	}
	return err
}

// Translate maps repository sentinels onto AppErrors. notFound and conflict
// may be nil when the operation cannot produce them.
func Translate(err error, notFound, conflict *apperrors.AppError) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, repository.ErrNotFound):
		return notFound
	case conflict != nil && errors.Is(err, repository.ErrDuplicate):
		conflict.Err = err
		return conflict
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.Storage(err)
}

var indexSuffix = regexp.MustCompile(`\[\d+\]$`)

// CheckStruct validates input and converts the first failure to a Validation
// error. fieldReasons overrides the tag-derived reason for a field.
func (b Base) CheckStruct(input interface{}, fieldReasons map[string]string) error {
	err := b.Validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation(apperrors.ReasonMissingField, err.Error())
	}

	fe := verrs[0]
	field := indexSuffix.ReplaceAllString(fe.Field(), "")
	if reason, ok := fieldReasons[field]; ok {
		return apperrors.Validation(reason, fmt.Sprintf("invalid %s", fe.Field()))
	}

	switch fe.Tag() {
	case "required":
		return apperrors.Validation(apperrors.ReasonMissingField, fmt.Sprintf("%s is required", fe.Field()))
	case "hhmm":
		return apperrors.Validation(apperrors.ReasonInvalidTime,
			fmt.Sprintf("%s must be a 24-hour HH:MM time, got %q", fe.Field(), fe.Value()))
	case "isodate":
		return apperrors.Validation(apperrors.ReasonInvalidDate,
			fmt.Sprintf("%s must be a YYYY-MM-DD date", fe.Field()))
	case "min":
		if k := fe.Kind(); k == reflect.String || k == reflect.Slice {
			return apperrors.Validation(apperrors.ReasonMissingField, fmt.Sprintf("%s is required", fe.Field()))
		}
	}
	return apperrors.Validation(apperrors.ReasonOutOfRange,
		fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
}

// CheckDays enforces the 1..365 window used by history queries.
func CheckDays(days int) error {
	if days < 1 || days > 365 {
		return apperrors.Validation(apperrors.ReasonInvalidRange, "days must be between 1 and 365")
	}
	return nil
}
