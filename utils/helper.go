package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"text/template"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/tradeledger/config"
	"github.com/ttacon/libphonenumber"
)

const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names so messages line up with the payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// ValidateStruct runs the `validate` struct tags and returns field errors.
func ValidateStruct(input any) []FieldError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	return ProcessValidationErrors(err)
}

func ProcessValidationErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	result := make([]FieldError, 0, len(validationErrors))
	for _, ve := range validationErrors {
		result = append(result, FieldError{Field: ve.Field(), Message: tagMessage(ve)})
	}
	return result
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return fe.Tag()
	}
}

// NormalizeDate drops the clock part; ledger dates are calendar days in UTC.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func NormalizeDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := NormalizeDate(*t)
	return &d
}

// ParseDate accepts 2006-01-02 and 02-01-2006.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "02-01-2006", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// ParseOptionalDate treats a blank string as no bound.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func DereferencePtr[T any](ptr *T, defaultValue T) T {
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

// OrganizationLock serializes lockType work for one organization across
// processes. Redis is best-effort: without a lock client, or when Redis
// errors, the returned release is a no-op and the caller proceeds on its
// database constraints alone. Only a lock held by someone else is an error.
func OrganizationLock(ctx context.Context, orgId int, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	noop := func() {}
	if locker == nil {
		return noop, nil
	}
	lockKey := fmt.Sprintf("%s:%d", lockType, orgId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for organization", orgId, err)
		return nil, ErrOrganizationBusy
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for organization; proceeding without lock", orgId, err)
		return noop, nil
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			config.LogError(logger, moduleName, functionName, "Failed to release organization lock", orgId, releaseErr)
		}
	}, nil
}

// execute given template string and return generated string
func ExecTemplate(tString string, data map[string]interface{}) (string, error) {
	t, err := template.New("sql").Parse(tString)
	if err != nil {
		return "", errors.New("error parsing sql template: " + err.Error())
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", errors.New("failed to execute sql template: " + err.Error())
	}
	return b.String(), nil
}
