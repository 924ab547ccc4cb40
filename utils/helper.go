package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/lagoonpms/resort_backend/config"
	"github.com/shopspring/decimal"
)

// Rounding places used throughout the ledger:
// quantities carry 3 decimal places, unit costs 4, monetary totals 2.
const (
	QtyPlaces      = 3
	UnitCostPlaces = 4
	AmountPlaces   = 2
)

var validate = validator.New()

// ValidateStruct runs field-level validation tags on an input struct.
func ValidateStruct(input interface{}) error {
	return validate.Struct(input)
}

// ProcessValidationErrors flattens validator errors into field => message.
func ProcessValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}

func NewTrue() *bool {
	b := true
	return &b
}

func UniqueSlice[T comparable](slice []T) []T {
	seen := make(map[T]bool)
	result := []T{}
	for _, v := range slice {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	var zero T
	if len(defaults) > 0 {
		return defaults[0]
	}
	return zero
}

// RoundQty rounds a quantity to the ledger's quantity precision.
func RoundQty(d decimal.Decimal) decimal.Decimal {
	return d.Round(QtyPlaces)
}

// RoundUnitCost rounds a per-unit cost to the ledger's unit-cost precision.
func RoundUnitCost(d decimal.Decimal) decimal.Decimal {
	return d.Round(UnitCostPlaces)
}

// RoundAmount rounds a monetary total to the ledger's money precision.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}
	return dec, nil
}

// ExecTemplate renders a SQL text template; reports use it to include or
// drop optional filter clauses before binding named parameters.
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

// PropertyLock serializes stock and settlement writes per property.
// Row-level locking inside the DB transaction remains the correctness
// mechanism; the redis lock narrows lock-wait pileups under bursts.
func PropertyLock(ctx context.Context, propertyId string, lockType string, moduleName string, functionName string) error {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Avoid nil-pointer panics when Redis lock isn't initialized yet.
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", propertyId, errors.New("redis lock is nil"))
		return errors.New("service not ready (redis lock not initialized)")
	}
	// Try to obtain a lock for the property
	lockKey := fmt.Sprintf("%s:%s", lockType, propertyId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock for property", propertyId, err)
		return errors.New("could not obtain lock for property")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock for property", propertyId, err)
		return err
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	return nil
}
