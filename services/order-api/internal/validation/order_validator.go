package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/nimeshabuddhika/treasury-desk/pkg/models"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/shopspring/decimal"
)

// Field names as they appear on the wire, in the order rules are reported.
const (
	FieldSide         = "side"
	FieldTenor        = "tenor"
	FieldIssuanceType = "issuance_type"
	FieldQuantity     = "quantity"
	FieldYield        = "yield"
	FieldNotes        = "notes"
)

var fieldOrder = []string{FieldSide, FieldTenor, FieldIssuanceType, FieldQuantity, FieldYield, FieldNotes}

var (
	msgSide         = "side must be 'Buy' or 'Sell'"
	msgTenor        = "tenor must be one of: " + joinTenors()
	msgIssuanceType = "issuance_type must be 'WI', 'OTR', or 'OFTR'"
	msgQuantity     = "quantity must be a positive integer"
	msgQuantityLot  = fmt.Sprintf("quantity must be a multiple of %d", models.QuantityLot)
	msgYield        = "yield must be a positive number"
	msgNotesTooLong = fmt.Sprintf("notes must be at most %d characters", models.NotesMaxLength)
)

// orderInput is the typed form the struct rules run against.
type orderInput struct {
	Side         string          `json:"side" validate:"required,oneof=Buy Sell"`
	Tenor        string          `json:"tenor" validate:"required,tenor"`
	IssuanceType string          `json:"issuance_type" validate:"required,oneof=WI OTR OFTR"`
	Quantity     int64           `json:"quantity" validate:"gt=0,lot"`
	Yield        decimal.Decimal `json:"yield" validate:"positive_decimal"`
	Notes        string          `json:"notes" validate:"max=1000"`
}

// OrderValidator turns an untrusted OrderRequest into an OrderDraft. Every broken rule is
// reported, ordered side, tenor, issuance_type, quantity, yield, notes.
type OrderValidator struct {
	validate *validator.Validate
}

func NewOrderValidator() *OrderValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	rules := map[string]validator.Func{
		"tenor": func(fl validator.FieldLevel) bool {
			return models.Tenor(fl.Field().String()).Valid()
		},
		"lot": func(fl validator.FieldLevel) bool {
			return fl.Field().Int()%models.QuantityLot == 0
		},
		"positive_decimal": func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.IsPositive()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %q validation: %v", tag, err))
		}
	}
	return &OrderValidator{validate: v}
}

// Validate returns a pkg.AppError with code APP_VALIDATION_FAILED carrying every field
// error when req breaks a rule. Any other error is an internal fault.
func (o *OrderValidator) Validate(req views.OrderRequest) (models.OrderDraft, error) {
	problems := make(map[string]string)

	in := orderInput{
		Side:         req.Side,
		Tenor:        req.Tenor,
		IssuanceType: req.IssuanceType,
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}

	quantity, ok := parseQuantity(req.Quantity)
	if ok {
		in.Quantity = quantity
	} else {
		problems[FieldQuantity] = msgQuantity
	}
	yield, err := parseDecimal(req.Yield)
	if err != nil {
		problems[FieldYield] = msgYield
	} else {
		in.Yield = yield
	}

	if err := o.validate.Struct(in); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			return models.OrderDraft{}, err
		}
		for _, fe := range vErrs {
			if _, seen := problems[fe.Field()]; seen {
				continue
			}
			problems[fe.Field()] = messageFor(fe)
		}
	}

	if len(problems) > 0 {
		fields := make([]pkg.FieldError, 0, len(problems))
		for _, name := range fieldOrder {
			if msg, ok := problems[name]; ok {
				fields = append(fields, pkg.FieldError{Field: name, Message: msg})
			}
		}
		return models.OrderDraft{}, pkg.NewValidationError(fields)
	}

	return models.OrderDraft{
		Side:         models.Side(in.Side),
		Tenor:        models.Tenor(in.Tenor),
		IssuanceType: models.IssuanceType(in.IssuanceType),
		Quantity:     in.Quantity,
		Yield:        in.Yield,
		Notes:        in.Notes,
	}, nil
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldSide:
		return msgSide
	case FieldTenor:
		return msgTenor
	case FieldIssuanceType:
		return msgIssuanceType
	case FieldQuantity:
		if fe.Tag() == "lot" {
			return msgQuantityLot
		}
		return msgQuantity
	case FieldYield:
		return msgYield
	case FieldNotes:
		return msgNotesTooLong
	}
	return fe.Error()
}

// parseQuantity accepts integral JSON numbers, including forms like 5000.0.
func parseQuantity(n json.Number) (int64, bool) {
	d, err := parseDecimal(n)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	if d.GreaterThan(decimal.NewFromInt(1<<53)) || d.LessThan(decimal.NewFromInt(-(1 << 53))) {
		return 0, false
	}
	return d.IntPart(), true
}

func parseDecimal(n json.Number) (decimal.Decimal, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return decimal.Zero, errors.New("missing number")
	}
	return decimal.NewFromString(s)
}

func joinTenors() string {
	codes := make([]string, 0, len(models.Tenors))
	for _, t := range models.Tenors {
		codes = append(codes, string(t))
	}
	return strings.Join(codes, ", ")
}
