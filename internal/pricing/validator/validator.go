// Package validator checks campaign input on the booking path and pricing
// versions on the authoring path. Checks never fail fast: every violated rule
// yields one message.
package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/pricing/engine"
)

const (
	MinFactorPriority = 1
	MaxFactorPriority = 10

	// storedScale and storedIntegerDigits mirror the numeric(20,8) price columns.
	storedScale         = 8
	storedIntegerDigits = 12
)

var storedLimit = decimal.New(1, storedIntegerDigits)

var (
	hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	validate    = newValidate()
)

func newValidate() *playground.Validate {
	v := playground.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl playground.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateCampaignInput returns one message per violated rule, nil when valid.
func ValidateCampaignInput(input domain.CampaignInput) []string {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(playground.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	var messages []string
	for _, fe := range fieldErrs {
		msg := campaignMessage(fe)
		if !slices.Contains(messages, msg) {
			messages = append(messages, msg)
		}
	}
	return messages
}

func campaignMessage(fe playground.FieldError) string {
	field := fe.Field()
	switch {
	case field == domain.FieldScreenCount:
		return "Screen count must be at least 1"
	case field == domain.FieldTotalDays:
		return "Duration must be at least 1 day"
	case field == domain.FieldImpressionsPerDay:
		return "Impressions per day must be at least 1"
	case field == domain.FieldSlotPriority:
		return "Slot priority must be one of " + strings.Join(domain.EnumValues(domain.FieldSlotPriority), ", ")
	case field == domain.FieldAdFormat:
		return "Ad format must be one of " + strings.Join(domain.EnumValues(domain.FieldAdFormat), ", ")
	case strings.HasPrefix(field, "timeSlots"):
		return "Time slot ids cannot be empty"
	default:
		return field + " is invalid"
	}
}

// ValidateTimeSlotSelection reports selected time slot ids the version does not define.
func ValidateTimeSlotSelection(version domain.ResolvedVersion, ids []string) []string {
	var messages []string
	for _, id := range engine.UnknownTimeSlots(version, ids) {
		messages = append(messages, fmt.Sprintf("Time slot %q is not part of pricing version %d.", id, version.VersionNumber))
	}
	return messages
}

// ValidateConfig checks a version before it is stored.
func ValidateConfig(version domain.ResolvedVersion) []string {
	var errs []string

	if !version.BasePrice.IsPositive() {
		errs = append(errs, "Base price must be greater than 0")
	}
	if !version.TokenUsdPrice.IsPositive() {
		errs = append(errs, "Token USD price must be greater than 0")
	}
	errs = appendPrecision(errs, "Base price", version.BasePrice)
	errs = appendPrecision(errs, "Token USD price", version.TokenUsdPrice)
	if len(version.Factors) == 0 {
		errs = append(errs, "At least one pricing factor must be defined")
	}

	for i, f := range version.Factors {
		errs = append(errs, validateFactor(i, f)...)
	}
	for i, ts := range version.TimeSlots {
		errs = append(errs, validateTimeSlot(i, ts)...)
	}
	return errs
}

func validateFactor(idx int, f domain.FactorRule) []string {
	var errs []string
	name := f.Name
	if strings.TrimSpace(name) == "" {
		errs = append(errs, fmt.Sprintf("Factor #%d must have a name.", idx+1))
		name = fmt.Sprintf("#%d", idx+1)
	}

	if f.Priority < MinFactorPriority || f.Priority > MaxFactorPriority {
		errs = append(errs, fmt.Sprintf("Factor %q has invalid priority %d. Must be 1-10.", name, f.Priority))
	}

	errs = appendPrecision(errs, fmt.Sprintf("Factor %q value", name), f.Value)

	switch f.Type {
	case domain.FactorMultiplier:
		if hasNegative(f) {
			errs = append(errs, fmt.Sprintf("Factor %q cannot have a negative multiplier.", name))
		}
	case domain.FactorAdditive:
	default:
		errs = append(errs, fmt.Sprintf("Factor %q has invalid type %q. Must be MULTIPLIER or ADDITIVE.", name, f.Type))
	}

	switch f.Resolution.Kind {
	case domain.ResolutionStatic:
	case domain.ResolutionLookup:
		errs = append(errs, validateLookup(name, f)...)
	case domain.ResolutionSlab:
		errs = append(errs, validateSlabs(name, f)...)
	default:
		errs = append(errs, fmt.Sprintf("Factor %q has invalid resolution %q. Must be STATIC, LOOKUP or SLAB.", name, f.Resolution.Kind))
	}
	return errs
}

func hasNegative(f domain.FactorRule) bool {
	if f.Value.IsNegative() {
		return true
	}
	for _, v := range f.Resolution.Lookup {
		if v.IsNegative() {
			return true
		}
	}
	for _, s := range f.Resolution.Slabs {
		if s.Value.IsNegative() {
			return true
		}
	}
	return false
}

func validateLookup(name string, f domain.FactorRule) []string {
	if !domain.IsCampaignField(f.Key) {
		return []string{fmt.Sprintf("Factor %q looks up unknown campaign field %q.", name, f.Key)}
	}
	if len(f.Resolution.Lookup) == 0 {
		return []string{fmt.Sprintf("Factor %q has an empty lookup table.", name)}
	}

	keys := make([]string, 0, len(f.Resolution.Lookup))
	for k := range f.Resolution.Lookup {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var errs []string
	allowed := domain.EnumValues(f.Key)
	for _, k := range keys {
		if allowed != nil {
			if !slices.Contains(allowed, k) {
				errs = append(errs, fmt.Sprintf("Factor %q has lookup key %q that is not a valid %s value.", name, k, f.Key))
			}
			continue
		}
		if err := validate.Var(k, "required,number"); err != nil {
			errs = append(errs, fmt.Sprintf("Factor %q has lookup key %q that is not a whole number.", name, k))
		}
	}
	return errs
}

func validateSlabs(name string, f domain.FactorRule) []string {
	if !domain.IsNumericField(f.Key) {
		return []string{fmt.Sprintf("Factor %q slabs require a numeric campaign field, got %q.", name, f.Key)}
	}
	if len(f.Resolution.Slabs) == 0 {
		return []string{fmt.Sprintf("Factor %q has no slabs.", name)}
	}
	var errs []string
	for i, s := range f.Resolution.Slabs {
		if s.Max != nil && s.Min.GreaterThan(*s.Max) {
			errs = append(errs, fmt.Sprintf("Factor %q slab %d has min greater than max.", name, i+1))
		}
	}
	return errs
}

func validateTimeSlot(idx int, ts domain.TimeSlotRule) []string {
	var errs []string
	name := ts.Name
	if strings.TrimSpace(name) == "" {
		errs = append(errs, fmt.Sprintf("Time slot #%d must have a name.", idx+1))
		name = fmt.Sprintf("#%d", idx+1)
	}
	if err := validate.Var(ts.StartTime, "hhmm"); err != nil {
		errs = append(errs, fmt.Sprintf("Time slot %q has invalid start time %q. Use HH:mm.", name, ts.StartTime))
	}
	if err := validate.Var(ts.EndTime, "hhmm"); err != nil {
		errs = append(errs, fmt.Sprintf("Time slot %q has invalid end time %q. Use HH:mm.", name, ts.EndTime))
	}
	if ts.Multiplier.LessThan(decimal.Zero) {
		errs = append(errs, fmt.Sprintf("Time slot %q cannot have a negative multiplier.", name))
	}
	errs = appendPrecision(errs, fmt.Sprintf("Time slot %q multiplier", name), ts.Multiplier)
	return errs
}

// appendPrecision rejects amounts the price columns would round or overflow.
func appendPrecision(errs []string, label string, d decimal.Decimal) []string {
	if !d.Equal(d.Truncate(storedScale)) {
		return append(errs, fmt.Sprintf("%s cannot have more than %d decimal places.", label, storedScale))
	}
	if d.Abs().GreaterThanOrEqual(storedLimit) {
		return append(errs, fmt.Sprintf("%s is too large.", label))
	}
	return errs
}
