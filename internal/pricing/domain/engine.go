package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type SlotPriority string

const (
	SlotPriorityNormal  SlotPriority = "NORMAL"
	SlotPriorityHigh    SlotPriority = "HIGH"
	SlotPriorityPremium SlotPriority = "PREMIUM"
)

type AdFormat string

const (
	AdFormatImage AdFormat = "IMAGE"
	AdFormatGIF   AdFormat = "GIF"
	AdFormatMP4   AdFormat = "MP4"
	AdFormatWEBM  AdFormat = "WEBM"
)

type StepType string

const (
	StepBase       StepType = "BASE"
	StepMultiplier StepType = "MULTIPLIER"
	StepAdditive   StepType = "ADDITIVE"
	StepTimeSlot   StepType = "TIME_SLOT"
)

// Campaign input fields a LOOKUP or SLAB factor may key on.
const (
	FieldSlotPriority      = "slotPriority"
	FieldAdFormat          = "adFormat"
	FieldScreenCount       = "screenCount"
	FieldImpressionsPerDay = "impressionsPerDay"
	FieldTotalDays         = "totalDays"
)

// CampaignInput holds the booking parameters a price is computed for.
type CampaignInput struct {
	ScreenCount       int          `json:"screenCount" validate:"min=1"`
	TotalDays         int          `json:"totalDays" validate:"min=1"`
	ImpressionsPerDay int          `json:"impressionsPerDay" validate:"min=1"`
	SlotPriority      SlotPriority `json:"slotPriority" validate:"omitempty,oneof=NORMAL HIGH PREMIUM"`
	AdFormat          AdFormat     `json:"adFormat" validate:"omitempty,oneof=IMAGE GIF MP4 WEBM"`
	TimeSlots         []string     `json:"timeSlots" validate:"dive,required"`
}

// FieldValue returns the input value addressed by a factor key, rendered as a lookup key.
func (in CampaignInput) FieldValue(field string) (string, bool) {
	switch field {
	case FieldSlotPriority:
		return string(in.SlotPriority), in.SlotPriority != ""
	case FieldAdFormat:
		return string(in.AdFormat), in.AdFormat != ""
	}
	if n, ok := in.NumericField(field); ok {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

func (in CampaignInput) NumericField(field string) (int64, bool) {
	switch field {
	case FieldScreenCount:
		return int64(in.ScreenCount), true
	case FieldImpressionsPerDay:
		return int64(in.ImpressionsPerDay), true
	case FieldTotalDays:
		return int64(in.TotalDays), true
	default:
		return 0, false
	}
}

func IsCampaignField(field string) bool {
	switch field {
	case FieldSlotPriority, FieldAdFormat, FieldScreenCount, FieldImpressionsPerDay, FieldTotalDays:
		return true
	default:
		return false
	}
}

func IsNumericField(field string) bool {
	_, ok := CampaignInput{}.NumericField(field)
	return ok
}

// EnumValues lists the accepted values of an enumerated input field, nil for free-form fields.
func EnumValues(field string) []string {
	switch field {
	case FieldSlotPriority:
		return []string{string(SlotPriorityNormal), string(SlotPriorityHigh), string(SlotPriorityPremium)}
	case FieldAdFormat:
		return []string{string(AdFormatImage), string(AdFormatGIF), string(AdFormatMP4), string(AdFormatWEBM)}
	default:
		return nil
	}
}

// LookupTable maps an input value to the factor value used for it.
type LookupTable map[string]decimal.Decimal

// Slab is a closed numeric band; a nil Max leaves the band open-ended.
type Slab struct {
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
	Value decimal.Decimal  `json:"value"`
}

func (s Slab) Contains(v decimal.Decimal) bool {
	if v.LessThan(s.Min) {
		return false
	}
	return s.Max == nil || v.LessThanOrEqual(*s.Max)
}

// Resolution is the tagged strategy of a factor. Lookup is set only for
// LOOKUP and Slabs only for SLAB.
type Resolution struct {
	Kind   ResolutionKind `json:"kind"`
	Lookup LookupTable    `json:"lookup,omitempty"`
	Slabs  []Slab         `json:"slabs,omitempty"`
}

type FactorRule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Key        string          `json:"key"`
	Type       FactorType      `json:"type"`
	Enabled    bool            `json:"enabled"`
	Priority   int             `json:"priority"`
	Value      decimal.Decimal `json:"value"`
	Resolution Resolution      `json:"resolution"`
}

type TimeSlotRule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	StartTime  string          `json:"startTime"`
	EndTime    string          `json:"endTime"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Priority   int             `json:"priority"`
}

// ResolvedVersion is a pricing version in the shape the engine consumes.
// Factors and TimeSlots keep declaration order.
type ResolvedVersion struct {
	ID            string          `json:"id"`
	ConfigID      string          `json:"configId"`
	VersionNumber int             `json:"versionNumber"`
	Status        VersionStatus   `json:"status"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	TokenUsdPrice decimal.Decimal `json:"tokenUsdPrice"`
	Factors       []FactorRule    `json:"factors"`
	TimeSlots     []TimeSlotRule  `json:"timeSlots"`
}

type BreakdownStep struct {
	Factor    string          `json:"factor"`
	Priority  int             `json:"priority"`
	Type      StepType        `json:"type"`
	PreValue  decimal.Decimal `json:"preValue"`
	Change    decimal.Decimal `json:"change"`
	PostValue decimal.Decimal `json:"postValue"`
}

type Result struct {
	BasePrice        decimal.Decimal `json:"basePrice"`
	FinalPrice       decimal.Decimal `json:"finalPrice"`
	Breakdown        []BreakdownStep `json:"breakdown"`
	PricingVersionID string          `json:"pricingVersionId"`
}
