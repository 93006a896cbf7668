package deal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/deal-calculator/pkg/normalize"
	"github.com/iwvelando/deal-calculator/pkg/sdlt"
)

// Input field names, used by change triggers and required field checks.
const (
	FieldPurchasePrice     = "purchasePrice"
	FieldRenovation        = "renovation"
	FieldArchitectPlanning = "architectPlanning"
	FieldBuildingControl   = "buildingControl"
	FieldFurniture         = "furniture"
	FieldSurvey            = "survey"
	FieldLegal             = "legal"
	FieldInsurance         = "insurance"
	FieldSourcing          = "sourcing"
	FieldLeaseSetup        = "leaseSetup"
	FieldCategory          = "category"
	FieldAskingPrice       = "askingPrice"
	FieldRooms             = "rooms"
	FieldMonthlyRent       = "monthlyRent"
)

// ErrUnknownField is returned when a field name does not name an input field.
var ErrUnknownField = errors.New("unknown input field")

// ErrInvalidValue is returned when a value cannot be assigned to a field.
var ErrInvalidValue = errors.New("invalid field value")

// Input is the raw deal record supplied by the caller. Amount fields accept
// anything the normalizer understands: nil, numbers or formatted text such
// as "£1,250". An Input is not modified by a compute cycle.
type Input struct {
	PurchasePrice     interface{} `json:"purchasePrice,omitempty" yaml:"purchasePrice,omitempty" mapstructure:"purchasePrice"`
	Renovation        interface{} `json:"renovation,omitempty" yaml:"renovation,omitempty" mapstructure:"renovation"`
	ArchitectPlanning interface{} `json:"architectPlanning,omitempty" yaml:"architectPlanning,omitempty" mapstructure:"architectPlanning"`
	BuildingControl   interface{} `json:"buildingControl,omitempty" yaml:"buildingControl,omitempty" mapstructure:"buildingControl"`
	Furniture         interface{} `json:"furniture,omitempty" yaml:"furniture,omitempty" mapstructure:"furniture"`
	Survey            interface{} `json:"survey,omitempty" yaml:"survey,omitempty" mapstructure:"survey"`
	Legal             interface{} `json:"legal,omitempty" yaml:"legal,omitempty" mapstructure:"legal"`
	Insurance         interface{} `json:"insurance,omitempty" yaml:"insurance,omitempty" mapstructure:"insurance"`
	Sourcing          interface{} `json:"sourcing,omitempty" yaml:"sourcing,omitempty" mapstructure:"sourcing"`
	LeaseSetup        interface{} `json:"leaseSetup,omitempty" yaml:"leaseSetup,omitempty" mapstructure:"leaseSetup"`
	Category          string      `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
	AskingPrice       interface{} `json:"askingPrice,omitempty" yaml:"askingPrice,omitempty" mapstructure:"askingPrice"`
	Rooms             interface{} `json:"rooms,omitempty" yaml:"rooms,omitempty" mapstructure:"rooms"`
	MonthlyRent       interface{} `json:"monthlyRent,omitempty" yaml:"monthlyRent,omitempty" mapstructure:"monthlyRent"`
}

// Set assigns a field by name.
func (in *Input) Set(field string, value interface{}) error {
	if field == FieldCategory {
		if value == nil {
			in.Category = ""
			return nil
		}
		tag, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: field %s expects text, got %T", ErrInvalidValue, field, value)
		}
		in.Category = tag
		return nil
	}
	target, err := in.amountField(field)
	if err != nil {
		return err
	}
	*target = value
	return nil
}

// Get returns a field by name.
func (in Input) Get(field string) (interface{}, error) {
	if field == FieldCategory {
		return in.Category, nil
	}
	target, err := in.amountField(field)
	if err != nil {
		return nil, err
	}
	return *target, nil
}

func (in *Input) amountField(field string) (*interface{}, error) {
	switch field {
	case FieldPurchasePrice:
		return &in.PurchasePrice, nil
	case FieldRenovation:
		return &in.Renovation, nil
	case FieldArchitectPlanning:
		return &in.ArchitectPlanning, nil
	case FieldBuildingControl:
		return &in.BuildingControl, nil
	case FieldFurniture:
		return &in.Furniture, nil
	case FieldSurvey:
		return &in.Survey, nil
	case FieldLegal:
		return &in.Legal, nil
	case FieldInsurance:
		return &in.Insurance, nil
	case FieldSourcing:
		return &in.Sourcing, nil
	case FieldLeaseSetup:
		return &in.LeaseSetup, nil
	case FieldAskingPrice:
		return &in.AskingPrice, nil
	case FieldRooms:
		return &in.Rooms, nil
	case FieldMonthlyRent:
		return &in.MonthlyRent, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownField, field)
	}
}

// CategoryTag parses the category, reporting whether it is usable.
func (in Input) CategoryTag() (sdlt.Category, bool) {
	if strings.TrimSpace(in.Category) == "" {
		return "", false
	}
	category, err := sdlt.ParseCategory(in.Category)
	if err != nil {
		return "", false
	}
	return category, true
}

var requiredFields = []string{
	FieldPurchasePrice, FieldRenovation, FieldArchitectPlanning, FieldBuildingControl,
	FieldFurniture, FieldSurvey, FieldLegal, FieldInsurance, FieldSourcing, FieldCategory,
	FieldRooms, FieldAskingPrice,
}

// MissingRequired lists the fields that must be filled before a full
// calculation is meaningful. The domestic variant additionally needs a
// monthly rent; the international variant uses a fixed rent basis.
func (in Input) MissingRequired(variant Variant) []string {
	fields := requiredFields
	if variant == Domestic {
		fields = append(append([]string{}, requiredFields...), FieldMonthlyRent)
	}

	var missing []string
	for _, field := range fields {
		if field == FieldCategory {
			if strings.TrimSpace(in.Category) == "" {
				missing = append(missing, field)
			}
			continue
		}
		value, _ := in.Get(field)
		if !normalize.Present(value) {
			missing = append(missing, field)
		}
	}
	return missing
}
