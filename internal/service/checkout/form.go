package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is the shipping and contact data submitted at checkout.
type Form struct {
	Name     string `json:"name" validate:"required"`
	HouseNo  string `json:"houseNo" validate:"required"`
	Area     string `json:"area" validate:"required"`
	Landmark string `json:"landmark"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	PinCode  string `json:"pinCode" validate:"required,pincode"`
	Phone    string `json:"phone" validate:"required,phone"`

	// MeasurementProfileID optionally selects a saved profile to snapshot.
	MeasurementProfileID string `json:"measurementProfileId,omitempty"`
}

func (f Form) trimmed() Form {
	return Form{
		Name:                 strings.TrimSpace(f.Name),
		HouseNo:              strings.TrimSpace(f.HouseNo),
		Area:                 strings.TrimSpace(f.Area),
		Landmark:             strings.TrimSpace(f.Landmark),
		City:                 strings.TrimSpace(f.City),
		State:                strings.TrimSpace(f.State),
		PinCode:              strings.TrimSpace(f.PinCode),
		Phone:                strings.TrimSpace(f.Phone),
		MeasurementProfileID: strings.TrimSpace(f.MeasurementProfileID),
	}
}

var (
	pinCodePattern = regexp.MustCompile(`^\d{6}$`)
	phonePattern   = regexp.MustCompile(`^\+?[0-9][0-9 \-]*$`)
)

const minPhoneDigits = 10

func validPinCode(fl validator.FieldLevel) bool {
	return pinCodePattern.MatchString(fl.Field().String())
}

func validPhone(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	if !phonePattern.MatchString(v) {
		return false
	}
	digits := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// newValidator returns a validator that knows the pincode and phone tags and
// reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("pincode", validPinCode)
	_ = v.RegisterValidation("phone", validPhone)
	return v
}

var requiredMessages = map[string]string{
	"name":    "Name is required",
	"houseNo": "House/flat number is required",
	"area":    "Area is required",
	"city":    "City is required",
	"state":   "Please select a state",
	"pinCode": "PIN code is required",
	"phone":   "Phone number is required",
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		if msg, ok := requiredMessages[e.Field()]; ok {
			return msg
		}
		return "This field is required"
	case "pincode":
		return "PIN code must be exactly 6 digits"
	case "phone":
		return "Phone number must contain at least 10 digits"
	default:
		return "Invalid value"
	}
}

// fieldErrors validates f and returns messages keyed by JSON field name.
func fieldErrors(v *validator.Validate, f Form) map[string]string {
	out := map[string]string{}
	err := v.Struct(f)
	if err == nil {
		return out
	}
	if ves, ok := err.(validator.ValidationErrors); ok {
		for _, e := range ves {
			out[e.Field()] = fieldMessage(e)
		}
		return out
	}
	out["form"] = err.Error()
	return out
}
