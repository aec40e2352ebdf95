package inventory

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"equipment-booking-backend/internal/model"
)

// NewValidator returns a validator that knows the inventory's custom tags and
// reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidations adds the inventory's custom tags to v.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("condition", isCondition); err != nil {
		return err
	}
	return nil
}

func isCondition(fl validator.FieldLevel) bool {
	_, ok := model.ParseCondition(fl.Field().String())
	return ok
}

var validate = NewValidator()

func checkStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// fieldPath drops the struct name from the namespace: "EquipmentInput.name"
// becomes "name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "condition":
		return "must be one of excellent, good, fair, poor, needs-repair"
	}
	return "failed " + fe.Tag() + " validation"
}

// normalizeEquipment trims every text field and folds an empty parent id to
// nil.
func normalizeEquipment(in model.EquipmentInput) model.EquipmentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	in.Condition = strings.TrimSpace(in.Condition)
	in.PurchaseDate = strings.TrimSpace(in.PurchaseDate)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.ParentID != nil {
		p := strings.TrimSpace(*in.ParentID)
		if p == "" {
			in.ParentID = nil
		} else {
			in.ParentID = &p
		}
	}
	return in
}

func normalizeBooking(in model.BookingInput) model.BookingInput {
	in.Date = strings.TrimSpace(in.Date)
	in.Name = strings.TrimSpace(in.Name)
	in.Notes = strings.TrimSpace(in.Notes)
	ids := make([]string, 0, len(in.EquipmentIDs))
	seen := make(map[string]bool, len(in.EquipmentIDs))
	for _, id := range in.EquipmentIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	in.EquipmentIDs = ids
	return in
}
