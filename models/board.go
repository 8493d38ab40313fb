package models

// PropertyType is the declared type of a board's card property.
type PropertyType string

const (
	PropertyTypeText        PropertyType = "text"
	PropertyTypeNumber      PropertyType = "number"
	PropertyTypeSelect      PropertyType = "select"
	PropertyTypeMultiSelect PropertyType = "multiSelect"
	PropertyTypeDate        PropertyType = "date"
	PropertyTypePerson      PropertyType = "person"
	PropertyTypeMultiPerson PropertyType = "multiPerson"
	PropertyTypeCheckbox    PropertyType = "checkbox"
	PropertyTypeURL         PropertyType = "url"
	PropertyTypeEmail       PropertyType = "email"
	PropertyTypePhone       PropertyType = "phone"
	PropertyTypeCreatedBy   PropertyType = "createdBy"
	PropertyTypeUpdatedBy   PropertyType = "updatedBy"
	PropertyTypeCreatedTime PropertyType = "createdTime"
	PropertyTypeUpdatedTime PropertyType = "updatedTime"
)

// ValueShape describes what a card stores for a property type.
type ValueShape int

const (
	ShapeNone   ValueShape = iota // computed by the server, nothing stored on the card
	ShapeSingle                   // one string
	ShapeList                     // list of strings
)

// Shape returns the value shape stored on cards for this property type.
func (t PropertyType) Shape() ValueShape {
	switch t {
	case PropertyTypeMultiSelect, PropertyTypeMultiPerson:
		return ShapeList
	case PropertyTypeCreatedBy, PropertyTypeUpdatedBy, PropertyTypeCreatedTime, PropertyTypeUpdatedTime:
		return ShapeNone
	default:
		return ShapeSingle
	}
}

// HoldsPeople reports whether values of this type are user ids.
func (t PropertyType) HoldsPeople() bool {
	switch t {
	case PropertyTypePerson, PropertyTypeMultiPerson, PropertyTypeCreatedBy, PropertyTypeUpdatedBy:
		return true
	}
	return false
}

// IsAssignable reports whether values of this type are user ids that someone
// set on purpose (person and multiPerson). createdBy/updatedBy also hold users
// but are computed, so they never count as an assignment.
func (t PropertyType) IsAssignable() bool {
	return t == PropertyTypePerson || t == PropertyTypeMultiPerson
}

// PropertyTemplate is a board-level card property definition.
type PropertyTemplate struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Type    PropertyType     `json:"type"`
	Options []PropertyOption `json:"options,omitempty"`
}

// PropertyOption is one choice of a select/multiSelect property.
type PropertyOption struct {
	ID    string `json:"id"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Board is the workspace container cards live in.
type Board struct {
	ID             string             `json:"id"`
	TeamID         string             `json:"teamId"`
	Title          string             `json:"title"`
	Icon           string             `json:"icon,omitempty"`
	CardProperties []PropertyTemplate `json:"cardProperties"`
}

// AssignableProperties returns the person-typed templates, in board order.
func (b *Board) AssignableProperties() []PropertyTemplate {
	var out []PropertyTemplate
	for _, tpl := range b.CardProperties {
		if tpl.Type.IsAssignable() {
			out = append(out, tpl)
		}
	}
	return out
}
