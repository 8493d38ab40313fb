package models

import (
	"bytes"
	"encoding/json"
)

// BlockType is the kind of content a block holds.
type BlockType string

const (
	BlockTypeBoard    BlockType = "board"
	BlockTypeCard     BlockType = "card"
	BlockTypeView     BlockType = "view"
	BlockTypeText     BlockType = "text"
	BlockTypeComment  BlockType = "comment"
	BlockTypeImage    BlockType = "image"
	BlockTypeDivider  BlockType = "divider"
	BlockTypeCheckbox BlockType = "checkbox"
)

// CarriesMentions reports whether @handles in the title of this block type
// address users.
func (t BlockType) CarriesMentions() bool {
	return t == BlockTypeText || t == BlockTypeComment || t == BlockTypeImage
}

// Block is one item of board content: a card, or content inside a card.
type Block struct {
	ID         string      `json:"id"`
	ParentID   string      `json:"parentId"`
	BoardID    string      `json:"boardId"`
	CreatedBy  string      `json:"createdBy"`
	ModifiedBy string      `json:"modifiedBy,omitempty"`
	Schema     int64       `json:"schema,omitempty"`
	Type       BlockType   `json:"type"`
	Title      string      `json:"title"`
	Fields     BlockFields `json:"fields"`
	CreateAt   int64       `json:"createAt,omitempty"`
	UpdateAt   int64       `json:"updateAt,omitempty"`
	DeleteAt   int64       `json:"deleteAt,omitempty"`
}

// BlockFields holds the typed part of a block's free-form fields.
// Keys the watcher does not use are dropped on decode.
type BlockFields struct {
	// Properties maps a board PropertyTemplate id to the card's value.
	Properties map[string]PropertyValue `json:"properties,omitempty"`
}

// ValueKind tags which variant a PropertyValue holds.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueString
	ValueList
	ValueOther
)

// PropertyValue is a card's value for one property: a string, a list of
// strings, or some other JSON the watcher carries through untouched.
type PropertyValue struct {
	Kind ValueKind
	Str  string
	List []string
	Raw  json.RawMessage
}

// StringValue builds a single-string value.
func StringValue(s string) PropertyValue {
	return PropertyValue{Kind: ValueString, Str: s}
}

// ListValue builds a string-list value.
func ListValue(items ...string) PropertyValue {
	return PropertyValue{Kind: ValueList, List: items}
}

// UnmarshalJSON decodes whichever variant the payload holds.
func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = PropertyValue{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		v.Kind = ValueString
		return json.Unmarshal(data, &v.Str)
	case data[0] == '[':
		var list []string
		if err := json.Unmarshal(data, &list); err == nil {
			v.Kind = ValueList
			v.List = list
			return nil
		}
	}

	v.Kind = ValueOther
	v.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON encodes the held variant.
func (v PropertyValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueString:
		return json.Marshal(v.Str)
	case ValueList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case ValueOther:
		if len(v.Raw) == 0 {
			return []byte("null"), nil
		}
		return v.Raw, nil
	default:
		return []byte("null"), nil
	}
}

// IsSet reports whether the card carries a value: a non-empty string or any
// list, including an empty one (which clears a multiPerson property).
func (v PropertyValue) IsSet() bool {
	switch v.Kind {
	case ValueString:
		return v.Str != ""
	case ValueList, ValueOther:
		return true
	default:
		return false
	}
}

// UserIDs returns the value as an ordered list of ids: a single string
// becomes a one-element list.
func (v PropertyValue) UserIDs() []string {
	switch v.Kind {
	case ValueString:
		if v.Str == "" {
			return []string{}
		}
		return []string{v.Str}
	case ValueList:
		out := make([]string, len(v.List))
		copy(out, v.List)
		return out
	default:
		return []string{}
	}
}

// IsAssigned reports whether userID is among the card's values for any
// assignable property of board.
func (b *Block) IsAssigned(board *Board, userID string) bool {
	for _, tpl := range board.AssignableProperties() {
		v, ok := b.Fields.Properties[tpl.ID]
		if !ok {
			continue
		}
		for _, id := range v.UserIDs() {
			if id == userID {
				return true
			}
		}
	}
	return false
}
