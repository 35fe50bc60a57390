package entities

import "strings"

// AttributeType is the normalized kind of an attribute value
type AttributeType int

const (
	TypeUnknown AttributeType = iota
	TypeInt
	TypeDouble
	TypeString
	TypeBool
	TypeDict
	TypeList
	TypeObjectID
	TypeBytes
)

// typeSynonyms maps every accepted (casefolded) type spelling to its kind
var typeSynonyms = map[string]AttributeType{
	"int":      TypeInt,
	"integer":  TypeInt,
	"double":   TypeDouble,
	"float":    TypeDouble,
	"str":      TypeString,
	"string":   TypeString,
	"bool":     TypeBool,
	"boolean":  TypeBool,
	"dict":     TypeDict,
	"list":     TypeList,
	"objectid": TypeObjectID,
	"bytes":    TypeBytes,
	"byte":     TypeBytes,
	"object":   TypeBytes,
}

// ParseAttributeType normalizes a declared type string.
// Unrecognized spellings yield TypeUnknown instead of an error so that
// documents written for newer releases stay queryable.
func ParseAttributeType(s string) AttributeType {
	if t, ok := typeSynonyms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return TypeUnknown
}

// String returns the canonical spelling of the type
func (t AttributeType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeDict:
		return "dict"
	case TypeList:
		return "list"
	case TypeObjectID:
		return "objectid"
	case TypeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}
