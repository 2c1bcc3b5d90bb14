// Package validation はリクエストのフィールド検証と、構造化された検証エラーを提供します。
//
// 検証ルールはモデルの binding タグで宣言し、gin と同じ validator エンジンで評価します。
// エラーは {"loc": [...], "msg": "...", "type": "..."} の配列として返されます。
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// エラーのフィールド名をGoの構造体名ではなくJSONキーにする
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonTagName)
	}
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

// FieldError は1つのフィールドの検証失敗です。
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Error は1つ以上の FieldError をまとめた検証エラーです。
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(f.Loc, "."), f.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewError は単一フィールドの検証エラーを作成します。
func NewError(loc []string, typ, msg string) *Error {
	return &Error{Fields: []FieldError{{Loc: loc, Msg: msg, Type: typ}}}
}

// Struct は構造体を検証し、失敗した場合は *Error を返します。
func Struct(v interface{}) error {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return FromBindError(err)
	}
	return nil
}

// FromBindError は ShouldBindJSON などが返したエラーを *Error に変換します。
// JSONの構文エラー・型エラー・validator のエラーを扱います。
func FromBindError(err error) *Error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) {
		out := &Error{}
		for _, fe := range ves {
			out.Fields = append(out.Fields, fromFieldError(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		typ, msg := typeMismatch(typeErr.Type)
		return NewError(loc, typ, msg)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return NewError([]string{"body", strconv.FormatInt(syntaxErr.Offset, 10)}, "json_invalid", "JSON decode error")
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return NewError([]string{"body"}, "json_invalid", "JSON decode error")
	}
	if errors.Is(err, io.EOF) {
		return NewError([]string{"body"}, "missing", "Field required")
	}

	return NewError([]string{"body"}, "value_error", err.Error())
}

// PositiveInt はパスパラメータを1以上の整数として解釈します。
func PositiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, NewError([]string{"path", name}, "int_parsing", "Input should be a valid integer, unable to parse string as an integer")
	}
	if n <= 0 {
		return 0, NewError([]string{"path", name}, "greater_than", "Input should be greater than 0")
	}
	return n, nil
}

func fromFieldError(fe validator.FieldError) FieldError {
	loc := []string{"body", fe.Field()}
	numeric := isNumeric(fe.Kind())

	switch fe.Tag() {
	case "required":
		return FieldError{Loc: loc, Type: "missing", Msg: "Field required"}
	case "min", "gte":
		if numeric {
			return FieldError{Loc: loc, Type: "greater_than_equal", Msg: "Input should be greater than or equal to " + fe.Param()}
		}
		return FieldError{Loc: loc, Type: "string_too_short", Msg: fmt.Sprintf("String should have at least %s characters", fe.Param())}
	case "max", "lte":
		if numeric {
			return FieldError{Loc: loc, Type: "less_than_equal", Msg: "Input should be less than or equal to " + fe.Param()}
		}
		return FieldError{Loc: loc, Type: "string_too_long", Msg: fmt.Sprintf("String should have at most %s characters", fe.Param())}
	case "gt":
		return FieldError{Loc: loc, Type: "greater_than", Msg: "Input should be greater than " + fe.Param()}
	case "lt":
		return FieldError{Loc: loc, Type: "less_than", Msg: "Input should be less than " + fe.Param()}
	case "email":
		return FieldError{Loc: loc, Type: "value_error", Msg: "value is not a valid email address"}
	case "oneof":
		options := strings.Fields(fe.Param())
		return FieldError{Loc: loc, Type: "enum", Msg: "Input should be " + strings.Join(options, " or ")}
	}
	return FieldError{Loc: loc, Type: "value_error", Msg: fmt.Sprintf("failed on the '%s' rule", fe.Tag())}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func typeMismatch(t reflect.Type) (string, string) {
	if t == nil {
		return "type_error", "Input has an invalid type"
	}
	switch {
	case isNumeric(t.Kind()):
		return "int_type", "Input should be a valid integer"
	case t.Kind() == reflect.Bool:
		return "bool_type", "Input should be a valid boolean"
	case t.Kind() == reflect.String:
		return "string_type", "Input should be a valid string"
	}
	return "type_error", "Input should be a valid " + t.Kind().String()
}
