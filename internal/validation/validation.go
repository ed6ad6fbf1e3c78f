// Package validation は入力値検証をAPIErrorに変換する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/diarybook/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーメッセージにはJSONタグ名を使う
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct は構造体タグに従って検証し、違反があればバリデーションエラーを返す。
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		reasons = append(reasons, formatFieldError(fe))
	}
	return model.NewValidationError(strings.Join(reasons, ", "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + "は必須です"
	case "email":
		return fe.Field() + "はメールアドレス形式で入力してください"
	case "min":
		return fmt.Sprintf("%sは%s文字以上で入力してください", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%sは%s文字以内で入力してください", fe.Field(), fe.Param())
	default:
		return fe.Field() + "が不正です"
	}
}
