package nostd

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/labstack/echo/v4"
)

// CustomValidator echo请求参数校验器，错误信息输出中文
type CustomValidator struct {
	Validator *validator.Validate
	trans     ut.Translator
}

// TransInit 注册中文翻译器
func (cv *CustomValidator) TransInit() error {
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, ok := uni.GetTranslator("zh")
	if !ok {
		return errors.New("failed to get zh translator")
	}
	cv.trans = trans
	return zhTranslations.RegisterDefaultTranslations(cv.Validator, trans)
}

func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.Validator.Struct(i)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) && cv.trans != nil {
		messages := make([]string, 0, len(ve))
		for _, fe := range ve {
			messages = append(messages, fe.Translate(cv.trans))
		}
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(messages, "; "))
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
