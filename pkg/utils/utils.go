package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nimeshabuddhika/treasury-desk/pkg"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// IsEmpty checks if a string is empty.
func IsEmpty(s string) bool {
	return s == ""
}

func GetTraceID(c *gin.Context) (string, error) {
	traceID := c.GetString(pkg.TraceId)
	if IsEmpty(traceID) {
		return "", errors.New("trace id is empty")
	}
	return traceID, nil
}

// ParseStructEnv binds env vars to struct fields using a mapstructure tag
func ParseStructEnv(cfg interface{}) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if IsEmpty(tag) {
			continue
		}
		if err := viper.BindEnv(tag); err != nil {
			return err
		}
	}
	return viper.Unmarshal(cfg)
}

// FormatConfigErrors turns validator errors on a config struct into one readable error
// naming the environment keys that need fixing.
func FormatConfigErrors(logger *zap.Logger, err error, cfg interface{}) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	t := reflect.TypeOf(cfg)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	problems := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		key := fe.StructField()
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := f.Tag.Get("mapstructure"); !IsEmpty(tag) {
				key = "APP_" + tag
			}
		}
		problem := fmt.Sprintf("%s failed '%s'", key, fe.Tag())
		if !IsEmpty(fe.Param()) {
			problem = fmt.Sprintf("%s failed '%s=%s'", key, fe.Tag(), fe.Param())
		}
		logger.Error("invalid_config", zap.String("key", key), zap.String("rule", fe.Tag()), zap.String("param", fe.Param()))
		problems = append(problems, problem)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}
