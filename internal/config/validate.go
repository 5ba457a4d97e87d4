package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/airrsanity/internal/domain/annotation"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		return name
	})
	_ = v.RegisterValidation("annotation_tool", func(fl validator.FieldLevel) bool {
		_, err := annotation.ParseTool(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks c and normalises list values. Every failing key is named
// in the returned error.
func (c *Config) Validate() error {
	c.applyListDefaults()
	for i, cov := range c.Coverage {
		c.Coverage[i] = strings.ToUpper(strings.TrimSpace(cov))
	}
	c.ReportFormat = strings.ToLower(c.ReportFormat)

	err := newValidator().Struct(c)
	var problems []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	} else if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Has(CoverageFacet) && c.AnnotationDir == "" {
		problems = append(problems, "annotation_dir is required for FC coverage")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
