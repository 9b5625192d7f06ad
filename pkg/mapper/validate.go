package mapper

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kanvas-io/kanvas/pkg/domain"
)

// descriptorValidate is shared by Validate. Initialized in init() with the
// custom tags used on ComponentDescriptor.
var descriptorValidate *validator.Validate

var componentTypePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

func init() {
	descriptorValidate = validator.New()
	_ = descriptorValidate.RegisterValidation("componenttype", validateComponentType)
}

func validateComponentType(fl validator.FieldLevel) bool {
	return componentTypePattern.MatchString(fl.Field().String())
}

// Validate checks descriptors before they are mapped. The returned error
// wraps domain.ErrInvalidDescriptor and names every failing field.
func Validate(descs []ComponentDescriptor) error {
	var problems []string
	seen := make(map[string]int, len(descs))

	for i, d := range descs {
		if err := descriptorValidate.Struct(d); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return fmt.Errorf("%w: component %d: %v", domain.ErrInvalidDescriptor, i, err)
			}
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("component %d (%s): %s failed %q", i, d.Name, fe.Namespace(), fe.Tag()))
			}
		}

		key := d.ID
		if key == "" {
			key = d.Name
		}
		if prev, dup := seen[key]; dup && key != "" {
			problems = append(problems, fmt.Sprintf("component %d (%s): duplicate id of component %d", i, d.Name, prev))
		} else {
			seen[key] = i
		}

		if d.Properties.Secret != nil {
			for pair := d.Properties.Secret.Oldest(); pair != nil; pair = pair.Next() {
				if _, err := base64.StdEncoding.DecodeString(pair.Value); err != nil {
					problems = append(problems, fmt.Sprintf("component %d (%s): secret %q is not base64", i, d.Name, pair.Key))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidDescriptor, strings.Join(problems, "; "))
	}
	return nil
}
