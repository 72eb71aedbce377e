package job

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/version"
)

// ConfigurationError names the first invalid field of a Configuration. It
// unwraps to errors.ErrConfiguration.
type ConfigurationError struct {
	Field  string // mapstructure key, e.g. "max_allowed_resource_per_round" or "groups[0][2]"
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid job configuration: %s %s", e.Field, e.Reason)
}

// Unwrap for errors.Is(err, errors.ErrConfiguration)
func (e *ConfigurationError) Unwrap() error {
	return errors.ErrConfiguration
}

// jobValidate checks struct tags; cross-field rules are in Validate
var jobValidate *validator.Validate

func init() {
	jobValidate = validator.New()
	jobValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = jobValidate.RegisterValidation("schema_version", validateSchemaVersion)
}

// validateSchemaVersion accepts a semver constraint this build satisfies
func validateSchemaVersion(fl validator.FieldLevel) bool {
	return CheckSchemaVersion(fl.Field().String()) == nil
}

// CheckSchemaVersion reports whether this build's schema version satisfies
// constraint
func CheckSchemaVersion(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid schema_version constraint %q", constraint)
	}
	v := semver.MustParse(version.SchemaVersion)
	if !c.Check(v) {
		return errors.Newf("schema %s does not satisfy %q", v, constraint)
	}
	return nil
}

// Validate checks field ranges and the cross-field requirements: groups and
// max_allowed_resource_per_round when group_count > 0, rules when
// rule_count > 0, and group members within [1, resource_count]. Rule text
// is not parsed here.
func (c *Configuration) Validate() error {
	if err := jobValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return errors.Wrap(err, "validating job configuration")
	}

	if err := c.Layout().Validate(); err != nil {
		return &ConfigurationError{Field: "grid", Reason: errors.UnwrapAll(err).Error()}
	}

	if c.GroupCount > 0 {
		if c.MaxAllowedResourcePerRound == nil {
			return &ConfigurationError{
				Field:  "max_allowed_resource_per_round",
				Reason: fmt.Sprintf("is required when group_count is %d", c.GroupCount),
			}
		}
		if len(c.Groups) == 0 {
			return &ConfigurationError{
				Field:  "groups",
				Reason: fmt.Sprintf("is required when group_count is %d", c.GroupCount),
			}
		}
	}
	if len(c.Groups) < c.GroupCount {
		return &ConfigurationError{
			Field:  "groups",
			Reason: fmt.Sprintf("lists %d groups, group_count is %d", len(c.Groups), c.GroupCount),
		}
	}
	for g, members := range c.Groups[:c.GroupCount] {
		for i, r := range members {
			if r > c.ResourceCount {
				return &ConfigurationError{
					Field:  fmt.Sprintf("groups[%d][%d]", g, i),
					Reason: fmt.Sprintf("references resource %d, resource_count is %d", r, c.ResourceCount),
				}
			}
		}
	}

	if c.RuleCount > 0 && strings.TrimSpace(c.Rules) == "" {
		return &ConfigurationError{
			Field:  "rules",
			Reason: fmt.Sprintf("is required when rule_count is %d", c.RuleCount),
		}
	}
	return nil
}

func fieldError(fe validator.FieldError) *ConfigurationError {
	field := strings.TrimPrefix(fe.Namespace(), "Configuration.")
	var reason string
	switch fe.Tag() {
	case "min":
		reason = fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "schema_version":
		reason = CheckSchemaVersion(fmt.Sprint(fe.Value())).Error()
	default:
		reason = fmt.Sprintf("failed %q check", fe.Tag())
	}
	return &ConfigurationError{Field: field, Reason: reason}
}
