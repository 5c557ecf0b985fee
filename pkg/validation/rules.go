package validation

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formembed/pkg/model"
)

type rules struct {
	required bool
	min      *float64
	max      *float64
	minLen   *int
	maxLen   *int
	pattern  *regexp.Regexp
}

func collectRules(field model.FieldDefinition) rules {
	out := rules{required: field.Required}
	for _, rule := range field.Validations {
		switch rule.Kind {
		case model.ValidationRuleMin:
			if val, ok := parseFloat(rule.Params["value"]); ok {
				out.min = &val
			}
		case model.ValidationRuleMax:
			if val, ok := parseFloat(rule.Params["value"]); ok {
				out.max = &val
			}
		case model.ValidationRuleMinLength:
			if val, ok := parseInt(rule.Params["value"]); ok {
				out.minLen = &val
			}
		case model.ValidationRuleMaxLength:
			if val, ok := parseInt(rule.Params["value"]); ok {
				out.maxLen = &val
			}
		case model.ValidationRulePattern:
			if expr := rule.Params["pattern"]; expr != "" {
				if re, err := compilePattern(expr); err == nil {
					out.pattern = re
				}
			}
		}
	}
	return out
}

func compilePattern(expr string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + expr + ")$")
}

func parseFloat(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	return val, err == nil
}

// DecimalSyntax is the number grammar shared with the browser loader.
const DecimalSyntax = `^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`

var decimalPattern = regexp.MustCompile(DecimalSyntax)

// ParseDecimal parses a number field value. Only plain decimal notation is
// accepted: no hex, NaN or Inf.
func ParseDecimal(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if !decimalPattern.MatchString(text) {
		return 0, false
	}
	val, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, false
	}
	return val, true
}

func parseInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	return val, err == nil
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
