package widget

import (
	"fmt"

	"github.com/goliatone/go-formembed/pkg/validation"
)

// InvalidDefinitionError reports a definition the API served but the widget
// cannot render. It is shown to users as a resolution failure.
type InvalidDefinitionError struct {
	FormID string
	Issues []validation.Issue
}

func (e *InvalidDefinitionError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("widget: form %q definition is invalid", e.FormID)
	}
	return fmt.Sprintf("widget: form %q definition is invalid: %s", e.FormID, e.Issues[0].Message)
}
