package vanilla

// ChromeClass is a typed identifier for the widget's CSS classes. Every
// class carries the clientt- prefix so host styles never collide.
type ChromeClass string

const (
	ClassWidget      ChromeClass = "clientt-form"
	ClassBody        ChromeClass = "clientt-form__body"
	ClassTitle       ChromeClass = "clientt-form__title"
	ClassDescription ChromeClass = "clientt-form__description"
	ClassErrors      ChromeClass = "clientt-form__error"
	ClassSuccess     ChromeClass = "clientt-form__success"
	ClassLoading     ChromeClass = "clientt-form__loading"
	ClassActions     ChromeClass = "clientt-form__actions"
	ClassField       ChromeClass = "clientt-field"
	ClassTheme       ChromeClass = "clientt-theme"
)

// Stable, host-queryable markers. Tests and host pages select on these
// attributes rather than on classes.
const (
	AttrErrorSummary = "data-clientt-error-summary"
	AttrFieldError   = "data-clientt-field-error"
	AttrSuccess      = "data-clientt-success"
	AttrLoading      = "data-clientt-loading"
	AttrState        = "data-clientt-state"
	AttrField        = "data-clientt-field"
	AttrRetry        = "data-clientt-retry"
)

// TagName is the custom element name hosts place on their pages.
const TagName = "clientt-form"

// FormIDAttr carries the form identifier on the custom element.
const FormIDAttr = "form-id"

// StylesheetID marks the single injected stylesheet.
const StylesheetID = "clientt-forms-styles"
