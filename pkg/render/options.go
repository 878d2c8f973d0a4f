package render

// RenderOptions describe per-request data that renderers use without touching
// the row state.
type RenderOptions struct {
	// HiddenFields are emitted inside the wrapper region, typically the form
	// build id and the instance id.
	HiddenFields map[string]string
	// Errors maps input names to messages, as produced by MapRowErrors.
	Errors map[string][]string
	// FormErrors are messages not tied to a single input.
	FormErrors []string
	// Locale and Translator localise labels. A nil Translator keeps labels
	// as assembled.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

// WithErrors returns a copy of o carrying the mapped errors.
func (o RenderOptions) WithErrors(mapping ErrorMapping) RenderOptions {
	o.Errors = mapping.Fields
	o.FormErrors = MergeFormErrors(o.FormErrors, mapping.Form...)
	return o
}
