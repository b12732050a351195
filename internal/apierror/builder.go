package apierror

import "strings"

type translator interface {
	Translate(lang, key string, params map[string]string) string
	Has(key string) bool
}

// Builder attaches localized messages to classified errors.
type Builder struct {
	t translator
}

func NewBuilder(t translator) *Builder {
	return &Builder{t: t}
}

// FromError classifies err and renders it in lang.
func (b *Builder) FromError(lang string, err error) *APIError {
	c := Classify(err)
	apiErr := b.New(lang, c.Code, c.Status)
	for _, f := range c.Fields {
		apiErr.Meta.Errors = append(apiErr.Meta.Errors, b.fieldMessage(lang, f))
	}
	return apiErr
}

// New builds an error for a known code.
func (b *Builder) New(lang, code string, status int) *APIError {
	return &APIError{
		Code:    code,
		Message: b.t.Translate(lang, code, nil),
		Status:  status,
		Meta:    Meta{Language: lang},
	}
}

// Message renders a non-error message code, such as a success notice.
func (b *Builder) Message(lang, code string) string {
	return b.t.Translate(lang, code, nil)
}

func (b *Builder) fieldMessage(lang string, f FieldIssue) string {
	key := "VALIDATION.FIELD." + f.Tag
	if !b.t.Has(key) {
		key = "VALIDATION.FIELD.default"
	}
	return b.t.Translate(lang, key, map[string]string{
		"field": f.Field,
		"param": strings.ReplaceAll(f.Param, " ", ", "),
	})
}
