// Package assets embeds the default establishment form.
package assets

import _ "embed"

// FormHTML is the default establishment form document.
//
//go:embed form.html
var FormHTML string

// FormSelector selects the form container inside FormHTML.
const FormSelector = "#establishment-form"
