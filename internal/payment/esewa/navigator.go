package esewa

import (
	"bytes"
	"html/template"
	"net/http"
)

var autoSubmitForm = template.Must(template.New("esewa-form").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Redirecting to eSewa</title>
</head>
<body onload="document.forms[0].submit()">
<form action="{{.FormURL}}" method="POST">
{{- range .Fields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to eSewa</button></noscript>
</form>
</body>
</html>
`))

// FormNavigator hands the browser over to eSewa with a self-submitting form.
// After the response is written the storefront has no control until eSewa
// redirects back to the success or failure URL.
type FormNavigator struct{}

func (FormNavigator) Render(req PaymentRequest) ([]byte, error) {
	var buf bytes.Buffer
	err := autoSubmitForm.Execute(&buf, struct {
		FormURL string
		Fields  []FormField
	}{req.FormURL, req.Fields()})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Navigate writes the form page.
func (n FormNavigator) Navigate(w http.ResponseWriter, req PaymentRequest) error {
	page, err := n.Render(req)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(page)
	return err
}
