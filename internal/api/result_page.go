package api

import (
	"html/template"
	"net/http"
)

// The page replaces the visible address with the cleaned URL so that a reload
// does not submit the callback again.
var resultPage = template.Must(template.New("payment-result").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Payment {{if eq .Kind "succeeded"}}successful{{else}}result{{end}}</title>
</head>
<body>
<main data-kind="{{.Kind}}">
<p>{{.Message}}</p>
{{- if .OrderID}}
<p>Order #{{.OrderID}}{{if .TransactionCode}} &middot; Ref {{.TransactionCode}}{{end}}</p>
{{- end}}
<p><a href="{{if .CartCleared}}/orders{{else}}/cart{{end}}">Continue</a></p>
</main>
<script>
if (window.history && window.history.replaceState) {
	window.history.replaceState(null, "", {{.CleanURL}});
}
</script>
</body>
</html>
`))

func renderResultPage(w http.ResponseWriter, resp paymentResultResponse) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	return resultPage.Execute(w, resp)
}
