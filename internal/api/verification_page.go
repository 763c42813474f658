package api

import (
	"html/template"
	"net/http"

	"github.com/phrazzld/taskdigest-api/internal/service"
)

var verificationPage = template.Must(template.New("verification_status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Email Verification</title>
</head>
<body>
<main class="verification {{.Status}}">
<h1>{{if eq .Status "success"}}Email verified{{else}}Verification failed{{end}}</h1>
<p>{{.Message}}</p>
<a href="/login">Go to login</a>
</main>
</body>
</html>
`))

type verificationPageData struct {
	Status  string
	Message string
}

// renderVerificationPage writes the verification status page. The status code
// is always 200; the outcome is carried in the page itself.
func renderVerificationPage(w http.ResponseWriter, r *http.Request, result service.VerificationResult) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	return verificationPage.Execute(w, verificationPageData{
		Status:  string(result.Status),
		Message: result.Message,
	})
}
