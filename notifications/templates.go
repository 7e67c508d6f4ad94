package notifications

import (
	"bytes"
	"html/template"
)

var layout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:560px;margin:auto">
<h2 style="color:#4f46e5">{{.Heading}}</h2>
<p>Hi {{.Name}},</p>
{{range .Lines}}<p>{{.}}</p>{{end}}
{{if .Code}}<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>{{end}}
{{if .Footer}}<p style="color:#6b7280;font-size:13px">{{.Footer}}</p>{{end}}
<p>ElevateU</p>
</body></html>`))

type emailData struct {
	Heading string
	Name    string
	Lines   []string
	Code    string
	Footer  string
}

func render(d emailData) string {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, d); err != nil {
		return d.Heading
	}
	return buf.String()
}

func OTPEmail(name, otp, minutes string) string {
	return render(emailData{
		Heading: "Verify your email",
		Name:    name,
		Lines:   []string{"Use the code below to continue. It expires in " + minutes + " minutes."},
		Code:    otp,
		Footer:  "If you did not request this, you can ignore this email.",
	})
}

func ResetOTPEmail(name, otp, minutes string) string {
	return render(emailData{
		Heading: "Reset your password",
		Name:    name,
		Lines:   []string{"We received a request to reset your password. Use this code, it expires in " + minutes + " minutes."},
		Code:    otp,
		Footer:  "If you did not request a reset, your password stays unchanged.",
	})
}

func WelcomeEmail(name, role string) string {
	return render(emailData{
		Heading: "Welcome to ElevateU",
		Name:    name,
		Lines:   []string{"Your " + role + " account is ready."},
	})
}

func TemporaryPasswordEmail(name, password string) string {
	return render(emailData{
		Heading: "Your account was created",
		Name:    name,
		Lines:   []string{"An administrator created an account for you. Sign in with this temporary password and change it from your profile."},
		Code:    password,
	})
}

func NoticeEmail(name, heading, message string) string {
	return render(emailData{Heading: heading, Name: name, Lines: []string{message}})
}
