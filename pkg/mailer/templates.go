package mailer

import (
	"fmt"
	"strings"
)

// Render produces subject and text bodies for a named template. The
// worker falls back to the job's literal fields when the template name
// is unknown.
func Render(template string, data map[string]any) (subject, text string, err error) {
	switch strings.ToLower(template) {
	case "welcome":
		name := str(data, "Name")
		if name == "" {
			name = "there"
		}
		subject = "Welcome to Communify"
		text = fmt.Sprintf("Hi %s,\n\nYour Communify account is ready. You can sign in with your email address right away.\n\nThe Communify team", name)
		return subject, text, nil
	default:
		return "", "", fmt.Errorf("unknown email template %q", template)
	}
}

func str(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	return ""
}
