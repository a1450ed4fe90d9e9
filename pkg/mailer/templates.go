package mailer

import (
	"fmt"
	"time"
)

// RegistrationConfirmed builds the subject and HTML body for a registration confirmation.
func RegistrationConfirmed(webinarTitle string, dateTime time.Time) (subject, bodyHTML string) {
	subject = fmt.Sprintf("Registration confirmed: %s", webinarTitle)
	bodyHTML = fmt.Sprintf(
		`<p>Your registration for <strong>%s</strong> is confirmed.</p>
<p>The webinar starts on %s. The access link will be shared before the session.</p>`,
		webinarTitle, dateTime.Format("Monday, 2 January 2006 at 15:04 MST"))
	return subject, bodyHTML
}

// RegistrationCanceled builds the subject and HTML body for a cancellation notice.
func RegistrationCanceled(webinarTitle string) (subject, bodyHTML string) {
	subject = fmt.Sprintf("Registration canceled: %s", webinarTitle)
	bodyHTML = fmt.Sprintf(
		`<p>Your registration for <strong>%s</strong> has been canceled.</p>
<p>You can register again from the platform while seats remain.</p>`, webinarTitle)
	return subject, bodyHTML
}

// PartnerApplicationReceived builds the acknowledgement email for a partner application.
func PartnerApplicationReceived(structureName string) (subject, bodyHTML string) {
	subject = "We received your partnership application"
	bodyHTML = fmt.Sprintf(
		`<p>Thank you for the partnership application on behalf of <strong>%s</strong>.</p>
<p>Our team reviews applications within a few business days and will get back to you by email.</p>`,
		structureName)
	return subject, bodyHTML
}
