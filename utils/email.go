package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendEmail sends an HTML email using the configured SMTP account.
// Notification mail is best-effort; callers log and move on when it fails.
func SendEmail(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(host, port, username, password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// SendWithdrawalProcessedEmail notifies a user that their withdrawal was paid out
func SendWithdrawalProcessedEmail(to string, amount string) error {
	body := fmt.Sprintf("<p>Your withdrawal of ₹%s has been processed and sent to your bank account.</p>", amount)
	return SendEmail(to, "Withdrawal processed", body)
}

// SendExchangeProcessedEmail notifies a user that their points exchange was paid out
func SendExchangeProcessedEmail(to string, points int64, amount string) error {
	body := fmt.Sprintf("<p>Your exchange of %d points for ₹%s has been processed.</p>", points, amount)
	return SendEmail(to, "Points exchange processed", body)
}
