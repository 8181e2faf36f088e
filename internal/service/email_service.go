package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailSender delivers a rendered email
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     EmailSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send is a logged no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, debug: debug, appBaseURL: appBaseURL}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service: region=%s, from=%s <%s>, base URL=%s", awsRegion, fromName, fromEmail, appBaseURL)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newEmailServiceWithSender(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailServiceWithSender(client EmailSender, fromEmail, fromName, appBaseURL string, debug bool) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendWelcomeEmail sends a welcome email to new users
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	subject := "Welcome to SignLearn!"
	lines := []string{
		fmt.Sprintf("Hi %s,", toName),
		"Thank you for creating your SignLearn account. Your first lesson in every module is already open.",
		"Finish a lesson to unlock the next one, and finish a module's final review to complete it.",
	}
	return s.sendEmail(ctx, toEmail, subject, lines, "Start learning", s.appBaseURL+"/api/modules")
}

// SendModuleCompletedEmail congratulates a user on completing a module
func (s *EmailService) SendModuleCompletedEmail(ctx context.Context, toEmail, toName, moduleTitle string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): module completed to %s", toEmail)
		return nil
	}

	subject := fmt.Sprintf("You completed %s!", moduleTitle)
	lines := []string{
		fmt.Sprintf("Hi %s,", toName),
		fmt.Sprintf("Congratulations, you passed the final review of %q.", moduleTitle),
		"Your mistakes list shows the gestures worth another look before you move on.",
	}
	return s.sendEmail(ctx, toEmail, subject, lines, "See your progress", s.appBaseURL+"/api/progress")
}

// renderBodies builds the HTML and plain text bodies of an email
func renderBodies(title string, lines []string, linkText, link string) (string, string) {
	var htmlBody, textBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
`)
	fmt.Fprintf(&htmlBody, "<h1 style=\"background-color: #2e8b57; color: white; padding: 20px; text-align: center;\">%s</h1>\n", html.EscapeString(title))
	for _, line := range lines {
		fmt.Fprintf(&htmlBody, "<p>%s</p>\n", html.EscapeString(line))
		textBody.WriteString(line + "\n\n")
	}
	fmt.Fprintf(&htmlBody, "<p style=\"text-align: center;\"><a href=\"%s\">%s</a></p>\n", html.EscapeString(link), html.EscapeString(linkText))
	htmlBody.WriteString("<p style=\"font-size: 12px; color: #666;\">This is an automated email from SignLearn. Please do not reply.</p>\n</div>\n</body>\n</html>\n")

	fmt.Fprintf(&textBody, "%s: %s\n\n---\nThis is an automated email from SignLearn. Please do not reply.\n", linkText, link)
	return htmlBody.String(), textBody.String()
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject string, lines []string, linkText, link string) error {
	htmlBody, textBody := renderBodies(subject, lines, linkText, link)

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		log.Printf("[DEBUG] Sending email: from=%s, to=%s, subject=%s, html=%d bytes, text=%d bytes",
			fromAddress, toEmail, subject, len(htmlBody), len(textBody))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *result.MessageId)
	}
	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
