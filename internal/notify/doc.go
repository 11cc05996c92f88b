// Package notify delivers failure notifications by mail.
//
// Notifier is the end of every error path: it formats the failure, sends it
// to each configured recipient and logs delivery problems without returning
// them. SMTPMailer is the production transport.
package notify
