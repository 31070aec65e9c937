// Package services defines the error markers shared by the scanner and
// Paperless integrations.
//
// Integrations wrap failures with Wrap so the workflow layer can classify them
// with errors.Is and attach an operator hint to the log line without parsing
// messages.
package services
