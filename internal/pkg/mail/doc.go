// Package mail sends transactional email through SMTP or Postmark behind a
// single Mail interface.
package mail
