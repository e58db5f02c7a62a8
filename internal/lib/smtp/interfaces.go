// Package smtp предоставляет транспорт для отправки писем через SMTP со STARTTLS.
package smtp

import "io"

// Client — минимальный набор команд SMTP-сессии.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает авторизованную SMTP-сессию.
type Dialer interface {
	Connect() (Client, error)
	Sender() string
}
