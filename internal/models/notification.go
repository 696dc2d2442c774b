package models

// Notification письмо клиенту с вложением сгенерированного документа.
// Передаётся как напрямую в SMTP-отправитель, так и через очередь.
type Notification struct {
	ClientID       string `json:"client_id"`
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	AttachmentPath string `json:"attachment_path"`
	AttachmentName string `json:"attachment_name"`
	ContentType    string `json:"content_type"`
}
