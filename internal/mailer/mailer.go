package mailer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"inmogest-backend/internal/config"
)

var ErrDisabled = errors.New("el envío de correos está deshabilitado")

// Mailer: cliente del API de correo transaccional.
// El backend no habla SMTP; reenvía la petición al servicio HTTP configurado.
type Mailer struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func New(cfg *config.Config) *Mailer {
	return &Mailer{
		apiURL: cfg.EmailAPIURL,
		apiKey: cfg.EmailAPIKey,
		from:   cfg.EmailFrom,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *Mailer) Send(to, subject, html string) error {
	if m.apiURL == "" {
		return ErrDisabled
	}

	payload, err := json.Marshal(sendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("no se pudo contactar el API de correo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("el API de correo respondió %d", resp.StatusCode)
	}

	return nil
}
