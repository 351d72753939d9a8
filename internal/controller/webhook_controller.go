package controller

import (
	"io"
	"net/http"

	appwebhook "github.com/learnhub-th/coursepay/internal/application/webhook"
)

const maxWebhookBodySize = 1 << 20

// WebhookController accepts gateway callbacks. The handler only stores the
// raw body; signature verification and interpretation happen later in the
// processing worker, so a malformed or unverifiable delivery is still
// acknowledged and kept.
type WebhookController struct {
	receiveUC *appwebhook.ReceiveUseCase
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(receiveUC *appwebhook.ReceiveUseCase) *WebhookController {
	return &WebhookController{receiveUC: receiveUC}
}

// Receive handles POST /webhooks/gateway
func (h *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "payload too large", Code: "payload_too_large",
		})
		return
	}

	rec, err := h.receiveUC.Execute(r.Context(), body, r.Header.Get("X-Webhook-Signature"))
	if err != nil {
		// Storage failure: answer 5xx so the gateway redelivers.
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &WebhookAckResponse{ID: rec.ID.String(), Received: true})
}
