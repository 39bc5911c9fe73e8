package httpapi

import (
	"net/http"
)

type whatsappInbound struct {
	SenderAddress string `json:"senderAddress"`
	Text          string `json:"text"`
}

// whatsappWebhook accepts one inbound chat message. The conversational
// engine replies out of band through the messenger, so the webhook
// response only acknowledges receipt.
func (s *Server) whatsappWebhook(w http.ResponseWriter, r *http.Request) {
	var req whatsappInbound
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.SenderAddress == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "senderAddress is required")
		return
	}
	if err := s.chatEngine.HandleInbound(r.Context(), req.SenderAddress, req.Text); err != nil {
		s.logger.Warn().Err(err).Str("sender", req.SenderAddress).Msg("inbound message handling failed")
	}
	respondJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}
