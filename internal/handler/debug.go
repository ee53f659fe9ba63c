package handler

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/practicehub/api/internal/config"
	"github.com/practicehub/api/internal/notify"
)

// probeTimeout bounds the raw reachability check against the relay.
const probeTimeout = 5 * time.Second

// DebugHandler exposes operational aids: configuration introspection and a
// manual mail-relay test. These are not part of the core API contract.
type DebugHandler struct {
	cfg    config.Config
	mailer notify.Mailer
	log    zerolog.Logger
}

// NewDebugHandler constructs a DebugHandler.
func NewDebugHandler(cfg config.Config, mailer notify.Mailer, log zerolog.Logger) *DebugHandler {
	return &DebugHandler{cfg: cfg, mailer: mailer, log: log}
}

// Config handles GET /debug/config
// Reports process configuration without secrets.
func (h *DebugHandler) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"environment": h.cfg.Environment,
		"port":        h.cfg.Port,
		"db_path":     h.cfg.DBPath,
		"smtp": map[string]any{
			"host":        h.cfg.SMTP.Host,
			"port":        h.cfg.SMTP.Port,
			"user_set":    h.cfg.SMTP.User != "",
			"pass_set":    h.cfg.SMTP.Pass != "",
			"from":        h.cfg.SMTP.FromAddress(),
			"skip_verify": h.cfg.SMTP.SkipVerify,
			"configured":  h.cfg.SMTP.Configured(),
		},
	})
}

type testEmailRequest struct {
	To string `json:"to"`
}

type testEmailResponse struct {
	Success        bool   `json:"success"`
	MessageID      string `json:"message_id,omitempty"`
	Error          string `json:"error,omitempty"`
	RelayReachable *bool  `json:"relay_reachable,omitempty"`
	ProbeError     string `json:"probe_error,omitempty"`
}

// TestEmail handles POST /test-email
// Performs a bounded raw socket probe to the relay, then a real send
// attempt, so an operator can tell "relay unreachable" apart from "relay
// rejected credentials". Always responds 200; the outcome is in the body.
func (h *DebugHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "to is required")
		return
	}

	resp := testEmailResponse{}
	if h.cfg.SMTP.Configured() {
		reachable := true
		addr := net.JoinHostPort(h.cfg.SMTP.Host, fmt.Sprint(h.cfg.SMTP.Port))
		conn, err := net.DialTimeout("tcp", addr, probeTimeout)
		if err != nil {
			reachable = false
			resp.ProbeError = err.Error()
		} else {
			conn.Close()
		}
		resp.RelayReachable = &reachable
	}

	messageID, err := h.mailer.Send(r.Context(), req.To, "Practicehub test email",
		"This is a test email confirming your mail relay configuration works.")
	if err != nil {
		h.log.Warn().Err(err).Str("to", req.To).Msg("test email failed")
		resp.Error = err.Error()
	} else {
		resp.Success = true
		resp.MessageID = messageID
	}

	writeJSON(w, http.StatusOK, resp)
}
