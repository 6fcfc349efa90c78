package slack

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/slack-go/slack"

	"github.com/slateops/slate/service/approval"
)

const maxInteractionBody = 1 << 20

// Handler receives Slack interaction callbacks and converts approve/reject
// button clicks into decisions.
type Handler struct {
	service       approval.Service
	signingSecret string
}

// NewHandler builds the interactions endpoint. An empty signing secret
// disables signature verification, which is only acceptable in tests.
func NewHandler(service approval.Service, signingSecret string) *Handler {
	return &Handler{service: service, signingSecret: signingSecret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		http.Error(w, "failed to read request", http.StatusBadRequest)
		return
	}
	if h.signingSecret != "" {
		if err := h.verify(r.Header, body); err != nil {
			log.Printf("slack: interaction signature rejected: %v", err)
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	callback, err := parseInteraction(body)
	if err != nil {
		http.Error(w, "malformed interaction payload", http.StatusBadRequest)
		return
	}
	decision, messageRef, ok := extractDecision(callback)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	actor := callback.User.ID
	if callback.User.Name != "" {
		actor = callback.User.Name
	}
	outcome, err := h.service.DecideByMessageRef(r.Context(), messageRef, decision, actor)
	respond(w, responseText(outcome, err))
}

func (h *Handler) verify(header http.Header, body []byte) error {
	verifier, err := slack.NewSecretsVerifier(header, h.signingSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}

func parseInteraction(body []byte) (*slack.InteractionCallback, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	payload := values.Get("payload")
	if payload == "" {
		return nil, fmt.Errorf("missing payload")
	}
	callback := &slack.InteractionCallback{}
	if err := json.Unmarshal([]byte(payload), callback); err != nil {
		return nil, err
	}
	return callback, nil
}

// extractDecision finds the first approve/reject button action; other
// interaction types are acknowledged and ignored.
func extractDecision(callback *slack.InteractionCallback) (approval.Decision, string, bool) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return "", "", false
	}
	for _, action := range callback.ActionCallback.BlockActions {
		switch action.ActionID {
		case ActionApprove:
			return approval.DecisionApproved, action.Value, true
		case ActionReject:
			return approval.DecisionRejected, action.Value, true
		}
	}
	return "", "", false
}

func responseText(outcome *approval.Outcome, err error) string {
	switch {
	case errors.Is(err, approval.ErrExpired):
		return "This recommendation has expired and can no longer be decided."
	case errors.Is(err, approval.ErrNotFound):
		return "This approval is no longer available."
	case err != nil:
		log.Printf("slack: interaction decision failed: %v", err)
		return "Something went wrong recording your decision, please retry."
	case outcome.AlreadyDecided:
		return fmt.Sprintf("Already %s by %s.", outcome.Decision, outcome.DecidedBy)
	default:
		return fmt.Sprintf("Recommendation %s by %s.", outcome.Decision, outcome.DecidedBy)
	}
}

// respond replaces the original prompt so buttons cannot be clicked twice.
func respond(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"replace_original": true,
		"text":             text,
	})
}
