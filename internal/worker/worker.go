// Package worker provides a NATS worker that processes synthesis jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/voicestudio/voice-service/internal/core"
)

const handleMessageTimeout = 120 * time.Second

// ErrEmptyText indicates a synthesis request event without text.
var ErrEmptyText = errors.New("synthesis request text cannot be empty")

// SynthesisRequestedEvent asks the worker to render text with a voice model.
// An empty ModelID selects the default preset voice.
type SynthesisRequestedEvent struct {
	Header   events.EventHeader `json:"header"`
	ModelID  string             `json:"model_id,omitempty"`
	Text     string             `json:"text"`
	Language string             `json:"language"`
}

// SynthesisCompletedEvent is the worker's reply. On success AudioToken
// resolves to the generated audio; on failure Error carries the outcome.
type SynthesisCompletedEvent struct {
	Header     events.EventHeader `json:"header"`
	AudioToken string             `json:"audio_token,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// NatsWorker listens for synthesis jobs on a NATS subject and processes them
// through the voice service.
type NatsWorker struct {
	natsConnection   *nats.Conn
	subject          string
	completedSubject string
	service          core.VoiceService
	log              *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. Replies go to the
// requester's inbox when one is set, otherwise to completedSubject.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	completedSubject string,
	service core.VoiceService,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection:   natsConnection,
		subject:          subject,
		completedSubject: completedSubject,
		service:          service,
		log:              log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	reply := SynthesisCompletedEvent{
		Header:     event.Header,
		AudioToken: "",
		Error:      "",
	}

	token, synthErr := w.service.Synthesize(ctx, event.ModelID, event.Text, event.Language)
	if synthErr != nil {
		w.log.Error("Failed to process synthesis job for workflow %s: %v",
			event.Header.WorkflowID, synthErr)

		reply.Error = synthErr.Error()
	} else {
		reply.AudioToken = token
	}

	err = w.publishReply(msg, &reply)
	if err != nil {
		w.log.Error("Failed to publish reply for workflow %s: %v", event.Header.WorkflowID, err)
	}
}

// publishReply marshals and delivers the SynthesisCompletedEvent, to the
// reply inbox when the request carries one and to the completed subject
// otherwise.
func (w *NatsWorker) publishReply(msg *nats.Msg, reply *SynthesisCompletedEvent) error {
	replyData, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	if msg.Reply != "" {
		err = msg.Respond(replyData)
	} else {
		err = w.natsConnection.Publish(w.completedSubject, replyData)
	}

	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseAndValidateEvent(msg *nats.Msg) (*SynthesisRequestedEvent, error) {
	var event SynthesisRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.Text == "" {
		return nil, ErrEmptyText
	}

	return &event, nil
}
