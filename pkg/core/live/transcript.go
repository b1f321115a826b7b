package live

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderModel Sender = "model"
)

// Message is one entry in the transcript. While Complete is false the
// message is "open" and its Text may still grow; once complete it is
// immutable.
type Message struct {
	ID       string
	Sender   Sender
	Text     string
	Complete bool
}

// Reconciler merges the stream's incremental transcript fragments into
// discrete messages. Fragments for a turn accumulate into the open
// message's text, so the transcript renders live without flicker; a
// speaker change closes the previous open message and opens a new one.
//
// The message history is append-only and never reordered. At most one open
// message exists per sender at any time.
type Reconciler struct {
	mu         sync.Mutex
	messages   []Message
	inputText  string
	outputText string

	// onUpdate, when set, is invoked outside the lock after every visible
	// change to the history.
	onUpdate func()
}

// NewReconciler creates an empty reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// SetOnUpdate registers a notification hook for history changes.
// Must be set before the session starts dispatching.
func (r *Reconciler) SetOnUpdate(fn func()) {
	r.onUpdate = fn
}

// Messages returns a snapshot of the history in arrival order.
func (r *Reconciler) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Append adds an already-complete message, such as a typed user turn or a
// visible error entry.
func (r *Reconciler) Append(sender Sender, text string) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{
		ID:       uuid.NewString(),
		Sender:   sender,
		Text:     text,
		Complete: true,
	})
	r.mu.Unlock()
	r.notify()
}

// OnInputFragment applies an incremental fragment of the user's transcript.
func (r *Reconciler) OnInputFragment(text string) {
	r.mu.Lock()
	r.inputText += text
	if strings.TrimSpace(r.inputText) == "" {
		r.mu.Unlock()
		return
	}

	if last := r.lastOpen(SenderUser); last != nil {
		last.Text = r.inputText
	} else {
		r.closeLastOpen()
		r.open(SenderUser, r.inputText)
	}
	r.mu.Unlock()
	r.notify()
}

// OnOutputFragment applies an incremental fragment of the model's transcript.
// Opening a model message first completes any open user message: the model
// speaks only after the user's turn is understood to have ended.
func (r *Reconciler) OnOutputFragment(text string) {
	r.mu.Lock()
	r.outputText += text
	if strings.TrimSpace(r.outputText) == "" {
		r.mu.Unlock()
		return
	}

	if last := r.lastOpen(SenderModel); last != nil {
		last.Text = r.outputText
	} else {
		r.closeLastOpen()
		for i := range r.messages {
			if r.messages[i].Sender == SenderUser {
				r.messages[i].Complete = true
			}
		}
		r.open(SenderModel, r.outputText)
	}
	r.mu.Unlock()
	r.notify()
}

// OnTurnComplete marks every message complete and clears both accumulators.
func (r *Reconciler) OnTurnComplete() {
	r.mu.Lock()
	r.completeAll()
	r.inputText = ""
	r.outputText = ""
	r.mu.Unlock()
	r.notify()
}

// OnInterrupted abandons the model's in-progress utterance: the output
// accumulator is cleared and every message is closed for display. The input
// accumulator is preserved; a half-captured user utterance survives the
// interruption.
func (r *Reconciler) OnInterrupted() {
	r.mu.Lock()
	r.outputText = ""
	r.completeAll()
	r.mu.Unlock()
	r.notify()
}

// lastOpen returns the most recent message if it is an open message from
// sender, else nil. Callers hold the lock.
func (r *Reconciler) lastOpen(sender Sender) *Message {
	if len(r.messages) == 0 {
		return nil
	}
	last := &r.messages[len(r.messages)-1]
	if last.Sender == sender && !last.Complete {
		return last
	}
	return nil
}

func (r *Reconciler) closeLastOpen() {
	if len(r.messages) == 0 {
		return
	}
	last := &r.messages[len(r.messages)-1]
	last.Complete = true
}

func (r *Reconciler) open(sender Sender, text string) {
	r.messages = append(r.messages, Message{
		ID:     uuid.NewString(),
		Sender: sender,
		Text:   text,
	})
}

func (r *Reconciler) completeAll() {
	for i := range r.messages {
		r.messages[i].Complete = true
	}
}

func (r *Reconciler) notify() {
	if r.onUpdate != nil {
		r.onUpdate()
	}
}
