package live

import (
	"context"
	"sync"
	"time"

	"reelchat/internal/domain/chat"
	"reelchat/internal/services"
	reelchat_errors "reelchat/pkg/errors"
	"reelchat/pkg/logger"

	"github.com/google/uuid"
)

// Sender is the slice of ChatService the view controller needs.
type Sender interface {
	SendMessage(ctx context.Context, in services.SendMessageInput) (chat.Message, error)
	EditMessage(ctx context.Context, messageID uuid.UUID, editorID, newText string) error
}

// SeenMarker is the receipt tracker as seen from the view controller.
type SeenMarker interface {
	MarkSeen(ctx context.Context, conversationID, viewerID string, messageIDs []uuid.UUID) error
}

// View is the per-open-conversation controller: it holds the subscription,
// the local compose/edit state, and the dwell timer that drives automatic
// seen-marking. One View per open conversation per client.
type View struct {
	conversationID string
	viewerID       string
	feed           *Feed
	chats          Sender
	receipts       SeenMarker
	dwell          time.Duration
	log            *logger.Logger

	mu         sync.Mutex
	sub        *Subscription
	current    []chat.Message
	composer   string
	editing    *uuid.UUID
	dwellTimer *time.Timer
	onUpdate   func([]chat.Message)
}

func NewView(feed *Feed, chats Sender, receipts SeenMarker, conversationID, viewerID string, dwell time.Duration, log *logger.Logger) *View {
	return &View{
		conversationID: conversationID,
		viewerID:       viewerID,
		feed:           feed,
		chats:          chats,
		receipts:       receipts,
		dwell:          dwell,
		log:            log,
	}
}

// SetOnUpdate registers a callback invoked with every snapshot the view
// consumes. Must be called before Open.
func (v *View) SetOnUpdate(fn func([]chat.Message)) {
	v.mu.Lock()
	v.onUpdate = fn
	v.mu.Unlock()
}

// Open subscribes to the conversation and starts consuming snapshots.
func (v *View) Open(ctx context.Context) error {
	sub, err := v.feed.Subscribe(ctx, v.conversationID)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()

	go v.consume(ctx, sub)
	return nil
}

// Close releases the subscription and stops the dwell timer. Must be called
// when the conversation is navigated away from; the subscription otherwise
// keeps receiving callbacks for the process lifetime.
func (v *View) Close() {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	if v.dwellTimer != nil {
		v.dwellTimer.Stop()
		v.dwellTimer = nil
	}
	v.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

func (v *View) consume(ctx context.Context, sub *Subscription) {
	for msgs := range sub.Updates() {
		v.mu.Lock()
		v.current = msgs
		onUpdate := v.onUpdate
		v.mu.Unlock()
		if onUpdate != nil {
			onUpdate(msgs)
		}
		v.scheduleSeen(ctx)
	}
}

// scheduleSeen arms the dwell timer. New snapshots while the timer is
// pending reset it, so a rapid open/close never marks anything.
func (v *View) scheduleSeen(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sub == nil {
		return
	}
	if v.dwellTimer != nil {
		v.dwellTimer.Stop()
	}
	v.dwellTimer = time.AfterFunc(v.dwell, func() {
		v.markVisibleSeen(ctx)
	})
}

// markVisibleSeen marks every loaded counterpart message the viewer has not
// seen. Failures are logged only: receipt marking is background work.
func (v *View) markVisibleSeen(ctx context.Context) {
	v.mu.Lock()
	var candidates []uuid.UUID
	for _, m := range v.current {
		if m.SenderID != v.viewerID && !m.SeenByUser(v.viewerID) {
			candidates = append(candidates, m.ID)
		}
	}
	v.mu.Unlock()

	if len(candidates) == 0 {
		return
	}
	if err := v.receipts.MarkSeen(ctx, v.conversationID, v.viewerID, candidates); err != nil {
		v.log.Warnf("auto mark-seen in %s: %v", v.conversationID, err)
	}
}

// Messages returns the current snapshot, ordered ascending by createdAt.
func (v *View) Messages() []chat.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]chat.Message, len(v.current))
	copy(out, v.current)
	return out
}

func (v *View) SetComposer(text string) {
	v.mu.Lock()
	v.composer = text
	v.mu.Unlock()
}

func (v *View) Composer() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.composer
}

// Send submits the composer as a new message. On failure the composer text
// stays put so the user can retry by resubmitting.
func (v *View) Send(ctx context.Context) (chat.Message, error) {
	v.mu.Lock()
	text := v.composer
	v.mu.Unlock()

	msg, err := v.chats.SendMessage(ctx, services.SendMessageInput{
		ConversationID: v.conversationID,
		SenderID:       v.viewerID,
		Text:           text,
	})
	if err != nil {
		return chat.Message{}, err
	}

	v.mu.Lock()
	v.composer = ""
	v.mu.Unlock()
	return msg, nil
}

// BeginEdit loads an own message into the composer for editing.
func (v *View) BeginEdit(messageID uuid.UUID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, m := range v.current {
		if m.ID == messageID {
			if m.SenderID != v.viewerID {
				return reelchat_errors.ErrForbidden
			}
			id := messageID
			v.editing = &id
			v.composer = m.Text
			return nil
		}
	}
	return reelchat_errors.ErrNotFound
}

// CancelEdit drops edit state and restores an empty composer.
func (v *View) CancelEdit() {
	v.mu.Lock()
	v.editing = nil
	v.composer = ""
	v.mu.Unlock()
}

// SubmitEdit applies the composer text to the message under edit. On failure
// the edit state is kept and the display reverts to the stored text.
func (v *View) SubmitEdit(ctx context.Context) error {
	v.mu.Lock()
	editing := v.editing
	text := v.composer
	v.mu.Unlock()

	if editing == nil {
		return reelchat_errors.ErrInvalidInput
	}
	if err := v.chats.EditMessage(ctx, *editing, v.viewerID, text); err != nil {
		return err
	}

	v.mu.Lock()
	v.editing = nil
	v.composer = ""
	v.mu.Unlock()
	return nil
}
