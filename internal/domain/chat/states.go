package chat

// MessageState is the lifecycle state of a message. Edited is an orthogonal
// flag, not a state: an edited message can be Sent or Seen.
type MessageState string

const (
	// StateSent means only the sender is in the seen-by set.
	StateSent MessageState = "SENT"
	// StateSeen means the recipient has entered the seen-by set.
	StateSeen MessageState = "SEEN"
)

// State derives the message state from the seen-by set. Deleted messages
// are hard-removed and have no representable state.
func (m Message) State() MessageState {
	if m.SeenByOther() {
		return StateSeen
	}
	return StateSent
}
