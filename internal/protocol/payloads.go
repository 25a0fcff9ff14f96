package protocol

import "encoding/json"

// Join registers the sending connection as the live handle for UserID.
type Join struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func (Join) EventType() Type { return TypeJoin }

func (p Join) Validate() error {
	if p.UserID == "" {
		return missing("userId")
	}
	return nil
}

// RosterEntry is one online user in a roster snapshot.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OnlineUsers is the full roster snapshot broadcast after every join/leave.
type OnlineUsers []RosterEntry

func (OnlineUsers) EventType() Type { return TypeOnlineUsers }

func (p OnlineUsers) Validate() error {
	for _, e := range p {
		if e.ID == "" {
			return missing("id")
		}
	}
	return nil
}

// MarshalJSON keeps an empty roster as [] so it survives Decode.
func (p OnlineUsers) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]RosterEntry(p))
}

// IDs returns the roster as a set of user ids.
func (p OnlineUsers) IDs() map[string]struct{} {
	set := make(map[string]struct{}, len(p))
	for _, e := range p {
		set[e.ID] = struct{}{}
	}
	return set
}

// PrivateMessage is forwarded verbatim from sender to recipient.
// ID and Time are optional for compatibility with senders that omit them.
type PrivateMessage struct {
	ToID    string `json:"toId"`
	FromID  string `json:"fromId"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Time    int64  `json:"time,omitempty"`
}

func (PrivateMessage) EventType() Type { return TypePrivateMessage }

func (p PrivateMessage) Validate() error {
	switch {
	case p.ToID == "":
		return missing("toId")
	case p.FromID == "":
		return missing("fromId")
	}
	return nil
}

// DeleteMessage starts a delete negotiation from the original sender.
type DeleteMessage struct {
	MessageID string `json:"messageId"`
	ToID      string `json:"toId"`
	FromID    string `json:"fromId"`
}

func (DeleteMessage) EventType() Type { return TypeDeleteMessage }

func (p DeleteMessage) Validate() error {
	switch {
	case p.MessageID == "":
		return missing("messageId")
	case p.ToID == "":
		return missing("toId")
	case p.FromID == "":
		return missing("fromId")
	}
	return nil
}

// DeleteMessageRequest asks the recipient to approve a deletion.
type DeleteMessageRequest struct {
	MessageID string `json:"messageId"`
	FromID    string `json:"fromId"`
}

func (DeleteMessageRequest) EventType() Type { return TypeDeleteMessageRequest }

func (p DeleteMessageRequest) Validate() error {
	if p.MessageID == "" {
		return missing("messageId")
	}
	return nil
}

// DeleteMessageResponse carries the recipient's verdict. FromID is the
// original sender, which is where the relay routes it.
type DeleteMessageResponse struct {
	MessageID string `json:"messageId"`
	FromID    string `json:"fromId"`
	Success   bool   `json:"success"`
}

func (DeleteMessageResponse) EventType() Type { return TypeDeleteMessageResponse }

func (p DeleteMessageResponse) Validate() error {
	switch {
	case p.MessageID == "":
		return missing("messageId")
	case p.FromID == "":
		return missing("fromId")
	}
	return nil
}

// DeleteMessageQueued tells the sender its delete was parked for an offline recipient.
type DeleteMessageQueued struct {
	MessageID string `json:"messageId"`
}

func (DeleteMessageQueued) EventType() Type { return TypeDeleteMessageQueued }

func (p DeleteMessageQueued) Validate() error {
	if p.MessageID == "" {
		return missing("messageId")
	}
	return nil
}

// MessageRead is a read receipt. FromID is the original sender of the
// message; ReaderID identifies who read it.
type MessageRead struct {
	MessageID string `json:"messageId"`
	FromID    string `json:"fromId"`
	ReaderID  string `json:"readerId,omitempty"`
}

func (MessageRead) EventType() Type { return TypeMessageRead }

func (p MessageRead) Validate() error {
	switch {
	case p.MessageID == "":
		return missing("messageId")
	case p.FromID == "":
		return missing("fromId")
	}
	return nil
}
