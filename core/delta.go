package core

// Delta is a view-model update emitted to the rendering layer. Concrete types
// implement the unexported isDelta marker enabling a closed set. The engine
// never performs presentation; it only emits these values.
type Delta interface{ isDelta() }

// MessageDelta announces a finished chat message.
type MessageDelta struct {
	Message ChatMessage
}

func (MessageDelta) isDelta() {}

// ItemDelta carries the current state of a reasoning timeline item.
type ItemDelta struct {
	TurnID string
	Item   ReasoningItem
}

func (ItemDelta) isDelta() {}

// ParticipantDelta carries the current state of a participant graph node.
type ParticipantDelta struct {
	Participant AgentParticipant
}

func (ParticipantDelta) isDelta() {}

// EdgeDelta announces a newly appended participant graph edge.
type EdgeDelta struct {
	Edge Edge
}

func (EdgeDelta) isDelta() {}

// BlockDelta carries the summary of a thinking block.
type BlockDelta struct {
	TurnID       string
	Title        string
	Status       BlockStatus
	PendingCount int
}

func (BlockDelta) isDelta() {}

// SystemNotice is a user visible system message, e.g. a transport failure in
// the middle of a turn. It is transient and never part of the replay log.
type SystemNotice struct {
	Text string
}

func (SystemNotice) isDelta() {}

// DraftDelta carries the current content of the active text buffer while a
// turn streams. Narration reports whether the text is narration of an open
// call. Drafts are transient; the finished text arrives as a MessageDelta or
// as item narration.
type DraftDelta struct {
	TurnID    string
	Text      string
	Narration bool
}

func (DraftDelta) isDelta() {}
