package services

import "context"

// QuickReply is one tappable shortcut under a reply
type QuickReply struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Reply is what gets handed to the messaging gateway
type Reply struct {
	To           string       `json:"to"`
	Text         string       `json:"text"`
	QuickReplies []QuickReply `json:"quick_replies"`
}

// Gateway delivers replies to the messaging platform
type Gateway interface {
	Send(ctx context.Context, reply Reply) error
}

// DefaultQuickReplies is the fixed shortcut menu, one per recognized intent.
var DefaultQuickReplies = []QuickReply{
	{Label: "เมนู", Value: "เมนู"},
	{Label: "จองโต๊ะ", Value: "จองโต๊ะ"},
	{Label: "โปรโมชั่น", Value: "โปร"},
	{Label: "เวลาเปิดร้าน", Value: "เปิด"},
	{Label: "ที่อยู่/แผนที่", Value: "ที่อยู่"},
	{Label: "สั่งเดลิเวอรี", Value: "สั่ง"},
	{Label: "โทรหาเรา", Value: "เบอร์โทร"},
}

// ReplyComposer attaches the quick reply menu to reply text
type ReplyComposer struct {
	quickReplies []QuickReply
}

func NewReplyComposer() *ReplyComposer {
	return &ReplyComposer{quickReplies: DefaultQuickReplies}
}

// Compose builds the outgoing reply. Each reply gets its own copy of the menu.
func (c *ReplyComposer) Compose(to, text string) Reply {
	quick := make([]QuickReply, len(c.quickReplies))
	copy(quick, c.quickReplies)
	return Reply{To: to, Text: text, QuickReplies: quick}
}
