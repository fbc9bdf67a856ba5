package domain

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType identifies the kind of a content block.
type BlockType string

// Content block types.
const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// StopReason explains why the model stopped generating.
type StopReason string

// Stop reasons. StopToolUse is the only one the orchestration branches on.
const (
	StopEndTurn      StopReason = "end_turn"
	StopToolUse      StopReason = "tool_use"
	StopMaxTokens    StopReason = "max_tokens"
	StopStopSequence StopReason = "stop_sequence"
)

// ContentBlock is one element of a message's content.
// Which fields are set depends on Type.
type ContentBlock struct {
	Type BlockType

	// Text is set for text blocks.
	Text string

	// ID, Name and Input are set for tool_use blocks.
	ID    string
	Name  string
	Input map[string]any

	// ToolUseID, Content and IsError are set for tool_result blocks.
	ToolUseID string
	Content   string
	IsError   bool
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolUseBlock returns a tool_use content block.
func ToolUseBlock(id, name string, input map[string]any) ContentBlock {
	return ContentBlock{Type: BlockToolUse, ID: id, Name: name, Input: input}
}

// ToolResultBlock returns a tool_result content block.
func ToolResultBlock(toolUseID, content string) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content}
}

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// UserText returns a user message holding a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// Text returns the text of the first text block, or "".
func (m Message) Text() string {
	return FirstText(m.Content)
}

// ToolUses returns the tool_use blocks in order of appearance.
func (m Message) ToolUses() []ContentBlock {
	return ToolUses(m.Content)
}

// FirstText returns the text of the first text block in blocks.
func FirstText(blocks []ContentBlock) string {
	for _, b := range blocks {
		if b.Type == BlockText {
			return b.Text
		}
	}
	return ""
}

// ToolUses filters blocks down to tool_use blocks, preserving order.
func ToolUses(blocks []ContentBlock) []ContentBlock {
	var out []ContentBlock
	for _, b := range blocks {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}
