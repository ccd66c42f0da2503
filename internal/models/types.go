package models

// Turn senders
const (
	SenderUser = "User"
	SenderAI   = "AI"
)

// Turn is a single message exchanged within a session, immutable once
// appended to a transcript.
type Turn struct {
	Sender  string `json:"sender"` // "User" or "AI"
	Message string `json:"message"`
}

// ChatRequest carries a user message into an existing conversation.
type ChatRequest struct {
	Message string `json:"message" form:"user_message"`
}

// ChatResponse is the answer to a chat or improve-text request.
type ChatResponse struct {
	SessionID    string `json:"session_id"`
	Answer       string `json:"answer"`
	SessionReset bool   `json:"session_reset,omitempty"`
}

// ImproveRequest carries user-edited OCR text into the conversation.
type ImproveRequest struct {
	EditedText string `json:"edited_text" form:"edited_text"`
}

// ExtractResponse reports the OCR result of an uploaded image.
type ExtractResponse struct {
	SessionID     string `json:"session_id"`
	Filename      string `json:"filename"`
	ExtractedText string `json:"extracted_text"`
}

// VideoUploadResponse reports a completed full-frame video extraction.
type VideoUploadResponse struct {
	SessionID   string `json:"session_id,omitempty"`
	VideoUID    string `json:"video_uid"`
	Filename    string `json:"filename"`
	TotalFrames int    `json:"total_frames"`
}

// FrameRequest selects one frame of an extracted video. The frame number is
// a pointer so an absent field is distinguishable from frame 0 and rejected.
type FrameRequest struct {
	FrameNumber *int `json:"frame_number" form:"frame_number" binding:"required"`
}

// FrameResponse is the joined OCR text of a single selected frame.
type FrameResponse struct {
	VideoUID      string `json:"video_uid"`
	FrameNumber   int    `json:"frame_number"`
	TotalFrames   int    `json:"total_frames"`
	ExtractedText string `json:"extracted_text"`
}

// HistoryResponse exposes a session's transcript for rendering.
type HistoryResponse struct {
	SessionID    string `json:"session_id"`
	ChatHistory  []Turn `json:"chat_history"`
	SessionReset bool   `json:"session_reset,omitempty"`
}

// ErrorResponse is the JSON body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}
