package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Wire-level update shapes, decoded straight from getUpdates. Only the
// fields the collector logs are kept.

type Update struct {
	ID            int64           `json:"update_id"`
	Message       *UpdateMessage  `json:"message"`
	EditedMessage *UpdateMessage  `json:"edited_message"`
	Callback      *UpdateCallback `json:"callback_query"`
}

type UpdateMessage struct {
	ID       int           `json:"message_id"`
	Chat     UpdateChat    `json:"chat"`
	Sender   *UpdateUser   `json:"from"`
	Text     string        `json:"text"`
	Sticker  *StickerInfo  `json:"sticker"`
	Photo    []PhotoSize   `json:"photo"`
	Document *DocumentInfo `json:"document"`
	Audio    *AudioInfo    `json:"audio"`
	Video    *VideoInfo    `json:"video"`
	Voice    *VoiceInfo    `json:"voice"`
}

type UpdateChat struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username"`
}

type UpdateUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type UpdateCallback struct {
	From    UpdateUser     `json:"from"`
	Data    string         `json:"data"`
	Message *UpdateMessage `json:"message"`
}

type StickerInfo struct {
	FileID string `json:"file_id"`
	Emoji  string `json:"emoji"`
}

type PhotoSize struct {
	FileID   string `json:"file_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"file_size"`
}

type DocumentInfo struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MIME     string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

type AudioInfo struct {
	FileID    string `json:"file_id"`
	FileName  string `json:"file_name"`
	Title     string `json:"title"`
	Performer string `json:"performer"`
	MIME      string `json:"mime_type"`
	FileSize  int64  `json:"file_size"`
}

type VideoInfo struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MIME     string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

type VoiceInfo struct {
	FileID   string `json:"file_id"`
	MIME     string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// FetchUpdates pulls pending updates once. It competes with any other
// consumer of the same token (long-polling eats the update queue), so the
// caller is expected to warn the operator about that.
func (a *Adapter) FetchUpdates(ctx context.Context, limit int, timeout time.Duration) ([]Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := a.bot.Raw("getUpdates", map[string]string{
		"limit":   strconv.Itoa(limit),
		"timeout": strconv.Itoa(int(timeout.Seconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}

	var resp struct {
		Result []Update `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("getUpdates: decode: %w", err)
	}
	return resp.Result, nil
}
