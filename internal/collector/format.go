package collector

import (
	"fmt"

	"botcast/internal/dispatch"
	"botcast/internal/transport/telegram"
)

// FormatUpdate renders one update into the received-data log grammar.
// The second return is a short echo line for operator display; ok is false
// for update kinds this tool does not record.
//
// Field layout matters: discovery's patterns key on "Chat: <id> (...)",
// "Sender: <id> (@user)" and "CallbackQuery: From=<id> (@user)".
func FormatUpdate(u telegram.Update) (line, echo string, ok bool) {
	switch {
	case u.Message != nil:
		m := u.Message
		chatLabel := m.Chat.Title
		if chatLabel == "" {
			chatLabel = m.Chat.Username
		}
		if chatLabel == "" {
			chatLabel = "Private"
		}
		senderID := int64(0)
		senderName := "NoUsername"
		if m.Sender != nil {
			senderID = m.Sender.ID
			if m.Sender.Username != "" {
				senderName = m.Sender.Username
			}
		}
		content := formatContent(m)
		line = fmt.Sprintf("INCOMING; UpdateID: %d; Chat: %d (%s); Sender: %d (@%s); Content: %s",
			u.ID, m.Chat.ID, chatLabel, senderID, senderName, content)
		echo = fmt.Sprintf("@%s: %s", senderName, content)
		return line, echo, true

	case u.EditedMessage != nil:
		m := u.EditedMessage
		line = fmt.Sprintf("INCOMING; UpdateID: %d; Edited Message: ChatID=%d, MsgID=%d", u.ID, m.Chat.ID, m.ID)
		echo = fmt.Sprintf("edited message %d", m.ID)
		return line, echo, true

	case u.Callback != nil:
		q := u.Callback
		fromName := "?"
		if q.From.Username != "" {
			fromName = q.From.Username
		}
		msgID := 0
		if q.Message != nil {
			msgID = q.Message.ID
		}
		line = fmt.Sprintf("INCOMING; UpdateID: %d; CallbackQuery: From=%d (@%s), Data='%s', MsgID=%d",
			u.ID, q.From.ID, fromName, q.Data, msgID)
		echo = fmt.Sprintf("callback from @%s: '%s'", fromName, q.Data)
		return line, echo, true
	}

	return "", "", false
}

func formatContent(m *telegram.UpdateMessage) string {
	switch {
	case m.Text != "":
		return fmt.Sprintf("Text: '%s'", dispatch.Preview(m.Text))
	case m.Sticker != nil:
		return fmt.Sprintf("Sticker: ID=%s, Emoji=%s", m.Sticker.FileID, m.Sticker.Emoji)
	case len(m.Photo) > 0:
		// Telegram sends several sizes; the last is the largest.
		p := m.Photo[len(m.Photo)-1]
		return fmt.Sprintf("Photo: ID=%s, Size=%dx%d, FileSize=%d", p.FileID, p.Width, p.Height, p.FileSize)
	case m.Document != nil:
		d := m.Document
		return fmt.Sprintf("Document: Name='%s', MIME=%s, ID=%s, FileSize=%d", d.FileName, d.MIME, d.FileID, d.FileSize)
	case m.Audio != nil:
		a := m.Audio
		return fmt.Sprintf("Audio: Name='%s', Title='%s', Performer='%s', MIME=%s, ID=%s", a.FileName, a.Title, a.Performer, a.MIME, a.FileID)
	case m.Video != nil:
		v := m.Video
		return fmt.Sprintf("Video: Name='%s', MIME=%s, ID=%s, FileSize=%d", v.FileName, v.MIME, v.FileID, v.FileSize)
	case m.Voice != nil:
		v := m.Voice
		return fmt.Sprintf("Voice: MIME=%s, ID=%s, FileSize=%d", v.MIME, v.FileID, v.FileSize)
	default:
		return "Other message type"
	}
}
