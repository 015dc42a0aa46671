package internal

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

// asynchronous events delivered to Update: connection lifecycle, inbound
// frames, and the result of an attachment upload.
type (
	connectedMsg     struct{}
	frameMsg         Envelope
	errorMsg         error
	connectFailedMsg struct{ err error }
	reconnectMsg     struct{}
	uploadedMsg      struct {
		ref  string
		body string
		err  error
	}
)

func (model *TUIModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.KeyMsg:
		// Any mode should respect Ctrl+C or Esc so the user can bail out quickly.
		if typedMessage.Type == tea.KeyCtrlC || typedMessage.Type == tea.KeyEsc {
			if model.websocketConn != nil {
				_ = model.websocketConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = model.websocketConn.Close()
			}
			return model, tea.Quit
		}
		switch model.mode {
		case modeNamePrompt:
			if typedMessage.Type == tea.KeyEnter {
				trimmed := strings.TrimSpace(model.textInput.Value())
				if !model.presence.Join(trimmed) {
					model.appendSystem("Display name cannot be empty.")
					return model, nil
				}
				model.mode = modeChat
				model.textInput.SetValue("")
				model.textInput.Placeholder = "Type a message…"
				model.textInput.Prompt = "> "
				return model, model.joinCmd(trimmed)
			}
			var cmd tea.Cmd
			model.textInput, cmd = model.textInput.Update(typedMessage)
			return model, cmd
		case modeChat:
			if typedMessage.Type == tea.KeyEnter {
				return model.handleChatInput()
			}
			var cmd tea.Cmd
			model.textInput, cmd = model.textInput.Update(typedMessage)
			return model, cmd
		}

	case tea.FocusMsg:
		if model.presence.Focus() {
			return model, model.statusCmd(EventMarkActive)
		}
		return model, nil

	case tea.BlurMsg:
		if model.presence.Blur() {
			return model, model.statusCmd(EventMarkInactive)
		}
		return model, nil

	case connectedMsg:
		model.isConnected = true
		model.connectionError = nil
		return model, model.readOnceCmd()

	case frameMsg:
		model.handleFrame(Envelope(typedMessage))
		return model, model.readOnceCmd()

	case errorMsg:
		// the read pump died: the server has (or will) drop our presence
		// record. Terminal for this session; a fresh run starts over.
		model.isConnected = false
		model.connectionError = typedMessage
		model.presence.Disconnect()
		model.appendSystem("Connection lost. Press Esc to quit and start a new session.")
		return model, nil

	case connectFailedMsg:
		model.connectionError = typedMessage.err
		if model.presence.Phase() == PhaseNotJoined {
			return model, model.scheduleReconnect()
		}
		return model, nil

	case reconnectMsg:
		if !model.isConnected && model.presence.Phase() == PhaseNotJoined {
			return model, model.connectCmd()
		}
		return model, nil

	case uploadedMsg:
		model.uploading = false
		if typedMessage.err != nil {
			model.appendSystem(fmt.Sprintf("Upload failed: %v. The message was not sent.", typedMessage.err))
			return model, nil
		}
		model.pendingAttachment = ""
		ref := typedMessage.ref
		chat := ChatMessage{
			Author:     model.presence.Name(),
			Body:       typedMessage.body,
			SentAt:     time.Now().UTC(),
			Attachment: &ref,
		}
		return model, model.sendCmd(chat)
	}
	return model, nil
}

func (model *TUIModel) handleChatInput() (tea.Model, tea.Cmd) {
	trimmed := strings.TrimSpace(model.textInput.Value())

	if strings.HasPrefix(trimmed, "/") {
		return model.handleSlashCommand(trimmed)
	}
	if model.uploading {
		model.appendSystem("Still uploading the previous attachment…")
		return model, nil
	}
	if !model.presence.CanSend() || !model.isConnected {
		return model, nil
	}
	if trimmed == "" && model.pendingAttachment == "" {
		return model, nil
	}

	model.textInput.SetValue("")
	if model.pendingAttachment != "" {
		// the message waits for the upload exchange to hand back a
		// retrievable path before it goes out.
		model.uploading = true
		return model, model.uploadCmd(model.pendingAttachment, trimmed)
	}
	chat := ChatMessage{Author: model.presence.Name(), Body: trimmed, SentAt: time.Now().UTC()}
	return model, model.sendCmd(chat)
}

func (model *TUIModel) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	lower := strings.ToLower(input)
	switch {
	case lower == "/quit" || lower == "/exit":
		if model.websocketConn != nil {
			_ = model.websocketConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client quit"))
			_ = model.websocketConn.Close()
		}
		return model, tea.Quit
	case strings.HasPrefix(lower, "/attach"):
		path := strings.TrimSpace(input[len("/attach"):])
		if path == "" {
			model.appendSystem("Usage: /attach <path>")
			return model, nil
		}
		resolved, info, err := resolveAttachment(path)
		if err != nil {
			model.appendSystem(fmt.Sprintf("Cannot attach %s: %v", path, err))
			return model, nil
		}
		model.pendingAttachment = resolved
		model.appendSystem(fmt.Sprintf("Attached %s (%s). It uploads with your next message.", info.Name(), formatFileSize(info.Size())))
		model.textInput.SetValue("")
		return model, nil
	case lower == "/detach":
		model.pendingAttachment = ""
		model.appendSystem("Attachment cleared.")
		model.textInput.SetValue("")
		return model, nil
	}
	model.appendSystem("Unknown command. Try /attach <path>, /detach, or /quit.")
	return model, nil
}

func (model *TUIModel) handleFrame(env Envelope) {
	switch env.Event {
	case EventRosterUpdate:
		// replace, never merge: the server's snapshot is authoritative.
		model.roster = env.Roster
	case EventMessage:
		chat, err := decodeChatPayload(env.Data)
		if err != nil {
			return
		}
		model.transcript = append(model.transcript, chat)
	}
}

func (model *TUIModel) appendSystem(body string) {
	model.transcript = append(model.transcript, ChatMessage{Author: "system", Body: body, SentAt: time.Now()})
}

func resolveAttachment(path string) (string, os.FileInfo, error) {
	expanded := expandHome(path)
	info, err := os.Stat(expanded)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory", expanded)
	}
	return expanded, info, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + strings.TrimPrefix(path, "~")
}
