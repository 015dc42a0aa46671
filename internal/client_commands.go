package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

func (model *TUIModel) scheduleReconnect() tea.Cmd {
	const retryDelay = 2 * time.Second
	// we schedule a future poke that nudges Update to try the connection again.
	return tea.Tick(retryDelay, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

// websocket dial
func (model *TUIModel) connectCmd() tea.Cmd {
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.Dial(model.serverJoinURL, http.Header{})
		if err != nil {
			return connectFailedMsg{err: err}
		}
		model.websocketConn = conn
		return connectedMsg{}
	}
}

// one read per command; Update re-issues it after handling each frame.
func (model *TUIModel) readOnceCmd() tea.Cmd {
	return func() tea.Msg {
		if model.websocketConn == nil {
			return errorMsg(fmt.Errorf("websocket not connected"))
		}
		for {
			messageType, payload, err := model.websocketConn.ReadMessage()
			if err != nil {
				return errorMsg(err)
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var env Envelope
			if err := json.Unmarshal(payload, &env); err != nil {
				continue
			}
			return frameMsg(env)
		}
	}
}

func (model *TUIModel) joinCmd(name string) tea.Cmd {
	return model.writeEnvelopeCmd(Envelope{Event: EventJoin, Name: name})
}

func (model *TUIModel) statusCmd(event string) tea.Cmd {
	return model.writeEnvelopeCmd(Envelope{Event: event})
}

func (model *TUIModel) sendCmd(chat ChatMessage) tea.Cmd {
	payload, err := json.Marshal(chat)
	if err != nil {
		return func() tea.Msg { return errorMsg(err) }
	}
	return model.writeEnvelopeCmd(Envelope{Event: EventSendMessage, Data: payload})
}

func (model *TUIModel) writeEnvelopeCmd(env Envelope) tea.Cmd {
	return func() tea.Msg {
		if model.websocketConn == nil {
			return errorMsg(fmt.Errorf("websocket not connected"))
		}
		encoded, err := json.Marshal(env)
		if err != nil {
			return errorMsg(err)
		}
		model.writeMutex.Lock()
		err = model.websocketConn.WriteMessage(websocket.TextMessage, encoded)
		model.writeMutex.Unlock()
		if err != nil {
			return errorMsg(err)
		}
		return nil
	}
}

// upload runs off the bubbletea loop; the message referencing the returned
// path is only constructed once the gateway has answered.
func (model *TUIModel) uploadCmd(filePath, body string) tea.Cmd {
	serverURL := model.serverJoinURL
	return func() tea.Msg {
		ref, err := uploadAttachment(serverURL, filePath)
		return uploadedMsg{ref: ref, body: body, err: err}
	}
}

func decodeChatPayload(data json.RawMessage) (ChatMessage, error) {
	var chat ChatMessage
	if err := json.Unmarshal(data, &chat); err != nil {
		return ChatMessage{}, err
	}
	return chat, nil
}

// entry for bubbletea. Focus reporting is what drives the active/inactive
// presence flips.
func RunClient(serverJoinURL, name string) error {
	program := tea.NewProgram(NewTUIModel(serverJoinURL, name), tea.WithReportFocus())
	_, err := program.Run()
	return err
}
